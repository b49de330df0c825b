package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// ResolveCatalogItem returns the canonical row for (externalID, kind),
// creating it on first reference. The insert is ON CONFLICT DO NOTHING
// against the uniqueness constraint, with one follow-up fetch for the case
// where a concurrent transaction won the insert.
func (q *Queries) ResolveCatalogItem(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error) {
	item, err := q.GetCatalogItemByExternal(ctx, externalID, kind)
	if err != nil || item != nil {
		return item, err
	}

	item = &models.CatalogItem{ID: uuid.New(), ExternalID: externalID, Kind: kind}
	err = q.db.QueryRowContext(ctx, `
		INSERT INTO catalog_items (id, external_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (external_id, kind) DO NOTHING
		RETURNING created_at`,
		item.ID, item.ExternalID, item.Kind,
	).Scan(&item.CreatedAt)
	if err == nil {
		return item, nil
	}
	if err != sql.ErrNoRows && !isUniqueViolation(err) {
		return nil, err
	}

	// Lost the race; the conflicting row is committed by now.
	return q.GetCatalogItemByExternal(ctx, externalID, kind)
}

func (q *Queries) GetCatalogItem(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	item := &models.CatalogItem{}
	err := q.db.QueryRowContext(ctx, `
		SELECT id, external_id, kind, created_at
		FROM catalog_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.ExternalID, &item.Kind, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (q *Queries) GetCatalogItemByExternal(ctx context.Context, externalID string, kind models.MediaKind) (*models.CatalogItem, error) {
	item := &models.CatalogItem{}
	err := q.db.QueryRowContext(ctx, `
		SELECT id, external_id, kind, created_at
		FROM catalog_items WHERE external_id = $1 AND kind = $2`,
		externalID, kind,
	).Scan(&item.ID, &item.ExternalID, &item.Kind, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}
