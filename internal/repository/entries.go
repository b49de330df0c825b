package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

const entryColumns = `id, collection_id, catalog_item_id, added_by_id, added_at, last_updated_at`

func scanEntry(row *sql.Row) (*models.CollectionEntry, error) {
	e := &models.CollectionEntry{}
	err := row.Scan(&e.ID, &e.CollectionID, &e.CatalogItemID, &e.AddedByID,
		&e.AddedAt, &e.LastUpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEntry inserts ON CONFLICT DO NOTHING so a lost race against a
// concurrent add of the same item does not abort the transaction; the caller
// refetches the surviving row.
func (q *Queries) CreateEntry(ctx context.Context, e *models.CollectionEntry) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO collection_entries (id, collection_id, catalog_item_id, added_by_id, added_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection_id, catalog_item_id) DO NOTHING`,
		e.ID, e.CollectionID, e.CatalogItemID, e.AddedByID, e.AddedAt, e.LastUpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *Queries) GetEntryByID(ctx context.Context, collectionID, entryID uuid.UUID) (*models.CollectionEntry, error) {
	return scanEntry(q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM collection_entries WHERE collection_id = $1 AND id = $2`,
		collectionID, entryID))
}

func (q *Queries) GetEntryByItem(ctx context.Context, collectionID, itemID uuid.UUID) (*models.CollectionEntry, error) {
	return scanEntry(q.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM collection_entries WHERE collection_id = $1 AND catalog_item_id = $2`,
		collectionID, itemID))
}

func (q *Queries) ListEntries(ctx context.Context, collectionID uuid.UUID) ([]watchlist.EntryWithItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT e.id, e.collection_id, e.catalog_item_id, e.added_by_id, e.added_at, e.last_updated_at,
		       i.id, i.external_id, i.kind, i.created_at
		FROM collection_entries e
		JOIN catalog_items i ON i.id = e.catalog_item_id
		WHERE e.collection_id = $1
		ORDER BY e.added_at`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []watchlist.EntryWithItem
	for rows.Next() {
		var ewi watchlist.EntryWithItem
		if err := rows.Scan(
			&ewi.Entry.ID, &ewi.Entry.CollectionID, &ewi.Entry.CatalogItemID,
			&ewi.Entry.AddedByID, &ewi.Entry.AddedAt, &ewi.Entry.LastUpdatedAt,
			&ewi.Item.ID, &ewi.Item.ExternalID, &ewi.Item.Kind, &ewi.Item.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ewi)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM collection_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, watchlist.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteEntriesByAdder(ctx context.Context, collectionID, userID uuid.UUID) ([]uuid.UUID, error) {
	return q.deleteEntriesReturning(ctx, `
		DELETE FROM collection_entries
		WHERE collection_id = $1 AND added_by_id = $2
		RETURNING catalog_item_id`, collectionID, userID)
}

func (q *Queries) DeleteEntriesByCollection(ctx context.Context, collectionID uuid.UUID) ([]uuid.UUID, error) {
	return q.deleteEntriesReturning(ctx, `
		DELETE FROM collection_entries
		WHERE collection_id = $1
		RETURNING catalog_item_id`, collectionID)
}

func (q *Queries) deleteEntriesReturning(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var itemIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		itemIDs = append(itemIDs, id)
	}
	return itemIDs, rows.Err()
}
