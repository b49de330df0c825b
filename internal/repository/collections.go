package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

const collectionColumns = `id, name, description, owner_id, share_code, created_at, last_updated_at`

func scanCollection(row *sql.Row) (*models.Collection, error) {
	c := &models.Collection{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.ShareCode,
		&c.CreatedAt, &c.LastUpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (q *Queries) CreateCollection(ctx context.Context, c *models.Collection) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, owner_id, share_code, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Description, c.OwnerID, c.ShareCode, c.CreatedAt, c.LastUpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("collection share code collision: %w", watchlist.ErrAlreadyExists)
	}
	return err
}

func (q *Queries) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	return scanCollection(q.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id))
}

func (q *Queries) GetCollectionByShareCode(ctx context.Context, code string) (*models.Collection, error) {
	return scanCollection(q.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE UPPER(share_code) = $1`, code))
}

func (q *Queries) UpdateCollectionMeta(ctx context.Context, id uuid.UUID, name, description string) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE collections SET name = $1, description = $2, last_updated_at = NOW()
		WHERE id = $3`, name, description, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("collection %s: %w", id, watchlist.ErrNotFound)
	}
	return nil
}

func (q *Queries) TouchCollection(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE collections SET last_updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (q *Queries) TouchCollectionsForItem(ctx context.Context, itemID, userID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE collections SET last_updated_at = NOW()
		WHERE id IN (
			SELECT ce.collection_id
			FROM collection_entries ce
			JOIN memberships m ON m.collection_id = ce.collection_id
			WHERE ce.catalog_item_id = $1 AND m.user_id = $2
		)`, itemID, userID)
	return err
}

// DeleteCollection removes the collection row; entries and memberships go
// with it via ON DELETE CASCADE.
func (q *Queries) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("collection %s: %w", id, watchlist.ErrNotFound)
	}
	return nil
}

func (q *Queries) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE UPPER(share_code) = $1)`, code,
	).Scan(&exists)
	return exists, err
}

func (q *Queries) ListCollectionsForUser(ctx context.Context, userID uuid.UUID) ([]watchlist.CollectionSummary, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.owner_id, c.share_code,
		       c.created_at, c.last_updated_at, m.role,
		       (SELECT COUNT(*) FROM memberships m2 WHERE m2.collection_id = c.id) AS member_count,
		       (SELECT COUNT(*) FROM collection_entries ce WHERE ce.collection_id = c.id) AS entry_count
		FROM collections c
		JOIN memberships m ON m.collection_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.last_updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []watchlist.CollectionSummary
	for rows.Next() {
		var s watchlist.CollectionSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.OwnerID, &s.ShareCode,
			&s.CreatedAt, &s.LastUpdatedAt, &s.Role, &s.MemberCount, &s.EntryCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *Queries) LockCollection(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.db.QueryRowContext(ctx,
		`SELECT id FROM collections WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return fmt.Errorf("collection %s: %w", id, watchlist.ErrNotFound)
	}
	return err
}

func (q *Queries) LockUser(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := q.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %s: %w", id, watchlist.ErrNotFound)
	}
	return err
}
