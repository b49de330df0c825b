package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
)

// orphanCondition matches a user's rating for an item with no surviving
// entry in any collection the user belongs to.
const orphanCondition = `
	NOT EXISTS (
		SELECT 1
		FROM collection_entries ce
		JOIN memberships m ON m.collection_id = ce.collection_id
		WHERE ce.catalog_item_id = user_ratings.catalog_item_id
		  AND m.user_id = user_ratings.user_id
	)`

func (q *Queries) GetRating(ctx context.Context, userID, itemID uuid.UUID) (*models.UserRating, error) {
	r := &models.UserRating{}
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, catalog_item_id, watch_status, rating, created_at, updated_at
		FROM user_ratings WHERE user_id = $1 AND catalog_item_id = $2`,
		userID, itemID,
	).Scan(&r.ID, &r.UserID, &r.CatalogItemID, &r.WatchStatus, &r.Rating, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (q *Queries) EnsureRating(ctx context.Context, userID, itemID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_ratings (id, user_id, catalog_item_id, watch_status, rating)
		VALUES ($1, $2, $3, 'not_watched', NULL)
		ON CONFLICT (user_id, catalog_item_id) DO NOTHING`,
		uuid.New(), userID, itemID)
	return err
}

// SaveRating upserts the row. Concurrent writes by the same user are
// last-write-wins on updated_at.
func (q *Queries) SaveRating(ctx context.Context, r *models.UserRating) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_ratings (id, user_id, catalog_item_id, watch_status, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, catalog_item_id)
		DO UPDATE SET watch_status = $4, rating = $5, updated_at = $7`,
		r.ID, r.UserID, r.CatalogItemID, r.WatchStatus, r.Rating, r.CreatedAt, r.UpdatedAt)
	return err
}

func (q *Queries) DeleteRatingIfOrphan(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		DELETE FROM user_ratings
		WHERE user_id = $1 AND catalog_item_id = $2 AND `+orphanCondition,
		userID, itemID)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (q *Queries) DeleteAllOrphanRatings(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`DELETE FROM user_ratings WHERE `+orphanCondition)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) ListUserRatingsForCollection(ctx context.Context, userID, collectionID uuid.UUID) ([]models.UserRating, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.catalog_item_id, r.watch_status, r.rating, r.created_at, r.updated_at
		FROM user_ratings r
		JOIN collection_entries ce ON ce.catalog_item_id = r.catalog_item_id
		WHERE r.user_id = $1 AND ce.collection_id = $2
		ORDER BY ce.added_at`, userID, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserRating
	for rows.Next() {
		var r models.UserRating
		if err := rows.Scan(&r.ID, &r.UserID, &r.CatalogItemID, &r.WatchStatus,
			&r.Rating, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListMemberRatingsForItem returns one row per current member; members
// without a rating slot show up as not_watched non-respondents.
func (q *Queries) ListMemberRatingsForItem(ctx context.Context, collectionID, itemID uuid.UUID) ([]models.MemberRating, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.id, u.username,
		       COALESCE(r.watch_status, 'not_watched'), r.rating
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN user_ratings r ON r.user_id = m.user_id AND r.catalog_item_id = $2
		WHERE m.collection_id = $1
		ORDER BY m.role = 'owner' DESC, u.username`, collectionID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MemberRating
	for rows.Next() {
		var mr models.MemberRating
		if err := rows.Scan(&mr.UserID, &mr.Username, &mr.WatchStatus, &mr.Rating); err != nil {
			return nil, err
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

func (q *Queries) AverageRating(ctx context.Context, itemID uuid.UUID, collectionID *uuid.UUID) (models.RatingSummary, error) {
	var (
		avg   sql.NullFloat64
		count int
		err   error
	)
	if collectionID != nil {
		err = q.db.QueryRowContext(ctx, `
			SELECT AVG(rating)::float8, COUNT(rating)
			FROM user_ratings
			WHERE catalog_item_id = $1 AND rating IS NOT NULL
			  AND user_id IN (SELECT user_id FROM memberships WHERE collection_id = $2)`,
			itemID, *collectionID).Scan(&avg, &count)
	} else {
		err = q.db.QueryRowContext(ctx, `
			SELECT AVG(rating)::float8, COUNT(rating)
			FROM user_ratings
			WHERE catalog_item_id = $1 AND rating IS NOT NULL`,
			itemID).Scan(&avg, &count)
	}
	if err != nil {
		return models.RatingSummary{}, err
	}

	summary := models.RatingSummary{Count: count}
	if avg.Valid {
		summary.Average = &avg.Float64
	}
	return summary, nil
}
