package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/models"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

func (q *Queries) AddMembership(ctx context.Context, m *models.Membership) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO memberships (id, collection_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.CollectionID, m.UserID, m.Role, m.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("user %s already in collection %s: %w", m.UserID, m.CollectionID, watchlist.ErrAlreadyExists)
	}
	return err
}

// DeleteMembership removes a shared-access row. Owner rows are excluded;
// ownership only ends when the collection is deleted.
func (q *Queries) DeleteMembership(ctx context.Context, collectionID, userID uuid.UUID) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		DELETE FROM memberships
		WHERE collection_id = $1 AND user_id = $2 AND role = 'member'`,
		collectionID, userID)
	if err != nil {
		return false, err
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (q *Queries) GetMemberRole(ctx context.Context, collectionID, userID uuid.UUID) (models.MemberRole, bool, error) {
	var role models.MemberRole
	err := q.db.QueryRowContext(ctx, `
		SELECT role FROM memberships WHERE collection_id = $1 AND user_id = $2`,
		collectionID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

func (q *Queries) ListMembers(ctx context.Context, collectionID uuid.UUID) ([]watchlist.MemberInfo, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, m.role
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.collection_id = $1
		ORDER BY m.role = 'owner' DESC, m.created_at`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []watchlist.MemberInfo
	for rows.Next() {
		var mi watchlist.MemberInfo
		if err := rows.Scan(&mi.UserID, &mi.Username, &mi.Email, &mi.Role); err != nil {
			return nil, err
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}

func (q *Queries) CountMembers(ctx context.Context, collectionID uuid.UUID) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE collection_id = $1`, collectionID).Scan(&n)
	return n, err
}

// CountUserAssociations counts every collection the user is attached to,
// owned and shared alike, for the per-user quota.
func (q *Queries) CountUserAssociations(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
