// Package repository is the Postgres implementation of the watchlist store:
// hand-written SQL over database/sql, one transaction per engine operation.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/whirlwatch/whirlwatch/internal/db"
	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

// txTimeout bounds every unit of work so no store call blocks indefinitely.
const txTimeout = 10 * time.Second

// Queries runs SQL against either the pool or a transaction.
type Queries struct {
	db db.DBTX
}

func New(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

// Store is the watchlist.Store backed by Postgres. Auto-commit reads go
// through the embedded Queries; ExecTx scopes a unit of work to one
// transaction that fully commits or fully rolls back.
type Store struct {
	*Queries
	pool *sql.DB
}

func NewStore(pool *sql.DB) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

func (s *Store) ExecTx(ctx context.Context, fn func(q watchlist.Querier) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("tx err: %v, rollback err: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
