// Package watchlist is the collaborative watchlist engine: shared
// collections of catalog items, per-user watch progress and ratings, and
// membership-scoped aggregate views. Callers arrive pre-authenticated; the
// engine enforces membership, capacity, and rating consistency rules.
package watchlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/whirlwatch/whirlwatch/internal/config"
	"github.com/whirlwatch/whirlwatch/internal/models"
)

// Notifier receives change events for fan-out to connected clients. A nil
// notifier is fine; events are best-effort.
type Notifier interface {
	Broadcast(event string, data interface{})
}

type Service struct {
	store    Store
	limits   config.Limits
	cleaner  Cleaner
	notifier Notifier
}

func New(store Store, limits config.Limits) *Service {
	return &Service{store: store, limits: limits}
}

// SetCleaner installs a deferred orphan-cleanup scheduler (the asynq-backed
// one in production). Without one, cleanup runs synchronously right after the
// triggering transaction commits.
func (s *Service) SetCleaner(c Cleaner) { s.cleaner = c }

func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// Limits reports the capacity constants so callers can pre-validate.
func (s *Service) Limits() config.Limits { return s.limits }

func (s *Service) broadcast(event string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(event, data)
	}
}

// requireMember returns the actor's role in the collection, or ErrForbidden.
func requireMember(ctx context.Context, q Querier, collectionID, userID uuid.UUID) (models.MemberRole, error) {
	role, ok, err := q.GetMemberRole(ctx, collectionID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("user %s is not a member of collection %s: %w", userID, collectionID, ErrForbidden)
	}
	return role, nil
}

func getCollection(ctx context.Context, q Querier, id uuid.UUID) (*models.Collection, error) {
	c, err := q.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("collection %s: %w", id, ErrNotFound)
	}
	return c, nil
}
