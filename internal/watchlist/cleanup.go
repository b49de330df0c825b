package watchlist

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Cleaner defers orphan-rating cleanup until after the transaction that made
// the ratings orphan candidates has committed. The production implementation
// enqueues an asynq task; when none is installed the service runs the
// cleanup inline, still strictly after commit.
type Cleaner interface {
	Schedule(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID)
}

// scheduleCleanup is called only after a successful commit.
func (s *Service) scheduleCleanup(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) {
	if len(itemIDs) == 0 {
		return
	}
	if s.cleaner != nil {
		s.cleaner.Schedule(ctx, userID, itemIDs)
		return
	}
	if _, err := s.RunOrphanCleanup(ctx, userID, itemIDs); err != nil {
		log.Printf("[cleanup] inline orphan cleanup for user %s: %v", userID, err)
	}
}

// RunOrphanCleanup deletes each of the user's ratings for the given items
// that no surviving collection entry justifies. Each delete re-checks the
// orphan condition against current state, so a rating referenced by a
// concurrently added entry is left alone. Returns how many were deleted.
func (s *Service) RunOrphanCleanup(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int, error) {
	deleted := 0
	for _, itemID := range itemIDs {
		ok, err := s.store.DeleteRatingIfOrphan(ctx, userID, itemID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// SweepOrphans removes every orphaned rating in the store. Backstop for
// cleanup work lost between a commit and its deferred task.
func (s *Service) SweepOrphans(ctx context.Context) (int64, error) {
	return s.store.DeleteAllOrphanRatings(ctx)
}
