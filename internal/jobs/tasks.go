package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

// CleanupRatingsPayload identifies the ratings to re-check after a user loses
// access to a set of catalog items.
type CleanupRatingsPayload struct {
	UserID         uuid.UUID   `json:"user_id"`
	CatalogItemIDs []uuid.UUID `json:"catalog_item_ids"`
}

// CleanupHandler runs deferred orphan-rating checks off the request path.
type CleanupHandler struct {
	svc *watchlist.Service
}

func NewCleanupHandler(svc *watchlist.Service) *CleanupHandler {
	return &CleanupHandler{svc: svc}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	switch t.Type() {
	case TaskCleanupRatings:
		var p CleanupRatingsPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal cleanup payload: %w", err)
		}
		deleted, err := h.svc.RunOrphanCleanup(ctx, p.UserID, p.CatalogItemIDs)
		if err != nil {
			return err
		}
		if deleted > 0 {
			log.Printf("[jobs] removed %d orphaned ratings for user %s", deleted, p.UserID)
		}
		return nil
	case TaskSweepOrphans:
		deleted, err := h.svc.SweepOrphans(ctx)
		if err != nil {
			return err
		}
		if deleted > 0 {
			log.Printf("[jobs] sweep removed %d orphaned ratings", deleted)
		}
		return nil
	default:
		return fmt.Errorf("unexpected task type %q", t.Type())
	}
}

// QueueCleaner schedules cleanup through the job queue so the checks run
// after the enqueueing transaction has committed.
type QueueCleaner struct {
	queue *Queue
}

func NewQueueCleaner(queue *Queue) *QueueCleaner {
	return &QueueCleaner{queue: queue}
}

func (c *QueueCleaner) Schedule(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) {
	if len(itemIDs) == 0 {
		return
	}
	_, err := c.queue.Enqueue(TaskCleanupRatings, CleanupRatingsPayload{
		UserID:         userID,
		CatalogItemIDs: itemIDs,
	}, asynq.Queue("low"), asynq.MaxRetry(5))
	if err != nil {
		log.Printf("[jobs] enqueue cleanup for user %s: %v", userID, err)
	}
}
