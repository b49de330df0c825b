package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/whirlwatch/whirlwatch/internal/watchlist"
)

// Scheduler runs the periodic orphan-rating sweep. The sweep is a backstop
// for cleanup tasks lost between commit and enqueue; per-event cleanup is
// handled by the job queue.
type Scheduler struct {
	cron *cron.Cron
	svc  *watchlist.Service
}

func New(svc *watchlist.Service) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		svc:  svc,
	}
}

// Start registers the sweep at the given cron schedule and begins running.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] orphan sweep scheduled (%s)", schedule)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	deleted, err := s.svc.SweepOrphans(ctx)
	if err != nil {
		log.Printf("[scheduler] orphan sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[scheduler] orphan sweep removed %d ratings", deleted)
	}
}
