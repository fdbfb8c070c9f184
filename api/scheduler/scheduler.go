package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-records-api/databases"
	"github.com/linesmerrill/police-records-api/models"
)

// ActionExpired is the change action announced for a bolo past its expiry
const ActionExpired = "Expired"

// ExpiredBolos lists Active bolos whose advisory expiry has passed
type ExpiredBolos interface {
	ExpiredActive(ctx context.Context) ([]models.Bolo, error)
}

// Notifier receives expiry announcements, typically the change feed hub
type Notifier interface {
	Publish(change models.Change)
}

// Scheduler runs the periodic bolo expiry sweep. Expiry is advisory, so the
// sweep never changes a bolo; it announces each newly expired bolo once.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	bolos    ExpiredBolos
	notify   Notifier
	now      func() time.Time

	mu        sync.Mutex
	announced map[string]time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(schedule string, bolos ExpiredBolos, notify Notifier) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		schedule:  schedule,
		bolos:     bolos,
		notify:    notify,
		now:       time.Now,
		announced: make(map[string]time.Time),
	}
}

// Start registers the sweep and begins the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		zap.S().Errorw("failed to register bolo expiry job", "schedule", s.schedule, "error", err)
		return err
	}
	s.cron.Start()
	zap.S().Infow("Bolo expiry scheduler started", "schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Bolo expiry scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		zap.S().Errorw("bolo expiry sweep failed", "error", err)
	}
}

// Sweep announces every expired Active bolo not announced before and
// returns how many were announced.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	expired, err := s.bolos.ExpiredActive(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := make(map[string]struct{}, len(expired))
	for _, b := range expired {
		current[b.ID] = struct{}{}
	}
	for id := range s.announced {
		if _, ok := current[id]; !ok {
			delete(s.announced, id)
		}
	}

	count := 0
	for _, b := range expired {
		if b.ExpiresAt == nil {
			continue
		}
		if at, ok := s.announced[b.ID]; ok && at.Equal(*b.ExpiresAt) {
			continue
		}
		s.announced[b.ID] = *b.ExpiresAt
		if s.notify != nil {
			s.notify.Publish(models.Change{
				Type:   databases.BoloCollection,
				ID:     b.ID,
				Action: ActionExpired,
				At:     s.now().UTC(),
			})
		}
		count++
	}
	if count > 0 {
		zap.S().Infow("announced expired bolos", "count", count)
	}
	return count, nil
}
