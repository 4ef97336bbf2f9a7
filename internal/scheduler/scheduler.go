// Package scheduler fires daily jobs at fixed wall-clock times.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/logger"
)

// slotTTL keeps a claimed slot long enough to cover clock skew between replicas.
const slotTTL = 25 * time.Hour

// Scheduler runs daily jobs. A job still running when its next slot comes due is
// skipped, and every slot fires at most once per day across processes sharing the guard.
type Scheduler struct {
	cron   *cron.Cron
	guard  SlotGuard
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func New(loc *time.Location, guard SlotGuard, l *zap.Logger) *Scheduler {
	cl := logger.CronLogger(l)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		guard:  guard,
		loc:    loc,
		now:    time.Now,
		logger: l,
	}
}

// AddDaily registers fn to run every day at hour:minute in the scheduler location.
func (s *Scheduler) AddDaily(ctx context.Context, name string, hour, minute int, fn func(ctx context.Context) error) error {
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(spec, func() { s.fire(ctx, name, fn) }); err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.logger.Info("job scheduled",
		zap.String("job", name),
		zap.String("at", fmt.Sprintf("%02d:%02d", hour, minute)),
		zap.String("location", s.loc.String()))
	return nil
}

// fire runs the job once for the current slot.
func (s *Scheduler) fire(ctx context.Context, name string, fn func(ctx context.Context) error) {
	slot := name + "@" + s.now().In(s.loc).Format("2006-01-02T15:04")

	ok, err := s.guard.Acquire(ctx, slot, slotTTL)
	if err != nil {
		s.logger.Error("failed to claim schedule slot", zap.String("slot", slot), zap.Error(err))
		return
	}
	if !ok {
		s.logger.Info("schedule slot already handled", zap.String("slot", slot))
		return
	}

	start := s.now()
	s.logger.Info("job started", zap.String("slot", slot))

	if err := fn(ctx); err != nil {
		s.logger.Error("job failed", zap.String("slot", slot), zap.Error(err))
		return
	}

	s.logger.Info("job finished",
		zap.String("slot", slot),
		zap.Duration("took", time.Since(start)))
}

// Run starts the scheduler and blocks until ctx is done and running jobs return.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
