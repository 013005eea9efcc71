// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bryanwahyu/seoscan/internal/logger"
)

const sweepTimeout = 30 * time.Second

// StaleFailer fails scans that stopped making progress.
type StaleFailer interface {
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Sweeper periodically fails PENDING/PROCESSING scans whose analysis was lost,
// e.g. to a restart. Runs never overlap.
type Sweeper struct {
	cron      *cron.Cron
	svc       StaleFailer
	olderThan time.Duration
	log       logger.Logger
}

// NewSweeper schedules the sweep. schedule accepts five-field cron specs and
// descriptors such as "@every 1m".
func NewSweeper(svc StaleFailer, schedule string, olderThan time.Duration, log logger.Logger) (*Sweeper, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if olderThan <= 0 {
		return nil, fmt.Errorf("scheduler: stale threshold must be positive, got %s", olderThan)
	}
	cl := cronLogger{log: log}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		cron.WithLogger(cl),
	)

	s := &Sweeper{cron: c, svc: svc, olderThan: olderThan, log: log}
	if _, err := c.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("stale scan sweeper started", logger.Duration("older_than", s.olderThan))
}

// Stop halts scheduling and waits for a running sweep, or for ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one sweep now.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	return s.svc.FailStale(ctx, s.olderThan)
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("stale scan sweep failed", logger.Error(err))
	}
}

// cronLogger routes cron's own messages into the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kv(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kv(keysAndValues), logger.Error(err))...)
}

func kv(pairs []any) []logger.Field {
	fields := make([]logger.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		fields = append(fields, logger.Any(key, pairs[i+1]))
	}
	return fields
}
