package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RefreshFunc runs one full metrics refresh.
type RefreshFunc func(ctx context.Context) error

// Scheduler triggers periodic metrics refreshes on a cron spec.
type Scheduler struct {
	Cron    *cron.Cron
	refresh RefreshFunc
	ctx     context.Context
}

// New creates a Scheduler. The context is handed to every triggered
// refresh so shutdown cancels in-flight work.
func New(ctx context.Context, refresh RefreshFunc) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		refresh: refresh,
		ctx:     ctx,
	}
}

// Register schedules the refresh under a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.runRefresh); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron loop and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow triggers a refresh immediately, outside the cron schedule.
func (s *Scheduler) RunNow() {
	s.runRefresh()
}

func (s *Scheduler) runRefresh() {
	log.Info().Msg("running scheduled refresh")
	if err := s.refresh(s.ctx); err != nil {
		log.Error().Err(err).Msg("scheduled refresh failed")
	}
}
