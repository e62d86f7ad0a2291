// Package services – reload scheduler
//
// This file implements the optional periodic reload loop. When an interval
// is configured the scheduler triggers a full ReloadAll on every tick;
// providers still mid-cycle from the previous tick simply report busy and
// are skipped. A zero interval disables the loop entirely (reloads are then
// operator-triggered only).
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler periodically triggers full reload cycles.
type Scheduler struct {
	// Reloader runs the cycles; normally the ReloadService.
	Reloader interface {
		ReloadAll(ctx context.Context) ([]ReloadResult, error)
	}
	// Interval between full reloads. Zero disables the scheduler.
	Interval time.Duration
}

// Run blocks until ctx is canceled, triggering ReloadAll every Interval.
// It returns immediately when the interval is zero. An initial reload runs
// right away so a fresh deployment does not serve an empty catalog until the
// first tick.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Interval <= 0 {
		log.Info().Msg("reload scheduler disabled")
		return
	}

	log.Info().Dur("interval", s.Interval).Msg("reload scheduler started")
	s.tick(ctx)

	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reload scheduler stopped")
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.Reloader.ReloadAll(ctx); err != nil {
		log.Error().Err(err).Msg("scheduled reload failed")
	}
}
