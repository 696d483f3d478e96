package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler runs cache and session housekeeping on the configured schedule.
func (a *App) StartScheduler() error {
	schedule := a.Config.Cache.SweepSchedule
	if schedule == "" {
		schedule = "@every 10m"
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, a.housekeeping); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	a.scheduler = c

	a.Logger.Info().Str("schedule", schedule).Msg("Housekeeping scheduler started")
	return nil
}

// housekeeping drops expired cache entries and idle sessions.
func (a *App) housekeeping() {
	start := time.Now()
	expired := a.Cache.Sweep()
	sessions := a.Sessions.Sweep(a.Config.Session.GetTTL())

	a.Logger.Debug().
		Int("cache_expired", expired).
		Int("sessions_expired", sessions).
		Int("sessions_live", a.Sessions.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Housekeeping complete")
}
