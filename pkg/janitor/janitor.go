// Package janitor removes stale downloads and exports from the working
// directory on a cron schedule.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/tinyland-inc/dokbot/pkg/logger"
	"github.com/tinyland-inc/dokbot/pkg/workdir"
)

// Report summarizes one sweep.
type Report struct {
	Removed int
	Kept    int
	Bytes   int64
}

// Sweep deletes files in dir last modified more than maxAge before now.
// A zero maxAge removes everything older than now.
func Sweep(dir *workdir.Dir, maxAge time.Duration, now time.Time) (Report, error) {
	var rep Report
	entries, err := dir.List()
	if err != nil {
		return rep, fmt.Errorf("list %s: %w", dir.Path(), err)
	}

	cutoff := now.Add(-maxAge)
	for _, e := range entries {
		if !e.ModTime.Before(cutoff) {
			rep.Kept++
			continue
		}
		if err := dir.Remove(e.Path); err != nil {
			logger.WarnCF("janitor", "Failed to remove stale file", map[string]any{"path": e.Path, "error": err.Error()})
			rep.Kept++
			continue
		}
		rep.Removed++
		rep.Bytes += e.Size
	}
	return rep, nil
}

type Janitor struct {
	dir      *workdir.Dir
	schedule string
	maxAge   time.Duration
	now      func() time.Time
}

// New validates schedule, a cron expression or macro such as "@hourly".
func New(dir *workdir.Dir, schedule string, maxAge time.Duration) (*Janitor, error) {
	if !gronx.New().IsValid(schedule) {
		return nil, fmt.Errorf("invalid janitor schedule %q", schedule)
	}
	return &Janitor{dir: dir, schedule: schedule, maxAge: maxAge, now: time.Now}, nil
}

// Next returns the first tick strictly after ref.
func (j *Janitor) Next(ref time.Time) (time.Time, error) {
	return gronx.NextTickAfter(j.schedule, ref, false)
}

// SweepNow runs one sweep and logs the outcome.
func (j *Janitor) SweepNow() (Report, error) {
	rep, err := Sweep(j.dir, j.maxAge, j.now())
	if err != nil {
		logger.ErrorCF("janitor", "Sweep failed", map[string]any{"error": err.Error()})
		return rep, err
	}
	logger.InfoCF("janitor", "Sweep finished", map[string]any{
		"removed": rep.Removed,
		"kept":    rep.Kept,
		"bytes":   rep.Bytes,
	})
	return rep, nil
}

// Run sweeps on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	for {
		next, err := j.Next(j.now())
		if err != nil {
			return fmt.Errorf("next janitor tick: %w", err)
		}
		logger.DebugCF("janitor", "Next sweep scheduled", map[string]any{"at": next.Format(time.RFC3339)})

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		_, _ = j.SweepNow()
	}
}
