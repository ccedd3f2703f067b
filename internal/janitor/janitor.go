// Package janitor runs the periodic maintenance jobs: pruning stale live
// positions and logging store statistics.
package janitor

import (
	"context"
	"log"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/drawspace-ai/canvasd/internal/live"
)

// Janitor schedules background maintenance over the live hub.
type Janitor struct {
	hub    *live.Hub
	maxAge time.Duration
	cron   *rcron.Cron

	// ReportStats is called on the hourly tick after pruning; nil skips
	// the stats log line.
	ReportStats func(ctx context.Context)
}

// New builds a janitor pruning live entries older than maxAge.
func New(hub *live.Hub, maxAge time.Duration) *Janitor {
	return &Janitor{hub: hub, maxAge: maxAge}
}

// Start registers the hourly sweep and begins scheduling. Stop it via the
// returned context pattern in Stop.
func (j *Janitor) Start(ctx context.Context) error {
	j.cron = rcron.New()

	if _, err := j.cron.AddFunc("@hourly", func() { j.sweep(ctx) }); err != nil {
		return err
	}

	j.cron.Start()
	log.Printf("[janitor] started, pruning entries older than %s", j.maxAge)

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

func (j *Janitor) sweep(ctx context.Context) {
	removed := j.hub.Prune(j.maxAge)
	canvases, objects, clients := j.hub.Stats()
	log.Printf("[janitor] pruned %d stale positions (%d canvases, %d objects, %d clients live)",
		removed, canvases, objects, clients)

	if j.ReportStats != nil {
		j.ReportStats(ctx)
	}
}

// Stop halts scheduling and waits for any running sweep.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}
