package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/snapkeep/internal/logging"
)

// Cadence runs periodic jobs: the countdown tick and the process poll.
// Each job runs on its own goroutine and a job still running when its next
// slot comes up is skipped rather than stacked.
type Cadence struct {
	cron *cron.Cron
}

func NewCadence(log logging.Logger) *Cadence {
	l := cronLogger{log: log}
	return &Cadence{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

// Every schedules job at a fixed delay. Delays under a second are rounded
// up to one second.
func (c *Cadence) Every(d time.Duration, job func()) cron.EntryID {
	return c.cron.Schedule(cron.Every(d), cron.FuncJob(job))
}

// Entries is the number of scheduled jobs.
func (c *Cadence) Entries() int {
	return len(c.cron.Entries())
}

func (c *Cadence) Start() {
	c.cron.Start()
}

// Stop stops scheduling; the returned context is done once running jobs
// have returned.
func (c *Cadence) Stop() context.Context {
	return c.cron.Stop()
}

// DriveTicks feeds the scheduler a clock tick every interval.
func (c *Cadence) DriveTicks(ctx context.Context, s *Scheduler, every time.Duration) cron.EntryID {
	return c.Every(every, func() {
		if ctx.Err() != nil {
			return
		}
		_, _ = s.OnClockTick(ctx, s.clock.Now())
	})
}

type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug("cron: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error("cron: "+msg, append(kv, "error", err)...)
}
