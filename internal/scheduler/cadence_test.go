package scheduler

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/raoulx24/snapkeep/internal/logging"
)

func TestDriveTicksFiresDueBackupOnce(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, State{NextFireAt: t0})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cad := NewCadence(logging.Nop())
	cad.DriveTicks(ctx, f.s, time.Second)
	cad.Start()

	deadline := time.Now().Add(5 * time.Second)
	for f.exec.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	// one more tick: the countdown restarted, so nothing fires
	time.Sleep(1200 * time.Millisecond)
	<-cad.Stop().Done()

	c.Assert(f.exec.calls.Load(), qt.Equals, int32(1))
	c.Assert(f.s.State().NextFireAt, qt.Equals, t0.Add(30*time.Minute))
}
