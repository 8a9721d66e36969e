package probe

import (
	"context"
	"sync"

	"github.com/raoulx24/snapkeep/internal/logging"
)

// Monitor polls a Probe and calls onExit once per running to not-running
// transition. A target that was never seen running never fires.
type Monitor struct {
	probe  Probe
	log    logging.Logger
	onExit func(context.Context)

	mu      sync.Mutex
	running bool
}

func NewMonitor(p Probe, log logging.Logger, onExit func(context.Context)) *Monitor {
	return &Monitor{probe: p, log: log, onExit: onExit}
}

// Poll asks the probe once and reports whether an exit was detected.
// A probe error counts as no change.
func (m *Monitor) Poll(ctx context.Context) bool {
	m.mu.Lock()
	p := m.probe
	m.mu.Unlock()

	running, err := p.IsTargetRunning(ctx)
	if err != nil {
		m.log.Warn("probe: check failed", "error", err)
		return false
	}

	m.mu.Lock()
	was := m.running
	m.running = running
	m.mu.Unlock()

	switch {
	case running && !was:
		m.log.Info("probe: target process started")
	case !running && was:
		m.log.Info("probe: target process exited")
		m.onExit(ctx)
		return true
	}
	return false
}

// Running reports the last observed status.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// SetProbe swaps the probe, e.g. after the process name changed. The last
// observed status is forgotten so a new name cannot fire a stale exit.
func (m *Monitor) SetProbe(p Probe) {
	m.mu.Lock()
	m.probe = p
	m.running = false
	m.mu.Unlock()
}
