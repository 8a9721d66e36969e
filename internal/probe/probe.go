// Package probe tells whether the target process is running and turns
// polled answers into a single exit event.
package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Probe answers whether the target process is running right now.
type Probe interface {
	IsTargetRunning(ctx context.Context) (bool, error)
}

// ProcessProbe looks for a process by executable name. Matching ignores
// case and an ".exe" suffix, so "FC25.exe" also matches "fc25". An empty
// name never matches.
type ProcessProbe struct {
	Name string
}

func (p ProcessProbe) IsTargetRunning(ctx context.Context) (bool, error) {
	if p.Name == "" {
		return false, nil
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("listing processes: %w", err)
	}
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			// exited between listing and lookup, or not ours to inspect
			continue
		}
		if matchName(name, p.Name) {
			return true, nil
		}
	}
	return false, nil
}

func matchName(got, want string) bool {
	return want != "" && strings.EqualFold(trimExe(got), trimExe(want))
}

func trimExe(name string) string {
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".exe") {
		return name[:len(name)-4]
	}
	return name
}
