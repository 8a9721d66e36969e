package api

import (
	"time"

	"github.com/raoulx24/snapkeep/internal/scheduler"
	"github.com/raoulx24/snapkeep/internal/snapshot"
	"github.com/raoulx24/snapkeep/internal/store"
)

type statusView struct {
	Phase            scheduler.Phase   `json:"phase"`
	IntervalMinutes  int               `json:"intervalMinutes"`
	NextFireAt       time.Time         `json:"nextFireAt"`
	LastBackupAt     string            `json:"lastBackupAt"`
	CountdownSeconds int64             `json:"countdownSeconds"`
	BackupInProgress bool              `json:"backupInProgress"`
	LastTrigger      scheduler.Trigger `json:"lastTrigger,omitempty"`
	LastError        string            `json:"lastError,omitempty"`
	TargetRunning    *bool             `json:"targetRunning,omitempty"`
	Source           string            `json:"source"`
	Destination      string            `json:"destination"`
	MaxSnapshots     int               `json:"maxSnapshots"`
	MaxAgeSeconds    int64             `json:"maxAgeSeconds,omitempty"`
}

func (h *handler) statusOf(st scheduler.State) statusView {
	p := h.opts.Engine.Paths()
	v := statusView{
		Phase:            st.Phase(),
		IntervalMinutes:  st.IntervalMinutes,
		NextFireAt:       st.NextFireAt,
		LastBackupAt:     lastBackup(st.LastBackupAt),
		CountdownSeconds: int64(st.Countdown(h.opts.Now()) / time.Second),
		BackupInProgress: st.BackupInProgress,
		LastTrigger:      st.LastTrigger,
		LastError:        st.LastError,
		Source:           p.Source,
		Destination:      p.Destination,
	}
	if h.opts.Retention != nil {
		pol := h.opts.Retention.Policy()
		v.MaxSnapshots = pol.MaxSnapshots
		v.MaxAgeSeconds = int64(pol.MaxAge / time.Second)
	}
	if h.opts.TargetRunning != nil {
		running := h.opts.TargetRunning()
		v.TargetRunning = &running
	}
	return v
}

func lastBackup(t time.Time) string {
	if t.IsZero() {
		return store.Never
	}
	return t.Format(time.RFC3339)
}

type snapshotView struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	ModTime   time.Time `json:"modTime"`
	Size      int64     `json:"sizeBytes,omitempty"`
}

func snapshotOf(r snapshot.Record) snapshotView {
	return snapshotView{
		Name:      r.Name(),
		Path:      r.Path,
		CreatedAt: r.CreatedAt,
		ModTime:   r.ModTime,
		Size:      r.Size,
	}
}

func snapshotsOf(recs []snapshot.Record) []snapshotView {
	out := make([]snapshotView, 0, len(recs))
	for _, r := range recs {
		out = append(out, snapshotOf(r))
	}
	return out
}

type outcomeView struct {
	Trigger     scheduler.Trigger `json:"trigger"`
	Snapshot    *snapshotView     `json:"snapshot,omitempty"`
	Pruned      []snapshotView    `json:"pruned"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt time.Time         `json:"completedAt"`
	NextFireAt  time.Time         `json:"nextFireAt"`
}

func outcomeOf(o *scheduler.Outcome) outcomeView {
	v := outcomeView{
		Trigger:     o.Trigger,
		Pruned:      snapshotsOf(o.Pruned),
		StartedAt:   o.StartedAt,
		CompletedAt: o.CompletedAt,
		NextFireAt:  o.NextFireAt,
	}
	if o.Record.Path != "" {
		s := snapshotOf(o.Record)
		v.Snapshot = &s
	}
	return v
}
