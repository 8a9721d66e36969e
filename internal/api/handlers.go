package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/raoulx24/snapkeep/internal/scheduler"
	"github.com/raoulx24/snapkeep/internal/snapshot"
	"github.com/raoulx24/snapkeep/internal/worker"
)

type handler struct {
	opts Options
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.opts.Log.Warn("api: writing response failed", "error", err)
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.statusOf(h.opts.Engine.State()))
}

// backup runs a manual backup and waits for it. A disconnecting client
// does not abort the copy.
func (h *handler) backup(w http.ResponseWriter, r *http.Request) {
	out, err := h.opts.Engine.OnManualTrigger(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, worker.ErrSourceNotFound):
		h.writeError(w, http.StatusUnprocessableEntity, err)
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, err)
	default:
		h.writeJSON(w, http.StatusOK, outcomeOf(out))
	}
}

type intervalPayload struct {
	Minutes int `json:"minutes"`
}

func (h *handler) setInterval(w http.ResponseWriter, r *http.Request) {
	var p intervalPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := h.opts.Engine.SetInterval(r.Context(), p.Minutes); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.statusOf(h.opts.Engine.State()))
}

type retentionPayload struct {
	MaxSnapshots int `json:"maxSnapshots"`
}

type retentionResponse struct {
	MaxSnapshots int            `json:"maxSnapshots"`
	Pruned       []snapshotView `json:"pruned"`
	Error        string         `json:"error,omitempty"`
}

func (h *handler) setRetention(w http.ResponseWriter, r *http.Request) {
	var p retentionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	pruned, err := h.opts.Engine.SetRetention(context.WithoutCancel(r.Context()), p.MaxSnapshots)
	if errors.Is(err, scheduler.ErrInvalidRetention) {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	// the limit is in force; a failed removal is reported, not fatal
	resp := retentionResponse{MaxSnapshots: p.MaxSnapshots, Pruned: snapshotsOf(pruned)}
	if err != nil {
		resp.Error = err.Error()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type pathsPayload struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (h *handler) setPaths(w http.ResponseWriter, r *http.Request) {
	var p pathsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := h.opts.Engine.SetPaths(r.Context(), scheduler.Paths{Source: p.Source, Destination: p.Destination}); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.statusOf(h.opts.Engine.State()))
}

// snapshots lists conforming snapshots, newest first. A missing
// destination root is an empty list.
func (h *handler) snapshots(w http.ResponseWriter, r *http.Request) {
	root := h.opts.Engine.Paths().Destination
	if _, err := h.opts.FS.Stat(root); err != nil {
		h.writeJSON(w, http.StatusOK, []snapshotView{})
		return
	}

	recs, err := snapshot.List(h.opts.FS, root)
	if err != nil {
		h.opts.Log.Error("api: listing snapshots failed", "root", root, "error", err)
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	slices.Reverse(recs)
	h.writeJSON(w, http.StatusOK, snapshotsOf(recs))
}

func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	if h.opts.Events == nil {
		h.writeJSON(w, http.StatusOK, []any{})
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 1000 {
			h.writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	events, err := h.opts.Events.RecentEvents(r.Context(), limit)
	if err != nil {
		h.opts.Log.Error("api: reading events failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		h.writeJSON(w, http.StatusOK, []any{})
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}
