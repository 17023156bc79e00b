package http

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/quakehub/internal/domain"
	"github.com/go-chi/chi/v5"
)

const rawExtraKey = "raw"

type eventAPI struct {
	snapshots SnapshotReader
	cfg       APIConfig
	logger    *slog.Logger
}

func (a *eventAPI) routes(r chi.Router) {
	r.Get("/events", a.listEvents)
	r.Get("/events/latest", a.latestEvent)
	r.Get("/events/{eventID}", a.getEvent)
	r.Get("/summary", a.summary)
}

// eventView is an event as served by the API, with the distance from the
// configured origin computed on demand.
type eventView struct {
	domain.Event
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

type listResponse struct {
	CycleID     string      `json:"cycle_id,omitempty"`
	RefreshedAt *time.Time  `json:"refreshed_at"`
	Count       int         `json:"count"`
	Events      []eventView `json:"events"`
}

type summaryResponse struct {
	RefreshedAt *time.Time `json:"refreshed_at"`
	Window      string     `json:"window"`
	Latest      *eventView `json:"latest"`
	Strongest   *eventView `json:"strongest"`
	Count       int        `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// listEvents serves the current snapshot. Query params: limit (default all)
// and include_raw=true to keep the original feed payloads.
func (a *eventAPI) listEvents(w http.ResponseWriter, r *http.Request) {
	snap, _ := a.snapshots.Load()
	events := snap.Events

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		if n < len(events) {
			events = events[:n]
		}
	}

	includeRaw := r.URL.Query().Get("include_raw") == "true"
	views := make([]eventView, len(events))
	for i, e := range events {
		views[i] = a.view(e, includeRaw)
	}

	writeJSON(w, http.StatusOK, listResponse{
		CycleID:     snap.CycleID,
		RefreshedAt: refreshedAt(snap),
		Count:       len(views),
		Events:      views,
	})
}

func (a *eventAPI) latestEvent(w http.ResponseWriter, _ *http.Request) {
	snap, _ := a.snapshots.Load()
	s := domain.Summarize(snap.Events, a.cfg.SummaryWindow)
	if s.Latest == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no events"})
		return
	}
	writeJSON(w, http.StatusOK, a.view(*s.Latest, false))
}

func (a *eventAPI) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventID")
	snap, _ := a.snapshots.Load()
	for _, e := range snap.Events {
		if e.ID == id {
			writeJSON(w, http.StatusOK, a.view(e, true))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "event not found"})
}

// summary serves latest, strongest and count. window overrides the
// configured trailing window, e.g. ?window=6h.
func (a *eventAPI) summary(w http.ResponseWriter, r *http.Request) {
	window := a.cfg.SummaryWindow
	if s := r.URL.Query().Get("window"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "window must be a positive duration"})
			return
		}
		window = d
	}

	snap, _ := a.snapshots.Load()
	s := domain.Summarize(snap.Events, window)

	resp := summaryResponse{
		RefreshedAt: refreshedAt(snap),
		Window:      window.String(),
		Count:       s.Count,
	}
	if s.Latest != nil {
		v := a.view(*s.Latest, false)
		resp.Latest = &v
	}
	if s.Strongest != nil {
		v := a.view(*s.Strongest, false)
		resp.Strongest = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *eventAPI) view(e domain.Event, includeRaw bool) eventView {
	if !includeRaw {
		if _, ok := e.Extra[rawExtraKey]; ok {
			extra := make(map[string]any, len(e.Extra))
			for k, v := range e.Extra {
				if k != rawExtraKey {
					extra[k] = v
				}
			}
			e.Extra = extra
		}
	}
	v := eventView{Event: e}
	if d, ok := domain.DistanceFrom(a.cfg.Origin, e); ok {
		rounded := math.Round(d*10) / 10
		v.DistanceKm = &rounded
	}
	return v
}

func refreshedAt(snap domain.Snapshot) *time.Time {
	if snap.RefreshedAt.IsZero() {
		return nil
	}
	t := snap.RefreshedAt
	return &t
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}
