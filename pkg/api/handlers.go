package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethpandaops/perfsummary/pkg/view"
	"github.com/ethpandaops/perfsummary/pkg/widget"
	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardTitle = "Test Report Dashboard"

	// widgetStateHeader carries the panel state of a rendered fragment.
	widgetStateHeader = "X-Widget-State"

	maxConcurrentRenders = 8
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// widgetResponse describes a registered widget.
type widgetResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListWidgets returns the registered widgets in mount order.
func (s *server) handleListWidgets(w http.ResponseWriter, _ *http.Request) {
	regs := s.registry.List()

	resp := make([]widgetResponse, 0, len(regs))
	for _, reg := range regs {
		resp = append(resp, widgetResponse{ID: reg.ID, Title: reg.Title})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleWidget renders a single widget and writes its HTML fragment.
func (s *server) handleWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reg, ok := s.registry.Lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{"widget not found"})

		return
	}

	panel := s.renderAndWait(r.Context(), reg)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(widgetStateHeader, panel.State().String())
	w.WriteHeader(http.StatusOK)

	if err := panel.Render(w); err != nil {
		s.log.WithError(err).WithField("widget", id).Debug("Failed to write widget")
	}
}

// handleDashboard renders every registered widget concurrently and mounts
// the panels into one page in registration order.
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	regs := s.registry.List()
	panels := make([]*widget.Panel, len(regs))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(maxConcurrentRenders)

	for i, reg := range regs {
		g.Go(func() error {
			panels[i] = s.renderAndWait(ctx, reg)

			return nil
		})
	}

	_ = g.Wait()

	nodes := make([]*html.Node, 0, len(panels))
	for _, p := range panels {
		nodes = append(nodes, p.Node())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if err := view.Render(w, view.BuildPage(dashboardTitle, nodes)); err != nil {
		s.log.WithError(err).Debug("Failed to write dashboard")
	}
}

// renderAndWait renders reg and waits until the panel settles or ctx ends.
// A panel still loading when ctx ends is discarded and returned as is.
func (s *server) renderAndWait(ctx context.Context, reg widget.Registration) *widget.Panel {
	panel := reg.Renderer.Render(ctx)

	if err := panel.Wait(ctx); err != nil {
		panel.Discard()

		s.log.WithError(err).
			WithField("widget", reg.ID).
			Debug("Request ended before widget settled")
	}

	return panel
}
