// Package widget implements the performance summary widget: a renderer that
// hands out a panel immediately and fills it once the performance document
// has been retrieved, and the registry a dashboard host mounts widgets from.
package widget

import (
	"context"
	"fmt"
	"time"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/ethpandaops/perfsummary/pkg/document"
	"github.com/ethpandaops/perfsummary/pkg/source"
	"github.com/ethpandaops/perfsummary/pkg/view"
	"github.com/sirupsen/logrus"
)

// Renderer produces a panel for the host. Render must not block on I/O.
type Renderer interface {
	Render(ctx context.Context) *Panel
}

// Compile-time interface check.
var _ Renderer = (*SummaryRenderer)(nil)

// SummaryRenderer renders the performance summary panel.
type SummaryRenderer struct {
	log          logrus.FieldLogger
	src          source.Source
	id           string
	documentPath string
	timeout      time.Duration
	metrics      *Metrics
}

// NewSummaryRenderer creates a renderer reading cfg.DocumentPath from src.
// metrics may be nil.
func NewSummaryRenderer(
	log logrus.FieldLogger,
	src source.Source,
	cfg *config.WidgetConfig,
	metrics *Metrics,
) (*SummaryRenderer, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	return &SummaryRenderer{
		log:          log.WithField("component", "summary-renderer"),
		src:          src,
		id:           cfg.ID,
		documentPath: cfg.DocumentPath,
		timeout:      timeout,
		metrics:      metrics,
	}, nil
}

// Render returns a loading panel and retrieves the document in the
// background. The panel settles exactly once, to either the tile grid or
// the fallback message. Failures are logged, never returned.
func (r *SummaryRenderer) Render(ctx context.Context) *Panel {
	panel := newPanel(r.id)

	go r.load(ctx, panel, time.Now())

	return panel
}

func (r *SummaryRenderer) load(ctx context.Context, panel *Panel, start time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(panel, start, document.NewRetrievalError(
				"rendering performance widget", fmt.Errorf("panic: %v", rec),
			))
		}
	}()

	doc, err := r.fetch(ctx)
	if err != nil {
		r.fail(panel, start, err)

		return
	}

	if !panel.settle(StateRendered, view.BuildPanel(view.NewSummary(doc)), nil) {
		r.log.WithField("widget", r.id).Debug("Panel discarded before settlement")

		return
	}

	r.metrics.observe(r.id, OutcomeRendered, time.Since(start))

	r.log.WithField("widget", r.id).
		WithField("total_steps", doc.Stats.TotalSteps).
		WithField("duration", time.Since(start)).
		Debug("Performance widget rendered")
}

// fail settles panel to the fallback. Only a failure the user sees is
// logged as a warning.
func (r *SummaryRenderer) fail(panel *Panel, start time.Time, err error) {
	log := r.log.WithError(err).
		WithField("widget", r.id).
		WithField("source", r.src.Describe())

	if !panel.settle(StateFallback, view.BuildFallback(), err) {
		log.Debug("Panel discarded before settlement")

		return
	}

	r.metrics.observe(r.id, OutcomeFallback, time.Since(start))

	log.Warn("Error loading performance widget")
}

// fetch retrieves and decodes the document. Every error is a RetrievalError.
func (r *SummaryRenderer) fetch(ctx context.Context) (*document.Document, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, err := r.src.Get(ctx, r.documentPath)
	if err != nil {
		return nil, document.NewRetrievalError("fetching "+r.documentPath, err)
	}

	return document.Decode(data)
}
