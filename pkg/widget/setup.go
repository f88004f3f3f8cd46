package widget

import (
	"fmt"

	"github.com/ethpandaops/perfsummary/pkg/config"
	"github.com/ethpandaops/perfsummary/pkg/source"
	"github.com/sirupsen/logrus"
)

// NewRegistryFromConfig creates the document source described by cfg and
// returns a registry holding the summary widget. metrics may be nil.
func NewRegistryFromConfig(
	log logrus.FieldLogger,
	cfg *config.Config,
	metrics *Metrics,
) (*Registry, error) {
	maxBytes, err := cfg.Widget.MaxDocumentBytes()
	if err != nil {
		return nil, fmt.Errorf("widget: %w", err)
	}

	src, err := source.New(log, &cfg.Source, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("creating source: %w", err)
	}

	renderer, err := NewSummaryRenderer(log, src, &cfg.Widget, metrics)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	reg := NewRegistry()
	if err := reg.Register(cfg.Widget.ID, cfg.Widget.Title, renderer); err != nil {
		return nil, err
	}

	log.WithField("widget", cfg.Widget.ID).
		WithField("source", src.Describe()).
		Info("Widget registered")

	return reg, nil
}
