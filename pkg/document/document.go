// Package document decodes the precomputed performance summary written by
// the metrics-aggregation pipeline into widgets/performance-widget.json.
package document

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// MaxCacheHitRate is the upper bound of the cache hit percentage.
const MaxCacheHitRate = 100.0

// MaxValue bounds every timing. Values from 2^63 up do not fit the integer
// display values the panel rounds to.
const MaxValue = float64(math.MaxInt64)

// Document is a validated performance summary. It is never mutated after
// Decode returns.
type Document struct {
	// Name is the producer's widget name, usually "performance".
	Name         string
	Averages     Averages
	Stats        Stats
	CacheHitRate float64
}

// Averages holds the suite-wide average timings in milliseconds.
type Averages struct {
	PageLoadTime     float64
	DomReadyTime     float64
	Ttfb             float64
	ResponseTime     float64
	ConnectTime      float64
	DomainLookupTime float64
}

// Stats holds suite-wide counters.
type Stats struct {
	TotalSteps int64
	// TotalScenarios is optional and zero when the producer omits it.
	TotalScenarios int64
}

// rawDocument mirrors the wire format. Pointers distinguish absent (or null)
// fields from zero values.
type rawDocument struct {
	Name         string       `json:"name"`
	Averages     *rawAverages `json:"averages"`
	Stats        *rawStats    `json:"stats"`
	CacheHitRate *float64     `json:"cacheHitRate"`
}

type rawAverages struct {
	PageLoadTime     *float64 `json:"avgPageLoadTime"`
	DomReadyTime     *float64 `json:"avgDomReadyTime"`
	Ttfb             *float64 `json:"avgTtfb"`
	ResponseTime     *float64 `json:"avgResponseTime"`
	ConnectTime      *float64 `json:"avgConnectTime"`
	DomainLookupTime *float64 `json:"avgDomainLookupTime"`
}

type rawStats struct {
	TotalSteps     *int64 `json:"totalSteps"`
	TotalScenarios *int64 `json:"totalScenarios"`
}

// Decode parses and validates a performance document. Any parse or shape
// error is returned as a RetrievalError.
func Decode(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewRetrievalError("decoding performance document", err)
	}

	doc, err := raw.validate()
	if err != nil {
		return nil, NewRetrievalError("validating performance document", err)
	}

	return doc, nil
}

func (r *rawDocument) validate() (*Document, error) {
	var missing []string

	avg := r.Averages
	if avg == nil {
		avg = &rawAverages{}
	}

	stats := r.Stats
	if stats == nil {
		stats = &rawStats{}
	}

	timings := []struct {
		name  string
		value *float64
	}{
		{"averages.avgPageLoadTime", avg.PageLoadTime},
		{"averages.avgDomReadyTime", avg.DomReadyTime},
		{"averages.avgTtfb", avg.Ttfb},
		{"averages.avgResponseTime", avg.ResponseTime},
		{"averages.avgConnectTime", avg.ConnectTime},
		{"averages.avgDomainLookupTime", avg.DomainLookupTime},
	}

	for _, f := range timings {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}

	if stats.TotalSteps == nil {
		missing = append(missing, "stats.totalSteps")
	}

	if r.CacheHitRate == nil {
		missing = append(missing, "cacheHitRate")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	for _, f := range timings {
		if err := checkNonNegative(f.name, *f.value); err != nil {
			return nil, err
		}
	}

	if *stats.TotalSteps < 0 {
		return nil, fmt.Errorf("stats.totalSteps must not be negative, got %d", *stats.TotalSteps)
	}

	if err := checkNonNegative("cacheHitRate", *r.CacheHitRate); err != nil {
		return nil, err
	}

	if *r.CacheHitRate > MaxCacheHitRate {
		return nil, fmt.Errorf("cacheHitRate must be at most %v, got %v", MaxCacheHitRate, *r.CacheHitRate)
	}

	doc := &Document{
		Name: r.Name,
		Averages: Averages{
			PageLoadTime:     *avg.PageLoadTime,
			DomReadyTime:     *avg.DomReadyTime,
			Ttfb:             *avg.Ttfb,
			ResponseTime:     *avg.ResponseTime,
			ConnectTime:      *avg.ConnectTime,
			DomainLookupTime: *avg.DomainLookupTime,
		},
		Stats: Stats{
			TotalSteps: *stats.TotalSteps,
		},
		CacheHitRate: *r.CacheHitRate,
	}

	if stats.TotalScenarios != nil {
		doc.Stats.TotalScenarios = *stats.TotalScenarios
	}

	return doc, nil
}

func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite", name)
	}

	if v < 0 {
		return fmt.Errorf("%s must not be negative, got %v", name, v)
	}

	if v >= MaxValue {
		return fmt.Errorf("%s exceeds the displayable range, got %v", name, v)
	}

	return nil
}
