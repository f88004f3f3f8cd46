// Package view turns a performance document into the panel's view model and
// builds the panel markup as an explicit node tree.
package view

import (
	"math"
	"strconv"

	"github.com/ethpandaops/perfsummary/pkg/document"
)

// Heading is the panel heading shown above the tiles.
const Heading = "⚡ Performance Summary"

// FallbackMessage replaces the tiles when no document could be loaded.
const FallbackMessage = "Performance data not available"

// Unit is the display suffix of a value.
type Unit string

const (
	UnitMillis  Unit = " ms"
	UnitPercent Unit = "%"
	UnitCount   Unit = ""
)

// Tile is one primary metric in the tile grid.
type Tile struct {
	Label string
	Value int64
	Unit  Unit
}

// Display returns the formatted value, e.g. "1235 ms" or "87%".
func (t Tile) Display() string {
	return strconv.FormatInt(t.Value, 10) + string(t.Unit)
}

// Line is one secondary metric below the tile grid.
type Line struct {
	Icon  string
	Label string
	Value int64
	Unit  Unit
}

// Display returns the line text without the icon, e.g. "Avg Connect: 12 ms".
func (l Line) Display() string {
	return l.Label + ": " + strconv.FormatInt(l.Value, 10) + string(l.Unit)
}

// Summary is the complete view model of a rendered panel: six tiles and two
// secondary lines, always in the same order.
type Summary struct {
	Heading   string
	Tiles     []Tile
	Secondary []Line
}

// Round rounds a metric for display, half away from zero.
func Round(v float64) int64 {
	return int64(math.Round(v))
}

// NewSummary derives the view model from a document. No value is derived
// beyond rounding for display; the total step count is shown as is.
func NewSummary(doc *document.Document) Summary {
	avg := doc.Averages

	return Summary{
		Heading: Heading,
		Tiles: []Tile{
			{Label: "Avg Page Load", Value: Round(avg.PageLoadTime), Unit: UnitMillis},
			{Label: "Avg DOM Ready", Value: Round(avg.DomReadyTime), Unit: UnitMillis},
			{Label: "Avg TTFB", Value: Round(avg.Ttfb), Unit: UnitMillis},
			{Label: "Avg Response", Value: Round(avg.ResponseTime), Unit: UnitMillis},
			{Label: "Total Steps", Value: doc.Stats.TotalSteps, Unit: UnitCount},
			{Label: "Cache Hit Rate", Value: Round(doc.CacheHitRate), Unit: UnitPercent},
		},
		Secondary: []Line{
			{Icon: "🔌", Label: "Avg Connect", Value: Round(avg.ConnectTime), Unit: UnitMillis},
			{Icon: "🌐", Label: "Avg DNS Lookup", Value: Round(avg.DomainLookupTime), Unit: UnitMillis},
		},
	}
}
