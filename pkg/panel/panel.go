// Package panel selects what a node's detail panel shows.
//
// A compact panel appears while a node is hovered and carries the label, a
// one-line description, the first three KPIs and a hint. An expanded panel
// appears while a node is pinned and carries the full description, every
// KPI, a close affordance and, when the node has one, the 2×2 metrics grid.
// A node without metrics is not an error; its expanded panel simply has no
// grid.
package panel

import (
	"strings"

	"github.com/matzehuels/chaintwin/pkg/flow"
)

// CompactKPIs is the number of KPIs shown in a compact panel.
const CompactKPIs = 3

// Hint is the trailing affordance of a compact panel.
const Hint = "Click for details"

// Mode is the panel display mode.
type Mode string

// Display modes.
const (
	Compact  Mode = "compact"
	Expanded Mode = "expanded"
)

// Trend glyphs.
const (
	GlyphUp     = "▲"
	GlyphDown   = "▼"
	GlyphStable = "—"
)

// TrendGlyph maps an authored trend to its indicator.
func TrendGlyph(t flow.Trend) string {
	switch t {
	case flow.TrendUp:
		return GlyphUp
	case flow.TrendDown:
		return GlyphDown
	default:
		return GlyphStable
	}
}

// KPI is one rendered indicator row.
type KPI struct {
	Name  string     `json:"name"`
	Value string     `json:"value"`
	Trend flow.Trend `json:"trend"`
	Glyph string     `json:"glyph"`
}

// Cell is one entry of the metrics grid.
type Cell struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Panel is the content of a detail panel.
type Panel struct {
	NodeID      flow.NodeID   `json:"node"`
	Mode        Mode          `json:"mode"`
	Title       string        `json:"title"`
	Category    flow.Category `json:"category,omitempty"`
	Description string        `json:"description,omitempty"`
	KPIs        []KPI         `json:"kpis"`
	// Metrics is a 2×2 grid, row-major: throughput, efficiency / quality, cost.
	Metrics   *[2][2]Cell `json:"metrics,omitempty"`
	Hint      string      `json:"hint,omitempty"`
	Closeable bool        `json:"closeable,omitempty"`
}

// Build selects the panel content for n in the given mode.
func Build(n flow.Node, mode Mode) Panel {
	p := Panel{
		NodeID:   n.ID,
		Mode:     mode,
		Title:    n.DisplayLabel(),
		Category: n.Category,
	}

	kpis := n.KPIs
	if mode == Compact {
		p.Description = Summary(n.Description)
		if len(kpis) > CompactKPIs {
			kpis = kpis[:CompactKPIs]
		}
		p.Hint = Hint
	} else {
		p.Mode = Expanded
		p.Description = n.Description
		p.Closeable = true
		if n.Metrics != nil {
			p.Metrics = &[2][2]Cell{
				{{Label: "Throughput", Value: n.Metrics.Throughput}, {Label: "Efficiency", Value: n.Metrics.Efficiency}},
				{{Label: "Quality", Value: n.Metrics.Quality}, {Label: "Cost", Value: n.Metrics.Cost}},
			}
		}
	}

	p.KPIs = make([]KPI, len(kpis))
	for i, k := range kpis {
		p.KPIs[i] = KPI{Name: k.Name, Value: k.Value, Trend: k.Trend, Glyph: TrendGlyph(k.Trend)}
	}
	return p
}

// Summary reduces a description to one line: the first line, cut after the
// first sentence.
func Summary(desc string) string {
	desc = strings.TrimSpace(desc)
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		desc = strings.TrimSpace(desc[:i])
	}
	if i := strings.Index(desc, ". "); i >= 0 {
		desc = desc[:i+1]
	}
	return desc
}

// Lines renders the panel as plain text lines for terminals.
func (p Panel) Lines() []string {
	lines := []string{p.Title}
	if p.Description != "" {
		lines = append(lines, p.Description)
	}
	for _, k := range p.KPIs {
		lines = append(lines, k.Glyph+" "+k.Name+": "+k.Value)
	}
	if p.Metrics != nil {
		for _, row := range p.Metrics {
			lines = append(lines, row[0].Label+": "+row[0].Value+"   "+row[1].Label+": "+row[1].Value)
		}
	}
	if p.Hint != "" {
		lines = append(lines, p.Hint)
	}
	if p.Closeable {
		lines = append(lines, "[x] close")
	}
	return lines
}
