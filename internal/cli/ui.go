package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/panel"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, rising trends
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors, falling trends
	colorBlue   = lipgloss.Color("75")  // Light blue - active route
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// categoryColors mirror the diagram theme in the 256-colour palette.
var categoryColors = map[flow.Category]lipgloss.Color{
	flow.CategoryProduction:   lipgloss.Color("71"),
	flow.CategoryTransport:    lipgloss.Color("68"),
	flow.CategoryStorage:      lipgloss.Color("137"),
	flow.CategoryProcessing:   lipgloss.Color("172"),
	flow.CategoryDistribution: lipgloss.Color("98"),
	flow.CategoryRetail:       lipgloss.Color("168"),
	flow.CategoryConsumer:     lipgloss.Color("38"),
	flow.CategoryExport:       lipgloss.Color("31"),
	flow.CategoryByproduct:    lipgloss.Color("101"),
}

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleActive for members of the active route.
	StyleActive = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	stylePanel   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line with its cache status.
func printFile(path string, cached bool) {
	status, style := iconFresh, styleComputed
	if cached {
		status, style = iconCached, styleCached
	}
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path) + " " + style.Render(status))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Domain Rendering
// =============================================================================

// categoryStyle colours a category badge.
func categoryStyle(c flow.Category) lipgloss.Style {
	col, ok := categoryColors[c]
	if !ok {
		col = colorGray
	}
	return lipgloss.NewStyle().Foreground(col)
}

// trendStyle colours a KPI trend glyph.
func trendStyle(t flow.Trend) lipgloss.Style {
	switch t {
	case flow.TrendUp:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case flow.TrendDown:
		return lipgloss.NewStyle().Foreground(colorRed)
	}
	return lipgloss.NewStyle().Foreground(colorGray)
}

// renderPanel draws a detail panel as a bordered terminal box.
func renderPanel(p panel.Panel) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(p.Title))
	if p.Category != "" {
		b.WriteString(" " + categoryStyle(p.Category).Render(string(p.Category)))
	}
	if p.Description != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(44).Foreground(colorGray).Render(p.Description))
	}
	for _, k := range p.KPIs {
		b.WriteString("\n" + trendStyle(k.Trend).Render(k.Glyph) + " " + k.Name + ": " + StyleValue.Render(k.Value))
	}
	if p.Metrics != nil {
		for _, row := range p.Metrics {
			b.WriteString("\n")
			for _, cell := range row {
				b.WriteString(lipgloss.NewStyle().Width(24).Render(StyleDim.Render(cell.Label+" ") + StyleValue.Render(cell.Value)))
			}
		}
	}
	if p.Hint != "" {
		b.WriteString("\n" + StyleHighlight.Italic(true).Render(p.Hint))
	}
	return stylePanel.Render(b.String())
}
