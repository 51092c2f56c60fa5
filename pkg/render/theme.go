package render

import (
	"fmt"
	"image/color"

	"github.com/matzehuels/chaintwin/pkg/flow"
)

// Theme holds the decoration constants shared by the SVG and PNG sinks.
type Theme struct {
	Background color.RGBA
	Edge       color.RGBA
	EdgeActive color.RGBA
	Waypoint   color.RGBA
	Text       color.RGBA
	Subtle     color.RGBA
	PanelFill  color.RGBA
	PanelEdge  color.RGBA
	TrendUp    color.RGBA
	TrendDown  color.RGBA
	Neutral    color.RGBA
	Categories map[flow.Category]color.RGBA
	FontFamily string
}

// DefaultTheme is the light dashboard palette.
var DefaultTheme = Theme{
	Background: rgb(0xf8, 0xfa, 0xfc),
	Edge:       rgb(0x94, 0xa3, 0xb8),
	EdgeActive: rgb(0x25, 0x63, 0xeb),
	Waypoint:   rgb(0x64, 0x74, 0x8b),
	Text:       rgb(0x0f, 0x17, 0x2a),
	Subtle:     rgb(0x64, 0x74, 0x8b),
	PanelFill:  rgb(0xff, 0xff, 0xff),
	PanelEdge:  rgb(0xcb, 0xd5, 0xe1),
	TrendUp:    rgb(0x16, 0xa3, 0x4a),
	TrendDown:  rgb(0xdc, 0x26, 0x26),
	Neutral:    rgb(0x94, 0xa3, 0xb8),
	Categories: map[flow.Category]color.RGBA{
		flow.CategoryProduction:   rgb(0x22, 0xc5, 0x5e),
		flow.CategoryTransport:    rgb(0xf5, 0x9e, 0x0b),
		flow.CategoryStorage:      rgb(0x8b, 0x5c, 0xf6),
		flow.CategoryProcessing:   rgb(0x3b, 0x82, 0xf6),
		flow.CategoryDistribution: rgb(0x06, 0xb6, 0xd4),
		flow.CategoryRetail:       rgb(0xec, 0x48, 0x99),
		flow.CategoryConsumer:     rgb(0xef, 0x44, 0x44),
		flow.CategoryExport:       rgb(0x14, 0xb8, 0xa6),
		flow.CategoryByproduct:    rgb(0x78, 0x71, 0x6c),
	},
	FontFamily: "Inter, Helvetica, Arial, sans-serif",
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

// CategoryColor returns the fill for a category, or the neutral colour for
// categories the theme does not know.
func (t Theme) CategoryColor(c flow.Category) color.RGBA {
	if col, ok := t.Categories[c]; ok {
		return col
	}
	return t.Neutral
}

// TrendColor returns the colour of a trend glyph.
func (t Theme) TrendColor(tr flow.Trend) color.RGBA {
	switch tr {
	case flow.TrendUp:
		return t.TrendUp
	case flow.TrendDown:
		return t.TrendDown
	default:
		return t.Neutral
	}
}

// Hex formats c as a CSS hex colour.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
