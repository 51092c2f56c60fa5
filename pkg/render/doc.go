// Package render draws a mounted view onto output surfaces.
//
// # Overview
//
// Rendering is split in two steps. [BuildScene] flattens a [view.View] into
// a [Scene]: every node glyph and connector with its emphasis for the current
// interaction state, the route legend and the active detail panel. The
// sinks then draw the scene:
//
//   - [RenderSVG]: vector output with arrowhead markers, waypoint dots,
//     highlight and dim classes and a staggered draw-in animation
//   - [RenderPNG]: the same geometry rasterized
//   - [RenderJSON]: the scene itself, for clients that draw on their own
//     surface
//   - [ToDOT] and [RenderGraphviz]: a node-link rendition through Graphviz
//
// [Render] dispatches on a [Format] and is what the CLI and HTTP server call:
//
//	v := view.New(g)
//	_ = v.SelectRoute("export")
//	svg, err := render.Render(ctx, v, render.FormatSVG)
//
// Scenes are pure functions of the graph and the view state, so identical
// inputs produce byte-identical output. Callers rely on this to cache
// artifacts.
package render
