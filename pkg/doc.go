// Package pkg provides the core libraries for Chaintwin supply-chain
// visualization.
//
// # Overview
//
// Chaintwin draws supply-chain case studies as node-link diagrams: stages of
// a food chain (farms, mills, ports, retailers) are glyphs, physical flows
// between them are curved connectors, and named routes through the chain can
// be highlighted. Hovering or pinning a stage opens a detail panel with its
// description, indicators and metrics. The pkg directory is organized into
// four areas:
//
//  1. Domain - [flow] (graph model), [view] (interaction state), [panel]
//     (detail content) and [geometry] (connector paths)
//  2. Data - [studies] (case study documents and the registry)
//  3. Output - [render] (SVG, PNG, JSON and DOT sinks)
//  4. Infrastructure - [cache], [config], [server], [watch], [errors],
//     [observability] and [buildinfo]
//
// # Architecture
//
// The typical data flow through Chaintwin:
//
//	Study document (TOML, YAML or JSON)
//	         ↓
//	    [studies] package (decode, validate, register)
//	         ↓
//	    [flow] package (immutable graph)
//	         ↓
//	    [view] package (route, hover, pin, zoom)
//	         ↓
//	    [render] package (scene → sink)
//	         ↓
//	    SVG/PNG/JSON/DOT output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/chaintwin/pkg/render"
//	    "github.com/matzehuels/chaintwin/pkg/studies"
//	    "github.com/matzehuels/chaintwin/pkg/view"
//	)
//
//	// 1. Load a builtin study
//	st, _ := studies.MustBuiltin().Get(studies.Grain)
//
//	// 2. Drive the interaction state
//	v := view.New(st.Graph)
//	_ = v.SelectRoute("export")
//	_ = v.Click("mills")
//
//	// 3. Render to SVG
//	svg, _ := render.Render(ctx, v, render.FormatSVG)
//
// # Main Packages
//
// [flow] - The supply-chain graph: nodes with category, position, KPIs and
// optional metrics; edges with a connector style; routes as ordered node
// sequences. Graphs are built once through a Builder and never mutated.
//
// [view] - The highlight state machine. A view is Idle or RouteActive and
// independently tracks the hovered node, the pinned node and the zoom level.
// Emphasis (opacity, stroke width, scale) is derived from that state.
//
// [panel] - Compact and expanded detail panel content for a node.
//
// [geometry] - Cubic Bézier connectors between node glyphs, with orthogonal
// and curved variants and waypoint markers.
//
// [render] - Flattens a view into a scene and draws it. SVG carries CSS
// transitions and a draw-in animation; PNG is rasterized with gg.
//
// [studies] - Case study documents and a concurrency-safe registry holding
// the embedded grain, fish and fruitveg studies plus user files.
//
// [server] - HTTP API for listing and rendering studies and for mounting
// interactive views driven by hover, click, route and zoom events.
//
// [cache] - Artifact caching with file (CLI) and Redis (server) backends.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/view/...     # Specific package
//	go test -run Example       # Examples only
//
// [flow]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/flow
// [view]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/view
// [panel]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/panel
// [geometry]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/geometry
// [render]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/render
// [studies]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/studies
// [server]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/config
// [watch]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/watch
// [errors]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/chaintwin/pkg/buildinfo
package pkg
