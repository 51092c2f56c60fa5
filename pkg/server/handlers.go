package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/chaintwin/pkg/buildinfo"
	"github.com/matzehuels/chaintwin/pkg/cache"
	"github.com/matzehuels/chaintwin/pkg/config"
	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
	"github.com/matzehuels/chaintwin/pkg/observability"
	"github.com/matzehuels/chaintwin/pkg/panel"
	"github.com/matzehuels/chaintwin/pkg/render"
	"github.com/matzehuels/chaintwin/pkg/studies"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// =============================================================================
// Studies
// =============================================================================

type studySummary struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Routes int    `json:"routes"`
}

type studyResponse struct {
	studies.Document
	Source  string         `json:"source"`
	Hash    string         `json:"hash"`
	Phantom map[string]int `json:"phantom_steps,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"studies": s.registry.Len(),
		"views":   s.views.len(),
	})
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	out := []studySummary{}
	for _, name := range s.registry.Names() {
		st, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		g := st.Graph
		out = append(out, studySummary{
			Name:   g.Name(),
			Title:  g.Title(),
			Source: st.Source,
			Nodes:  g.NodeCount(),
			Edges:  g.EdgeCount(),
			Routes: len(g.Routes()),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	st, err := s.registry.Get(chi.URLParam(r, "study"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := studyResponse{Document: studies.FromGraph(st.Graph), Source: st.Source, Hash: st.Hash}
	for id, steps := range st.Graph.PhantomSteps() {
		if resp.Phantom == nil {
			resp.Phantom = make(map[string]int)
		}
		resp.Phantom[string(id)] = len(steps)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRenderStudy renders a view rebuilt from the query string.
func (s *Server) handleRenderStudy(w http.ResponseWriter, r *http.Request) {
	st, err := s.registry.Get(chi.URLParam(r, "study"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := snapshotFromQuery(st.Name(), r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := view.FromSnapshot(st.Graph, snap)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, st, v, format)
}

func snapshotFromQuery(study string, r *http.Request) (view.Snapshot, error) {
	q := r.URL.Query()
	snap := view.Snapshot{
		Study:    study,
		Route:    flow.RouteID(q.Get("route")),
		Hovered:  flow.NodeID(q.Get("hover")),
		Selected: flow.NodeID(q.Get("selected")),
	}
	if z := q.Get("zoom"); z != "" {
		f, err := strconv.ParseFloat(z, 64)
		if err != nil || cterr.ValidateFactor("zoom", f, 0) != nil {
			return view.Snapshot{}, cterr.New(cterr.ErrCodeInvalidInput, "invalid zoom %q", z)
		}
		snap.Zoom = f
	}
	return snap, nil
}

// =============================================================================
// Views
// =============================================================================

type mountRequest struct {
	Study string `json:"study"`
}

type nodeRequest struct {
	Node flow.NodeID `json:"node"`
}

type routeRequest struct {
	Route flow.RouteID `json:"route"`
}

type zoomRequest struct {
	Direction string `json:"direction"`
}

type viewResponse struct {
	ID string `json:"id"`
	view.Snapshot
	Mode             string        `json:"mode"`
	HighlightedNodes []flow.NodeID `json:"highlighted_nodes"`
	HighlightedEdges []string      `json:"highlighted_edges"`
	Panel            *panel.Panel  `json:"panel,omitempty"`
	ExpiresAt        time.Time     `json:"expires_at,omitempty"`
}

// describe must be called with e.mu held.
func (s *Server) describe(e *viewEntry) viewResponse {
	v := e.view
	resp := viewResponse{
		ID:               e.id,
		Snapshot:         v.Snapshot(),
		Mode:             v.Mode().String(),
		HighlightedNodes: v.HighlightedNodes(),
		HighlightedEdges: []string{},
		ExpiresAt:        s.views.expiresAt(e),
	}
	if resp.HighlightedNodes == nil {
		resp.HighlightedNodes = []flow.NodeID{}
	}
	for _, edge := range v.HighlightedEdges() {
		resp.HighlightedEdges = append(resp.HighlightedEdges, edge.Key())
	}
	if p, ok := v.ActivePanel(); ok {
		resp.Panel = &p
	}
	return resp
}

func (s *Server) handleMountView(w http.ResponseWriter, r *http.Request) {
	if !s.mounts.Allow() {
		w.Header().Set("Retry-After", "1")
		s.writeError(w, r, cterr.New(cterr.ErrCodeRateLimited, "too many views mounted, retry later"))
		return
	}
	var req mountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.registry.Get(req.Study)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e := s.views.mount(r.Context(), st)
	e.mu.Lock()
	defer e.mu.Unlock()
	w.Header().Set("Location", "/api/views/"+e.id)
	writeJSON(w, http.StatusCreated, s.describe(e))
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, "", func(e *viewEntry) error { return nil })
}

func (s *Server) handleUnmountView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.views.get(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.views.unmount(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withView(w, r, "hover", func(e *viewEntry) error { return e.view.HoverEnter(req.Node) })
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, "leave", func(e *viewEntry) error { e.view.HoverLeave(); return nil })
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withView(w, r, "click", func(e *viewEntry) error { return e.view.Click(req.Node) })
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, "unpin", func(e *viewEntry) error { e.view.Unpin(); return nil })
}

func (s *Server) handleSelectRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withView(w, r, "route", func(e *viewEntry) error { return e.view.SelectRoute(req.Route) })
}

func (s *Server) handleClearRoute(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, "clear-route", func(e *viewEntry) error { e.view.ClearRoute(); return nil })
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withView(w, r, "zoom", func(e *viewEntry) error { return zoom(e.view, req.Direction) })
}

func zoom(v *view.View, direction string) error {
	switch direction {
	case "in":
		v.ZoomIn()
	case "out":
		v.ZoomOut()
	case "reset":
		v.ResetZoom()
	default:
		return cterr.New(cterr.ErrCodeInvalidInput, "zoom direction must be in, out or reset, got %q", direction)
	}
	return nil
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	e, err := s.views.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e.mu.Lock()
	p, ok := e.view.ActivePanel()
	e.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRenderView(w http.ResponseWriter, r *http.Request) {
	e, err := s.views.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s.writeArtifact(w, r, e.study, e.view, format)
}

// withView looks up the view, applies fn under its lock and writes the new
// state. A failed event leaves the state unchanged.
func (s *Server) withView(w http.ResponseWriter, r *http.Request, event string, fn func(*viewEntry) error) {
	e, err := s.views.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	err = fn(e)
	if event != "" {
		observability.View().OnViewEvent(r.Context(), e.id, event, err)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.describe(e))
}

// =============================================================================
// Artifacts
// =============================================================================

// writeArtifact renders v through the artifact cache.
func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, st *studies.Study, v *view.View, format render.Format) {
	opts, keyOpts, err := renderOptions(r, v, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	key := s.keyer.ArtifactKey(st.Hash, keyOpts)
	data, hit, err := cache.GetOrCompute(ctx, s.cache, key, s.cacheTTL, func() ([]byte, error) {
		return render.Render(ctx, v, format, opts...)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// renderOptions reads scale, panel, legend and animate from the query.
func renderOptions(r *http.Request, v *view.View, format render.Format) ([]render.Option, cache.ArtifactKeyOpts, error) {
	q := r.URL.Query()
	snap := v.Snapshot()
	k := cache.ArtifactKeyOpts{
		Format:   string(format),
		Route:    string(snap.Route),
		Hovered:  string(snap.Hovered),
		Selected: string(snap.Selected),
		Zoom:     snap.Zoom,
		Scale:    1,
		Panel:    true,
		Legend:   true,
		Animate:  true,
	}
	var opts []render.Option

	if raw := q.Get("scale"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || cterr.ValidateFactor("scale", f, config.MaxScale) != nil {
			return nil, k, cterr.New(cterr.ErrCodeInvalidInput, "invalid scale %q", raw)
		}
		k.Scale = f
		opts = append(opts, render.WithScale(f))
	}
	for _, flag := range []struct {
		name string
		dst  *bool
		off  render.Option
	}{
		{"panel", &k.Panel, render.WithoutPanel()},
		{"legend", &k.Legend, render.WithoutLegend()},
		{"animate", &k.Animate, render.WithoutAnimation()},
	} {
		raw := q.Get(flag.name)
		if raw == "" {
			continue
		}
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, k, cterr.New(cterr.ErrCodeInvalidInput, "invalid %s %q", flag.name, raw)
		}
		*flag.dst = on
		if !on {
			opts = append(opts, flag.off)
		}
	}
	return opts, k, nil
}
