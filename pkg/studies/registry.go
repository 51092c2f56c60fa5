package studies

import (
	"embed"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chaintwin/pkg/cache"
	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/flow"
)

//go:embed data/*.toml
var builtinFS embed.FS

// Builtin study names.
const (
	Grain    = "grain"
	Fish     = "fish"
	FruitVeg = "fruitveg"
)

// Study is a loaded case study.
type Study struct {
	Graph *flow.Graph
	// Source is "builtin" or the path the study was read from.
	Source string
	// Hash identifies the document content; it changes whenever the
	// authored data changes and is used in cache keys.
	Hash string
}

// Name returns the study name.
func (s *Study) Name() string { return s.Graph.Name() }

// Registry holds the case studies available to the CLI and the server.
// It is safe for concurrent use. Studies loaded from disk replace builtin
// studies of the same name.
type Registry struct {
	mu      sync.RWMutex
	studies map[string]*Study
	opts    []flow.BuildOption
	logger  *log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report loaded and rejected files.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithBuildOptions passes graph build options, e.g. flow.RequireRouteEdges,
// to every study the registry loads.
func WithBuildOptions(opts ...flow.BuildOption) Option {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{studies: make(map[string]*Study)}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Builtin returns a registry holding the embedded grain, fish and fruitveg
// studies.
func Builtin(opts ...Option) (*Registry, error) {
	r := NewRegistry(opts...)
	if err := r.loadFS(builtinFS, "data", "builtin"); err != nil {
		return nil, err
	}
	return r, nil
}

// MustBuiltin is like Builtin but panics on error. The embedded data is
// validated by tests, so this only fails on a broken build.
func MustBuiltin() *Registry {
	r, err := Builtin()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) loadFS(fsys fs.FS, dir, source string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		data, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return err
		}
		s, err := Parse(data, FormatTOML, source, r.opts...)
		if err != nil {
			return err
		}
		r.put(s)
	}
	return nil
}

// Parse decodes and builds one study.
func Parse(data []byte, format, source string, opts ...flow.BuildOption) (*Study, error) {
	doc, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	g, err := doc.Graph(opts...)
	if err != nil {
		return nil, err
	}
	return &Study{Graph: g, Source: source, Hash: cache.Hash(data)}, nil
}

// LoadFile reads a study document from disk and registers it.
func (r *Registry) LoadFile(path string) (*Study, error) {
	if err := cterr.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, cterr.New(cterr.ErrCodeFileNotFound, "study file not found: %s", path)
	}
	if err != nil {
		return nil, cterr.Wrap(cterr.ErrCodeInvalidPath, err, "read %s", path)
	}
	s, err := Parse(data, format, path, r.opts...)
	if err != nil {
		return nil, err
	}
	r.put(s)
	r.logger.Debug("loaded study", "name", s.Name(), "source", path, "nodes", s.Graph.NodeCount(), "edges", s.Graph.EdgeCount())
	return s, nil
}

// LoadDir registers every .toml, .yaml, .yml and .json file in dir.
// Files that fail to load are logged and skipped; the first such error is
// returned after the whole directory has been processed.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, cterr.Wrap(cterr.ErrCodeInvalidPath, err, "read studies directory")
	}
	var (
		loaded   int
		firstErr error
	)
	for _, e := range entries {
		if e.IsDir() || !IsStudyFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := r.LoadFile(path); err != nil {
			r.logger.Warn("skipping study file", "path", path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded++
	}
	return loaded, firstErr
}

// Reload re-reads a single file after it changed on disk. Unchanged content
// is a no-op and reports false.
func (r *Registry) Reload(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, cterr.Wrap(cterr.ErrCodeInvalidPath, err, "read %s", path)
	}
	hash := cache.Hash(data)
	r.mu.RLock()
	for _, s := range r.studies {
		if s.Source == path && s.Hash == hash {
			r.mu.RUnlock()
			return false, nil
		}
	}
	r.mu.RUnlock()

	s, err := r.LoadFile(path)
	if err != nil {
		return false, err
	}
	r.logger.Info("reloaded study", "name", s.Name(), "source", path)
	return true, nil
}

// IsStudyFile reports whether name has a supported study extension.
func IsStudyFile(name string) bool {
	if cterr.ValidateStudyFilename(name) != nil {
		return false
	}
	_, err := FormatFromPath(name)
	return err == nil
}

func (r *Registry) put(s *Study) {
	r.mu.Lock()
	r.studies[s.Name()] = s
	r.mu.Unlock()
}

// Get returns the named study.
func (r *Registry) Get(name string) (*Study, error) {
	if err := cterr.ValidateStudyName(name); err != nil {
		return nil, err
	}
	r.mu.RLock()
	s, ok := r.studies[name]
	r.mu.RUnlock()
	if !ok {
		return nil, cterr.New(cterr.ErrCodeStudyNotFound, "unknown study %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return s, nil
}

// Names returns the registered study names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.studies))
	for name := range r.studies {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered studies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.studies)
}
