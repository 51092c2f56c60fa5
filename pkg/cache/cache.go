// Package cache stores rendered artifacts.
//
// Rendering is a pure function of the study document and the view state, so
// an artifact never goes stale as long as its key covers both: keys built by
// [Keyer.ArtifactKey] hash the study document hash together with the view
// snapshot and the output options.
//
// Three backends implement [Cache]: [NullCache] (caching disabled),
// [FileCache] (CLI, under the user cache directory) and [RedisCache]
// (shared between server replicas).
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/chaintwin/pkg/observability"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey identifies a rendered artifact of a study document.
	ArtifactKey(studyHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Route    string  `json:"route,omitempty"`
	Hovered  string  `json:"hovered,omitempty"`
	Selected string  `json:"selected,omitempty"`
	Zoom     float64 `json:"zoom,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Panel    bool    `json:"panel"`
	Legend   bool    `json:"legend"`
	Animate  bool    `json:"animate"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(studyHash string, opts ArtifactKeyOpts) string {
	return digestKey("artifact", studyHash, opts)
}

// GetOrCompute returns the cached value for key, or calls compute, stores its
// result and returns it. Cache read and write failures are not fatal: the
// value is computed (or returned) anyway. The boolean reports a cache hit.
func GetOrCompute(ctx context.Context, c Cache, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	data, err := compute()
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}
