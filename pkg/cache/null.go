package cache

import (
	"context"
	"time"
)

// NullCache is the backend for --no-cache and cache.enabled = false: every
// artifact lookup misses and every render is recomputed.
type NullCache struct{}

// NewNullCache returns a Cache that stores no artifacts.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
