package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	cterr "github.com/matzehuels/chaintwin/pkg/errors"
	"github.com/matzehuels/chaintwin/pkg/observability"
	"github.com/matzehuels/chaintwin/pkg/studies"
	"github.com/matzehuels/chaintwin/pkg/view"
)

// viewEntry is one mounted view. Its mutex serializes events, since a
// view.View is not safe for concurrent use. done is closed once the view
// leaves the store, whether unmounted, swept or evicted.
type viewEntry struct {
	mu         sync.Mutex
	id         string
	study      *studies.Study
	view       *view.View
	lastAccess time.Time
	done       chan struct{}
	release    sync.Once
}

// drop closes done. It is safe to call more than once.
func (e *viewEntry) drop() {
	e.release.Do(func() { close(e.done) })
}

type viewStore struct {
	mu    sync.Mutex
	views map[string]*viewEntry
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func newViewStore(ttl time.Duration, max int) *viewStore {
	return &viewStore{
		views: make(map[string]*viewEntry),
		ttl:   ttl,
		max:   max,
		now:   time.Now,
	}
}

// mount creates a view over st, evicting the least recently used view when
// the store is full.
func (vs *viewStore) mount(ctx context.Context, st *studies.Study) *viewEntry {
	e := &viewEntry{
		id:    uuid.NewString(),
		study: st,
		view:  view.New(st.Graph),
		done:  make(chan struct{}),
	}

	vs.mu.Lock()
	e.lastAccess = vs.now()
	var evicted *viewEntry
	if vs.max > 0 && len(vs.views) >= vs.max {
		var oldest *viewEntry
		for _, v := range vs.views {
			if oldest == nil || v.lastAccess.Before(oldest.lastAccess) {
				oldest = v
			}
		}
		if oldest != nil {
			evicted = oldest
			delete(vs.views, oldest.id)
		}
	}
	vs.views[e.id] = e
	vs.mu.Unlock()

	if evicted != nil {
		evicted.drop()
		observability.View().OnViewUnmount(ctx, evicted.id, true)
	}
	observability.View().OnViewMount(ctx, st.Name(), e.id)
	return e
}

// get returns the view with the given id and refreshes its expiry.
func (vs *viewStore) get(id string) (*viewEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, cterr.New(cterr.ErrCodeInvalidInput, "invalid view id %q", id)
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	e, ok := vs.views[id]
	if !ok || vs.expired(e) {
		return nil, cterr.New(cterr.ErrCodeViewNotFound, "view %s not found or expired", id)
	}
	e.lastAccess = vs.now()
	return e, nil
}

// unmount drops a view. It reports whether the view existed.
func (vs *viewStore) unmount(ctx context.Context, id string) bool {
	vs.mu.Lock()
	e, ok := vs.views[id]
	delete(vs.views, id)
	vs.mu.Unlock()
	if ok {
		e.drop()
		observability.View().OnViewUnmount(ctx, id, false)
	}
	return ok
}

// sweep drops expired views and returns how many were dropped.
func (vs *viewStore) sweep(ctx context.Context) int {
	vs.mu.Lock()
	var expired []*viewEntry
	for id, e := range vs.views {
		if vs.expired(e) {
			expired = append(expired, e)
			delete(vs.views, id)
		}
	}
	vs.mu.Unlock()
	for _, e := range expired {
		e.drop()
		observability.View().OnViewUnmount(ctx, e.id, true)
	}
	return len(expired)
}

func (vs *viewStore) len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.views)
}

func (vs *viewStore) expired(e *viewEntry) bool {
	return vs.ttl > 0 && vs.now().Sub(e.lastAccess) > vs.ttl
}

func (vs *viewStore) expiresAt(e *viewEntry) time.Time {
	if vs.ttl <= 0 {
		return time.Time{}
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return e.lastAccess.Add(vs.ttl)
}
