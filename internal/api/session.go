package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/toolbar"
)

// Session is one editing session: an engine and the toolbar bound to it.
type Session struct {
	ID      string
	Engine  *engine.Engine
	Toolbar *toolbar.Controller
	Created time.Time
}

// Store keeps sessions in memory. A session expires after it has not been
// used for the store's TTL.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a store. A ttl of zero keeps sessions until deleted.
func NewStore(ttl time.Duration) *Store {
	c := cache.New(cache.NoExpiration, 0)
	if ttl > 0 {
		c = cache.New(ttl, ttl/2)
	}
	c.OnEvicted(func(_ string, v any) {
		if s, ok := v.(*Session); ok {
			s.Toolbar.Close()
		}
	})
	return &Store{cache: c}
}

// Create registers a new session for e.
func (st *Store) Create(e *engine.Engine, opts ...toolbar.Option) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		Engine:  e,
		Toolbar: toolbar.NewController(e, opts...),
		Created: time.Now(),
	}
	st.cache.Set(s.ID, s, cache.DefaultExpiration)
	return s
}

// Get returns the session and extends its lifetime.
func (st *Store) Get(id string) (*Session, bool) {
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	_ = st.cache.Replace(id, v, cache.DefaultExpiration)
	return v.(*Session), true
}

// Delete ends a session. It reports whether the session existed.
func (st *Store) Delete(id string) bool {
	if _, ok := st.cache.Get(id); !ok {
		return false
	}
	st.cache.Delete(id)
	return true
}

// Len returns the number of live sessions, including expired ones not yet
// cleaned up.
func (st *Store) Len() int {
	return st.cache.ItemCount()
}

// Flush ends every session.
func (st *Store) Flush() {
	for id := range st.cache.Items() {
		st.cache.Delete(id)
	}
}
