package rkexpr

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Arena tracks compiled artifacts by name with a count of the expressions
// that reference each. An artifact is closed exactly once, when its last
// reference is released. It is safe to use an Arena concurrently.
type Arena struct {
	mu      sync.Mutex
	records map[string]*record
	names   func() string
}

type record struct {
	art  Artifact
	refs int
}

// ArenaOption is an option for creating an arena.
type ArenaOption interface {
	arenaOption(*Arena)
}

type namesopt func() string

func (o namesopt) arenaOption(a *Arena) { a.names = o }

// WithNames sets the generator of artifact names. Names must be unique for
// the life of the arena. The default generates UUIDs.
func WithNames(f func() string) ArenaOption {
	return namesopt(f)
}

// NewArena creates an empty arena.
func NewArena(opts ...ArenaOption) *Arena {
	a := Arena{records: make(map[string]*record), names: uuid.NewString}
	for _, opt := range opts {
		opt.arenaOption(&a)
	}
	return &a
}

var defaultArena = NewArena()

// DefaultArena returns the arena used by expressions not given WithArena.
func DefaultArena() *Arena {
	return defaultArena
}

// Name generates a fresh artifact name.
func (a *Arena) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.names()
}

// Refs returns the number of live references to the named artifact, or 0 if
// the arena holds no such artifact.
func (a *Arena) Refs(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if r := a.records[name]; r != nil {
		return r.refs
	}
	return 0
}

// Len returns the number of live artifacts.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// put records a new artifact with one reference. Panics if the name is in use.
func (a *Arena) put(name string, art Artifact) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.records[name]; ok {
		panic("rkexpr: duplicate artifact name " + strconv.Quote(name))
	}
	a.records[name] = &record{art: art, refs: 1}
}

// acquire adds a reference to a live artifact.
func (a *Arena) acquire(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.records[name]
	if r == nil {
		panic("rkexpr: acquire of released artifact " + strconv.Quote(name))
	}
	r.refs++
}

// release drops a reference to an artifact, closing it if that was the last.
func (a *Arena) release(name string) error {
	a.mu.Lock()
	r := a.records[name]
	if r == nil {
		a.mu.Unlock()
		panic("rkexpr: release of released artifact " + strconv.Quote(name))
	}
	r.refs--
	if r.refs > 0 {
		a.mu.Unlock()
		return nil
	}
	delete(a.records, name)
	a.mu.Unlock()
	return r.art.Close()
}
