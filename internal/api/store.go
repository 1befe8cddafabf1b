package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/samcharles93/zenworld/internal/world"
)

type worldRecord struct {
	Name  string
	World *world.World
}

// WorldStore keeps parsed worlds in memory, keyed by opaque ids.
type WorldStore struct {
	mu     sync.Mutex
	worlds map[string]*worldRecord
	order  []string
}

func NewWorldStore() *WorldStore {
	return &WorldStore{worlds: make(map[string]*worldRecord)}
}

// Put stores a parsed world and returns its id.
func (s *WorldStore) Put(name string, w *world.World) string {
	id := "wld_" + uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds[id] = &worldRecord{Name: name, World: w}
	s.order = append(s.order, id)
	return id
}

// Get returns a stored world by id.
func (s *WorldStore) Get(id string) (string, *world.World, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.worlds[id]
	if !ok {
		return "", nil, false
	}
	return rec.Name, rec.World, true
}

// Delete removes a stored world and reports whether it existed.
func (s *WorldStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.worlds[id]; !ok {
		return false
	}
	delete(s.worlds, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// IDs returns the stored ids in insertion order.
func (s *WorldStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
