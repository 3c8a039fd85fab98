package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownAlgorithm is returned for an algorithm id nobody registered.
var ErrUnknownAlgorithm = errors.New("unknown scoring algorithm")

// Registry maps algorithm ids to algorithms. It is populated explicitly at
// start-up and read-only afterwards.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: make(map[string]Algorithm)}
}

// NewDefaultRegistry returns a registry holding every built-in algorithm.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewBasic())
	r.Register(NewIaruHf())
	return r
}

// Register adds an algorithm.
// Panics if the id is empty or already registered.
func (r *Registry) Register(a Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := strings.TrimSpace(a.ID())
	if id == "" {
		panic("scoring algorithm must define an id")
	}
	if _, exists := r.algorithms[id]; exists {
		panic(fmt.Sprintf("scoring algorithm %s already registered", id))
	}
	r.algorithms[id] = a
}

// Lookup returns the algorithm registered under id.
func (r *Registry) Lookup(id string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.algorithms[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, id)
	}
	return a, nil
}

// IDs returns the registered algorithm ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.algorithms))
	for id := range r.algorithms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
