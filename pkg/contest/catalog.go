// Package contest holds the catalog of contest definitions, keyed by contest
// id and instance index (for example "CQ-WW-CW" / "2024").
package contest

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates a contest id or instance is not in the catalog.
	ErrNotFound = errors.New("contest not found")

	// ErrInvalidTimeframe indicates a definition whose start is not before its finish.
	ErrInvalidTimeframe = errors.New("invalid contest timeframe")
)

// Timeframe is the half-open activation window [Start, Finish).
type Timeframe struct {
	Start  time.Time
	Finish time.Time
}

// Contains reports whether t falls inside [Start, Finish).
func (tf Timeframe) Contains(t time.Time) bool {
	return !t.Before(tf.Start) && t.Before(tf.Finish)
}

// Definition describes one instance of a contest.
type Definition struct {
	AlgorithmID string
	Timeframe   Timeframe
}

// Validate checks that the timeframe is well formed.
func (d *Definition) Validate() error {
	if !d.Timeframe.Start.Before(d.Timeframe.Finish) {
		return fmt.Errorf("%w: start %s is not before finish %s", ErrInvalidTimeframe,
			d.Timeframe.Start.Format(time.RFC3339), d.Timeframe.Finish.Format(time.RFC3339))
	}
	return nil
}

// Entry is one (contest id, instance) pair as enumerated by the catalog.
type Entry struct {
	ContestID  string
	Instance   string
	Definition *Definition
}

// Catalog owns every Definition. It keeps a nested lookup map and a flat list
// in insertion order for enumeration.
type Catalog struct {
	byID    map[string]map[string]*Definition
	entries []Entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]map[string]*Definition)}
}

// Get returns the definition for (id, index). When create is true and the
// pair is unknown an empty definition is allocated and registered. An empty
// index never matches.
func (c *Catalog) Get(id, index string, create bool) (*Definition, bool) {
	if index == "" {
		return nil, false
	}
	instances, ok := c.byID[id]
	if ok {
		if def, ok := instances[index]; ok {
			return def, true
		}
	}
	if !create {
		return nil, false
	}
	if instances == nil {
		instances = make(map[string]*Definition)
		c.byID[id] = instances
	}
	def := &Definition{}
	instances[index] = def
	c.entries = append(c.entries, Entry{ContestID: id, Instance: index, Definition: def})
	return def, true
}

// Lookup is Get without creation, returning ErrNotFound for unknown pairs.
func (c *Catalog) Lookup(id, index string) (*Definition, error) {
	def, ok := c.Get(id, index, false)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, id, index)
	}
	return def, nil
}

// Indices returns the instance indices registered for id, in insertion order.
// ok is false if the id is unknown.
func (c *Catalog) Indices(id string) (indices []string, ok bool) {
	if _, ok := c.byID[id]; !ok {
		return nil, false
	}
	for _, e := range c.entries {
		if e.ContestID == id {
			indices = append(indices, e.Instance)
		}
	}
	return indices, true
}

// ContestIDs returns the distinct contest ids in order of first registration.
func (c *Catalog) ContestIDs() []string {
	seen := make(map[string]bool, len(c.byID))
	var ids []string
	for _, e := range c.entries {
		if !seen[e.ContestID] {
			seen[e.ContestID] = true
			ids = append(ids, e.ContestID)
		}
	}
	return ids
}

// Len returns the number of (id, instance) entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// EntryAt returns the n-th entry in insertion order.
func (c *Catalog) EntryAt(n int) (Entry, bool) {
	if n < 0 || n >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[n], true
}
