package passtable

import (
	"iter"
	"slices"
	"sync"
)

// Shared guards a Table with a single lock, so it can be used from multiple goroutines.
type Shared struct {
	mu    sync.Mutex
	table *Table
}

func NewShared(t *Table) *Shared {
	return &Shared{table: t}
}

// Do runs fn with exclusive access to the Table. The Table must not be retained after fn returns.
func (s *Shared) Do(fn func(t *Table) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.table)
}

// Names yields a snapshot of the names taken when Names is called.
func (s *Shared) Names() iter.Seq[string] {
	s.mu.Lock()
	names := slices.Collect(s.table.Names())
	s.mu.Unlock()
	return slices.Values(names)
}

func (s *Shared) SortedNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.SortedNames()
}
