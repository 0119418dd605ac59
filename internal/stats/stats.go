// Package stats accumulates running index counters. Increments are cheap
// mutex-guarded arithmetic and never block on I/O.
package stats

import (
	"sync"

	"github.com/jward/symgraph/internal/store"
)

// Aggregator holds running totals for indexing work. Record is called
// only after a file's write has committed, so counters never reflect
// rolled-back work.
type Aggregator struct {
	mu          sync.Mutex
	symbols     int
	references  int
	files       int
	indexTimeMs float64
	byKind      map[store.SymbolKind]int
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{byKind: make(map[store.SymbolKind]int)}
}

// Record adds one successfully indexed file's counts and timing.
func (a *Aggregator) Record(symbolCount, referenceCount int, elapsedMs float64, kinds []store.SymbolKind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.symbols += symbolCount
	a.references += referenceCount
	a.files++
	a.indexTimeMs += elapsedMs
	for _, k := range kinds {
		a.byKind[k]++
	}
}

// Snapshot returns a copy of the counters. CyclicDependencies is left
// empty; the engine fills it from the call graph at read time.
func (a *Aggregator) Snapshot() store.IndexStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	byKind := make(map[store.SymbolKind]int, len(a.byKind))
	for k, v := range a.byKind {
		byKind[k] = v
	}
	return store.IndexStatistics{
		TotalSymbols:    a.symbols,
		TotalReferences: a.references,
		FilesIndexed:    a.files,
		IndexTimeMs:     a.indexTimeMs,
		SymbolsByKind:   byKind,
	}
}
