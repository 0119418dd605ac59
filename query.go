package symgraph

import "fmt"

// Search runs a ranked full-text query over symbol names, documentation,
// signatures, and file paths. Results come back in relevance order,
// truncated to limit. A malformed query wraps ErrQuery; no matches is an
// empty slice.
func (e *Engine) Search(query string, limit int) ([]SymbolEntry, error) {
	symbols, err := e.store.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return symbols, nil
}

// FindReferences returns every use site whose target is exactly
// symbolID. Targets are stored as best-effort bare names, so a bare name
// can match unrelated symbols that share it across files.
func (e *Engine) FindReferences(symbolID string) ([]SymbolReference, error) {
	refs, err := e.store.ReferencesTo(symbolID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return refs, nil
}

// AllSymbols returns the full index ordered by name, for bulk export and
// audit use.
func (e *Engine) AllSymbols() ([]SymbolEntry, error) {
	symbols, err := e.store.AllSymbols()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return symbols, nil
}

// GetCallGraph returns the one-hop neighborhood of a symbol: the nodes it
// references (calls) and the nodes referencing it (called_by). An unknown
// id yields empty lists, not an error.
func (e *Engine) GetCallGraph(symbolID string) (CallGraphInfo, error) {
	return CallGraphInfo{
		SymbolID: symbolID,
		Calls:    e.graph.CallsOf(symbolID),
		CalledBy: e.graph.CallersOf(symbolID),
	}, nil
}

// FindCircularDependencies computes strongly connected components over
// the whole call graph and returns the components of size > 1. The
// result is recomputed on every call; the graph may have grown since the
// last one.
func (e *Engine) FindCircularDependencies() ([][]string, error) {
	return e.graph.CircularDependencies(), nil
}

// Stats returns a snapshot of the running index counters with the
// current circular-dependency groups filled in at read time.
func (e *Engine) Stats() IndexStatistics {
	snapshot := e.stats.Snapshot()
	snapshot.CyclicDependencies = e.graph.CircularDependencies()
	return snapshot
}
