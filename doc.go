// Package symgraph is a code-intelligence engine for developer tooling:
// CLI search, find-references, and call-graph visualization over large
// codebases.
//
// The pipeline: source files are parsed with tree-sitter into a symbol
// list and a syntax tree; the extractor derives SymbolEntry and
// SymbolReference records (with complexity, quality score, and export
// heuristics); the index writer replaces the file's rows in SQLite in one
// transaction (readers see old-all or new-all, never a mix); the
// in-memory call graph then absorbs the batch and answers neighbor and
// circular-dependency queries via Tarjan SCC.
//
// Typical use:
//
//	engine, err := symgraph.New("index.db")
//	if err != nil { ... }
//	defer engine.Close()
//
//	_ = engine.IndexDirectory(ctx, repoRoot)
//	hits, _ := engine.Search("parse", 10)
//	info, _ := engine.GetCallGraph(hits[0].ID)
//	cycles, _ := engine.FindCircularDependencies()
//
// Full-text search runs over an FTS5 mirror of (name, documentation,
// signature, file_path) kept in sync by triggers; queries use FTS5 match
// syntax and return results in relevance-rank order.
package symgraph
