// Package extract turns a parse result into SymbolEntry and
// SymbolReference records with derived metrics: cyclomatic-complexity
// proxy, quality score, and export heuristic. Extraction is best-effort:
// malformed subtrees produce conservative defaults, never errors.
package extract

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jward/symgraph/internal/parser"
	"github.com/jward/symgraph/internal/store"
)

// ScopeResolver maps a reference position to the id of the enclosing
// symbol, or "" when the scope cannot be determined.
type ScopeResolver func(filePath string, pos store.Position) string

// NoopScopeResolver leaves every reference's from_symbol_id empty.
func NoopScopeResolver(string, store.Position) string { return "" }

// ResolverFactory builds a ScopeResolver from the symbols just extracted
// for a file, letting the resolver consult their spans.
type ResolverFactory func(filePath string, symbols []store.SymbolEntry) ScopeResolver

// Option configures an Extractor.
type Option func(*Extractor)

// WithResolverFactory replaces the default no-op scope resolution.
func WithResolverFactory(f ResolverFactory) Option {
	return func(e *Extractor) {
		e.resolverFactory = f
	}
}

// Extractor converts parse results into index records.
type Extractor struct {
	resolverFactory ResolverFactory
}

// New creates an Extractor. By default the enclosing scope of references
// is not resolved and from_symbol_id stays empty.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		resolverFactory: func(string, []store.SymbolEntry) ScopeResolver {
			return NoopScopeResolver
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// controlFlowLabels are the node-type substrings counted by the
// complexity proxy.
var controlFlowLabels = []string{"if", "else", "match", "while", "for", "?", "&&", "||"}

// Extract produces the symbol and reference batches for one file.
func (e *Extractor) Extract(res *parser.ParseResult, filePath string, content []byte) ([]store.SymbolEntry, []store.SymbolReference) {
	lines := strings.Split(string(content), "\n")

	// The complexity proxy is computed over the whole parsed tree and
	// shared by every symbol in the file.
	complexity := 1 + countControlFlow(res.Root)

	now := time.Now().UTC()
	symbols := make([]store.SymbolEntry, 0, len(res.Symbols))
	byName := make(map[string]string, len(res.Symbols))
	for _, sym := range res.Symbols {
		entry := store.SymbolEntry{
			ID:            SymbolID(filePath, sym.Name, sym.Location.Line),
			Name:          sym.Name,
			Kind:          sym.Kind,
			FilePath:      filePath,
			StartPos:      sym.Location,
			EndPos:        sym.End,
			Signature:     sym.Signature,
			Documentation: sym.Docs,
			Complexity:    complexity,
			IsExported:    isExported(sym.Kind),
			LastModified:  now,
		}
		entry.QualityScore = qualityScore(sym, complexity, len(lines))
		if _, ok := byName[sym.Name]; !ok {
			byName[sym.Name] = entry.ID
		}
		symbols = append(symbols, entry)
	}

	// Parent names resolve to same-file symbol ids, best effort.
	for i := range symbols {
		if parent := res.Symbols[i].Parent; parent != "" {
			symbols[i].ParentID = byName[parent]
		}
	}

	resolver := e.resolverFactory(filePath, symbols)

	var refs []store.SymbolReference
	walkReferences(res.Root, func(n *parser.Node) {
		refs = append(refs, store.SymbolReference{
			FromSymbolID:  resolver(filePath, n.StartPos),
			ToSymbolID:    n.Name,
			ReferenceKind: referenceKindFor(n.Type),
			FilePath:      filePath,
			Position:      n.StartPos,
			Context:       contextLine(lines, n.StartPos.Line),
		})
	})

	return symbols, refs
}

// SymbolID derives the stable symbol key from file, name, and start line.
func SymbolID(filePath, name string, startLine int) string {
	return fmt.Sprintf("%s:%s:%d", filePath, name, startLine)
}

// countControlFlow counts nodes anywhere in the tree whose type label
// contains a control-flow marker.
func countControlFlow(n *parser.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	for _, label := range controlFlowLabels {
		if strings.Contains(n.Type, label) {
			count++
			break
		}
	}
	for _, child := range n.Children {
		count += countControlFlow(child)
	}
	return count
}

// qualityScore rates a symbol 0-10 from documentation presence, excess
// complexity, file length for functions, and naming.
func qualityScore(sym parser.Symbol, complexity, fileLines int) float64 {
	score := 10.0

	if sym.Docs == "" {
		score -= 2.0
	}
	if complexity > 10 {
		penalty := float64(complexity-10) * 0.2
		if penalty > 3.0 {
			penalty = 3.0
		}
		score -= penalty
	}
	// Measured against whole-file length, not the function body.
	if sym.Kind == store.KindFunction && fileLines > 50 {
		score -= 1.0
	}
	if len(sym.Name) < 3 || isAllUppercase(sym.Name) {
		score -= 1.0
	}

	if score < 0 {
		return 0
	}
	return score
}

// isAllUppercase is true only when every rune is an uppercase letter;
// underscores and digits disqualify, so MAX_RETRIES is not penalized.
func isAllUppercase(name string) bool {
	for _, r := range name {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return name != ""
}

// isExported is a language-agnostic heuristic; per-language visibility
// parsing is out of scope.
func isExported(kind store.SymbolKind) bool {
	switch kind {
	case store.KindFunction, store.KindClass, store.KindInterface, store.KindStruct:
		return true
	}
	return false
}

// referenceKindFor maps a node-type label to a reference kind. The match
// arms are ordered; the first hit wins.
func referenceKindFor(nodeType string) store.ReferenceKind {
	switch {
	case strings.Contains(nodeType, "call"):
		return store.RefCall
	case strings.Contains(nodeType, "import"), strings.Contains(nodeType, "use"):
		return store.RefImport
	case strings.Contains(nodeType, "extend"), strings.Contains(nodeType, "inherit"):
		return store.RefInherit
	case strings.Contains(nodeType, "implement"):
		return store.RefImplement
	case strings.Contains(nodeType, "new"), strings.Contains(nodeType, "instantiate"):
		return store.RefInstantiate
	case strings.Contains(nodeType, "type"):
		return store.RefTypeUse
	default:
		return store.RefReference
	}
}

// walkReferences visits reference nodes depth-first. A node counts as a
// reference only when the parser flagged it and it carries a name.
func walkReferences(n *parser.Node, visit func(*parser.Node)) {
	if n == nil {
		return
	}
	if n.IsReference && n.Name != "" {
		visit(n)
	}
	for _, child := range n.Children {
		walkReferences(child, visit)
	}
}

// contextLine returns the trimmed source line at a zero-based line
// number, or "" when out of range.
func contextLine(lines []string, line int) string {
	if line < 0 || line >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line])
}

// SpanResolver resolves a position to the smallest same-file symbol span
// containing it. Used by the engine as its default scope resolution so
// call-graph edges originate from real symbol ids.
func SpanResolver(filePath string, symbols []store.SymbolEntry) ScopeResolver {
	return func(_ string, pos store.Position) string {
		bestID := ""
		bestSpan := -1
		for i := range symbols {
			sym := &symbols[i]
			if pos.Line < sym.StartPos.Line || pos.Line > sym.EndPos.Line {
				continue
			}
			span := sym.EndPos.Line - sym.StartPos.Line
			if bestSpan == -1 || span < bestSpan {
				bestSpan = span
				bestID = sym.ID
			}
		}
		return bestID
	}
}
