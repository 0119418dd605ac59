package store

import "time"

// SymbolKind classifies an indexed declaration.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
	KindModule    SymbolKind = "module"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindMethod    SymbolKind = "method"
	KindTypeAlias SymbolKind = "type_alias"
	KindTrait     SymbolKind = "trait"
	KindImport    SymbolKind = "import"
	KindNamespace SymbolKind = "namespace"
	KindProperty  SymbolKind = "property"
	KindParameter SymbolKind = "parameter"
)

// ReferenceKind classifies how a use site points at a symbol.
type ReferenceKind string

const (
	RefCall        ReferenceKind = "call"
	RefImport      ReferenceKind = "import"
	RefInherit     ReferenceKind = "inherit"
	RefImplement   ReferenceKind = "implement"
	RefInstantiate ReferenceKind = "instantiate"
	RefReference   ReferenceKind = "reference"
	RefTypeUse     ReferenceKind = "type_use"
)

// Position is a location in a source file. Line and Column are zero-based.
// Offset is a byte offset and may be zero when unavailable.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset,omitempty"`
}

// SymbolEntry is one indexed declaration. ID is derived from
// (file_path, name, start_line) and doubles as the call-graph node identity.
type SymbolEntry struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Kind           SymbolKind        `json:"kind"`
	FilePath       string            `json:"file_path"`
	StartPos       Position          `json:"start_pos"`
	EndPos         Position          `json:"end_pos"`
	ParentID       string            `json:"parent_id,omitempty"`
	Signature      string            `json:"signature,omitempty"`
	Documentation  string            `json:"documentation,omitempty"`
	Visibility     string            `json:"visibility,omitempty"`
	TypeInfo       string            `json:"type_info,omitempty"`
	Complexity     int               `json:"complexity"`
	QualityScore   float64           `json:"quality_score"`
	ReferenceCount int               `json:"reference_count"`
	UsageCount     int               `json:"usage_count"`
	IsExported     bool              `json:"is_exported"`
	LastModified   time.Time         `json:"last_modified"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// SymbolReference is one use site. ToSymbolID is a best-effort bare name
// and is not guaranteed to match any SymbolEntry.ID. FromSymbolID is empty
// when the enclosing scope could not be resolved.
type SymbolReference struct {
	FromSymbolID  string        `json:"from_symbol_id,omitempty"`
	ToSymbolID    string        `json:"to_symbol_id"`
	ReferenceKind ReferenceKind `json:"reference_kind"`
	FilePath      string        `json:"file_path"`
	Position      Position      `json:"position"`
	Context       string        `json:"context,omitempty"`
}

// IndexStatistics is a snapshot of aggregate index counters.
// CyclicDependencies is computed on demand, not accumulated.
type IndexStatistics struct {
	TotalSymbols       int                `json:"total_symbols"`
	TotalReferences    int                `json:"total_references"`
	FilesIndexed       int                `json:"files_indexed"`
	IndexTimeMs        float64            `json:"index_time_ms"`
	SymbolsByKind      map[SymbolKind]int `json:"symbols_by_kind"`
	CyclicDependencies [][]string         `json:"cyclic_dependencies"`
}

// CallGraphInfo is the one-hop neighborhood of a symbol in the call graph.
type CallGraphInfo struct {
	SymbolID string   `json:"symbol_id"`
	Calls    []string `json:"calls"`
	CalledBy []string `json:"called_by"`
}
