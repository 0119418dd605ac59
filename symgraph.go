package symgraph

import "github.com/jward/symgraph/internal/store"

// Public type aliases for internal store types used across the Engine
// API. These are Go type aliases (=) — identical to the internal types at
// compile time; external consumers use these names with no conversion.

type SymbolEntry = store.SymbolEntry
type SymbolReference = store.SymbolReference
type SymbolKind = store.SymbolKind
type ReferenceKind = store.ReferenceKind
type Position = store.Position
type IndexStatistics = store.IndexStatistics
type CallGraphInfo = store.CallGraphInfo

// Symbol kinds.
const (
	KindFunction  = store.KindFunction
	KindClass     = store.KindClass
	KindStruct    = store.KindStruct
	KindInterface = store.KindInterface
	KindEnum      = store.KindEnum
	KindModule    = store.KindModule
	KindVariable  = store.KindVariable
	KindConstant  = store.KindConstant
	KindMethod    = store.KindMethod
	KindTypeAlias = store.KindTypeAlias
	KindTrait     = store.KindTrait
	KindImport    = store.KindImport
	KindNamespace = store.KindNamespace
	KindProperty  = store.KindProperty
	KindParameter = store.KindParameter
)

// Reference kinds.
const (
	RefCall        = store.RefCall
	RefImport      = store.RefImport
	RefInherit     = store.RefInherit
	RefImplement   = store.RefImplement
	RefInstantiate = store.RefInstantiate
	RefReference   = store.RefReference
	RefTypeUse     = store.RefTypeUse
)
