package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func testSymbol(id, name, filePath string) SymbolEntry {
	return SymbolEntry{
		ID:           id,
		Name:         name,
		Kind:         KindFunction,
		FilePath:     filePath,
		StartPos:     Position{Line: 1, Column: 0},
		EndPos:       Position{Line: 5, Column: 1},
		Signature:    "fn " + name + "()",
		Complexity:   1,
		QualityScore: 8.0,
		IsExported:   true,
	}
}

// --- schema ---

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestNewStore_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	var on int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}

// --- ReplaceFile ---

func TestReplaceFile_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	sym := testSymbol("a.rs:process:1", "process", "a.rs")
	sym.Documentation = "Processes the input."
	sym.Visibility = "pub"
	ref := SymbolReference{
		FromSymbolID:  "a.rs:process:1",
		ToSymbolID:    "helper",
		ReferenceKind: RefCall,
		FilePath:      "a.rs",
		Position:      Position{Line: 3, Column: 8},
		Context:       "helper();",
	}
	require.NoError(t, s.ReplaceFile("a.rs", []SymbolEntry{sym}, []SymbolReference{ref}))

	symbols, err := s.SymbolsByFile("a.rs")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	got := symbols[0]
	assert.Equal(t, sym.ID, got.ID)
	assert.Equal(t, KindFunction, got.Kind)
	assert.Equal(t, "Processes the input.", got.Documentation)
	assert.Equal(t, "pub", got.Visibility)
	assert.Equal(t, 8.0, got.QualityScore)
	assert.True(t, got.IsExported)
	assert.False(t, got.LastModified.IsZero())

	refs, err := s.ReferencesByFile("a.rs")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, ref, refs[0])
}

func TestReplaceFile_ReindexLeavesNoDuplicates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	ref := SymbolReference{ToSymbolID: "helper", ReferenceKind: RefCall, FilePath: "a.rs", Position: Position{Line: 2}}
	batch := []SymbolEntry{testSymbol("a.rs:process:1", "process", "a.rs")}
	require.NoError(t, s.ReplaceFile("a.rs", batch, []SymbolReference{ref}))
	require.NoError(t, s.ReplaceFile("a.rs", batch, []SymbolReference{ref}))

	symbols, err := s.SymbolsByFile("a.rs")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)

	refs, err := s.ReferencesByFile("a.rs")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestReplaceFile_ReindexReplacesOldRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:old_name:1", "old_name", "a.rs")}, nil))
	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:new_name:1", "new_name", "a.rs")}, nil))

	symbols, err := s.SymbolsByFile("a.rs")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "new_name", symbols[0].Name)
}

func TestReplaceFile_EmptyBatchClearsFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:process:1", "process", "a.rs")},
		[]SymbolReference{{ToSymbolID: "helper", ReferenceKind: RefCall, FilePath: "a.rs"}}))
	require.NoError(t, s.ReplaceFile("a.rs", nil, nil))

	symbols, err := s.SymbolsByFile("a.rs")
	require.NoError(t, err)
	assert.Empty(t, symbols)
	refs, err := s.ReferencesByFile("a.rs")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestReplaceFile_OtherFilesUntouched(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:alpha:1", "alpha", "a.rs")}, nil))
	require.NoError(t, s.ReplaceFile("b.rs",
		[]SymbolEntry{testSymbol("b.rs:beta:1", "beta", "b.rs")}, nil))
	require.NoError(t, s.ReplaceFile("a.rs", nil, nil))

	symbols, err := s.SymbolsByFile("b.rs")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)
}

func TestReplaceFile_ParentChildSameBatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	parent := testSymbol("w.py:Widget:1", "Widget", "w.py")
	parent.Kind = KindClass
	child := testSymbol("w.py:render:3", "render", "w.py")
	child.Kind = KindMethod
	child.ParentID = parent.ID

	// Extraction emits parents before children; the FK holds mid-batch.
	require.NoError(t, s.ReplaceFile("w.py", []SymbolEntry{parent, child}, nil))
	require.NoError(t, s.ReplaceFile("w.py", []SymbolEntry{parent, child}, nil))

	symbols, err := s.SymbolsByFile("w.py")
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	assert.Equal(t, parent.ID, symbols[1].ParentID)
}

func TestReplaceFile_SameBatchIDCollisionKeepsLast(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first := testSymbol("a.c:node:1", "node", "a.c")
	first.Kind = KindStruct
	second := testSymbol("a.c:node:1", "node", "a.c")
	second.Kind = KindTypeAlias
	require.NoError(t, s.ReplaceFile("a.c", []SymbolEntry{first, second}, nil))

	symbols, err := s.SymbolsByFile("a.c")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, KindTypeAlias, symbols[0].Kind)

	// The FTS mirror holds exactly one row for the surviving symbol.
	results, err := s.Search("node", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestReplaceFile_RollbackKeepsOldState(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:process:1", "process", "a.rs")},
		[]SymbolReference{{ToSymbolID: "helper", ReferenceKind: RefCall, FilePath: "a.rs"}}))

	// A dangling parent_id violates the self-FK mid-transaction.
	bad := testSymbol("a.rs:broken:9", "broken", "a.rs")
	bad.ParentID = "nonexistent"
	err := s.ReplaceFile("a.rs", []SymbolEntry{bad}, nil)
	require.Error(t, err)

	symbols, qerr := s.SymbolsByFile("a.rs")
	require.NoError(t, qerr)
	require.Len(t, symbols, 1)
	assert.Equal(t, "process", symbols[0].Name)
	refs, qerr := s.ReferencesByFile("a.rs")
	require.NoError(t, qerr)
	assert.Len(t, refs, 1)
}

// --- search ---

func TestSearch_MatchesNameAndDocumentation(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	named := testSymbol("a.rs:tokenize:1", "tokenize", "a.rs")
	documented := testSymbol("a.rs:scan:10", "scan", "a.rs")
	documented.Documentation = "Splits input before we tokenize it."
	unrelated := testSymbol("a.rs:render:20", "render", "a.rs")
	require.NoError(t, s.ReplaceFile("a.rs", []SymbolEntry{named, documented, unrelated}, nil))

	results, err := s.Search("tokenize", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The exact name match outranks the documentation mention.
	assert.Equal(t, named.ID, results[0].ID)
	assert.Equal(t, documented.ID, results[1].ID)
}

func TestSearch_RespectsLimit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := []SymbolEntry{
		testSymbol("a.rs:parse_header:1", "parse_header", "a.rs"),
		testSymbol("a.rs:parse_body:5", "parse_body", "a.rs"),
		testSymbol("a.rs:parse_footer:9", "parse_footer", "a.rs"),
	}
	require.NoError(t, s.ReplaceFile("a.rs", batch, nil))

	results, err := s.Search("parse_header OR parse_body OR parse_footer", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	results, err := s.Search("zebra", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_StaleEntriesGoneAfterReindex(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:obsolete:1", "obsolete", "a.rs")}, nil))
	require.NoError(t, s.ReplaceFile("a.rs",
		[]SymbolEntry{testSymbol("a.rs:replacement:1", "replacement", "a.rs")}, nil))

	gone, err := s.Search("obsolete", 10)
	require.NoError(t, err)
	assert.Empty(t, gone, "the FTS mirror must drop deleted rows")

	found, err := s.Search("replacement", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

// --- listings ---

func TestAllSymbols_OrderedByName(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs", []SymbolEntry{
		testSymbol("a.rs:zeta:1", "zeta", "a.rs"),
		testSymbol("a.rs:alpha:5", "alpha", "a.rs"),
		testSymbol("a.rs:mid:9", "mid", "a.rs"),
	}, nil))

	symbols, err := s.AllSymbols()
	require.NoError(t, err)
	require.Len(t, symbols, 3)
	assert.Equal(t, "alpha", symbols[0].Name)
	assert.Equal(t, "mid", symbols[1].Name)
	assert.Equal(t, "zeta", symbols[2].Name)
}

func TestReferencesTo_MatchesAcrossFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFile("a.rs", nil, []SymbolReference{
		{FromSymbolID: "a.rs:main:0", ToSymbolID: "helper", ReferenceKind: RefCall, FilePath: "a.rs", Position: Position{Line: 2}},
		{FromSymbolID: "a.rs:main:0", ToSymbolID: "other", ReferenceKind: RefCall, FilePath: "a.rs", Position: Position{Line: 3}},
	}))
	require.NoError(t, s.ReplaceFile("b.rs", nil, []SymbolReference{
		{FromSymbolID: "b.rs:setup:0", ToSymbolID: "helper", ReferenceKind: RefImport, FilePath: "b.rs", Position: Position{Line: 0}},
	}))

	refs, err := s.ReferencesTo("helper")
	require.NoError(t, err)
	require.Len(t, refs, 2)

	refs, err = s.ReferencesTo("nobody")
	require.NoError(t, err)
	assert.Empty(t, refs)
}
