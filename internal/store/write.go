package store

import (
	"database/sql"
	"fmt"
)

// ReplaceFile atomically replaces all indexed data for one file: within a
// single transaction it deletes the file's symbol and reference rows, then
// inserts the new batch. Readers never observe a mix of old and new rows.
// On any failure the transaction is rolled back and nothing persists.
func (s *Store) ReplaceFile(filePath string, symbols []SymbolEntry, references []SymbolReference) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM symbol_references WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("delete old references: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM symbols WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("delete old symbols: %w", err)
	}

	// A plain INSERT keeps the FTS triggers exact: REPLACE's implicit
	// delete would bypass symbols_fts_delete and leave a stale FTS row.
	// Batches are deduplicated by id instead, last entry wins.
	symStmt, err := tx.Prepare(`INSERT INTO symbols (
		id, name, kind, file_path, start_line, start_col, end_line, end_col,
		parent_id, signature, documentation, visibility, type_info,
		complexity, quality_score, reference_count, is_exported
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer symStmt.Close()

	deduped := dedupeByID(symbols)
	for i := range deduped {
		sym := &deduped[i]
		if _, err := symStmt.Exec(
			sym.ID, sym.Name, string(sym.Kind), sym.FilePath,
			sym.StartPos.Line, sym.StartPos.Column, sym.EndPos.Line, sym.EndPos.Column,
			nullable(sym.ParentID), nullable(sym.Signature), nullable(sym.Documentation),
			nullable(sym.Visibility), nullable(sym.TypeInfo),
			sym.Complexity, sym.QualityScore, sym.ReferenceCount, boolToInt(sym.IsExported),
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.ID, err)
		}
	}

	refStmt, err := tx.Prepare(`INSERT INTO symbol_references (
		from_symbol_id, to_symbol_id, reference_kind, file_path, line, col, context
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare reference insert: %w", err)
	}
	defer refStmt.Close()

	for i := range references {
		ref := &references[i]
		if _, err := refStmt.Exec(
			ref.FromSymbolID, ref.ToSymbolID, string(ref.ReferenceKind),
			ref.FilePath, ref.Position.Line, ref.Position.Column, ref.Context,
		); err != nil {
			return fmt.Errorf("insert reference to %s: %w", ref.ToSymbolID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// dedupeByID collapses same-batch id collisions, keeping the last entry
// at the first occurrence's position so parents still precede children.
func dedupeByID(symbols []SymbolEntry) []SymbolEntry {
	seen := make(map[string]int, len(symbols))
	deduped := make([]SymbolEntry, 0, len(symbols))
	for i := range symbols {
		if at, ok := seen[symbols[i].ID]; ok {
			deduped[at] = symbols[i]
			continue
		}
		seen[symbols[i].ID] = len(deduped)
		deduped = append(deduped, symbols[i])
	}
	return deduped
}

// nullable maps "" to NULL so optional text columns and the parent_id
// self-FK stay clean.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
