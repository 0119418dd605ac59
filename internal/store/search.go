package store

import (
	"database/sql"
	"fmt"
)

const symbolColumns = `s.id, s.name, s.kind, s.file_path,
	s.start_line, s.start_col, s.end_line, s.end_col,
	s.parent_id, s.signature, s.documentation, s.visibility, s.type_info,
	s.complexity, s.quality_score, s.reference_count, s.is_exported, s.created_at`

// Search runs a ranked full-text query over the FTS5 mirror (name,
// documentation, signature, file_path), joined back to the symbols table.
// Results come back in relevance order, truncated to limit. No matches is
// an empty slice, not an error.
func (s *Store) Search(query string, limit int) ([]SymbolEntry, error) {
	rows, err := s.db.Query(`
		SELECT `+symbolColumns+`
		FROM symbols s
		INNER JOIN symbols_fts f ON s.id = f.id
		WHERE symbols_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search %q: %w", query, err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// AllSymbols returns every indexed symbol ordered by name, for bulk
// export and audit use.
func (s *Store) AllSymbols() ([]SymbolEntry, error) {
	rows, err := s.db.Query(`SELECT ` + symbolColumns + ` FROM symbols s ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// SymbolsByFile returns the symbols indexed for one file.
func (s *Store) SymbolsByFile(filePath string) ([]SymbolEntry, error) {
	rows, err := s.db.Query(`SELECT `+symbolColumns+` FROM symbols s WHERE s.file_path = ? ORDER BY s.start_line`, filePath)
	if err != nil {
		return nil, fmt.Errorf("symbols by file: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// ReferencesTo returns every reference whose target is exactly symbolID.
// Since targets are stored as bare names, a bare name matches use sites
// across all files that share it.
func (s *Store) ReferencesTo(symbolID string) ([]SymbolReference, error) {
	rows, err := s.db.Query(`
		SELECT from_symbol_id, to_symbol_id, reference_kind, file_path, line, col, context
		FROM symbol_references
		WHERE to_symbol_id = ?`, symbolID)
	if err != nil {
		return nil, fmt.Errorf("references to %s: %w", symbolID, err)
	}
	defer rows.Close()

	var refs []SymbolReference
	for rows.Next() {
		var ref SymbolReference
		var kind string
		var context sql.NullString
		if err := rows.Scan(&ref.FromSymbolID, &ref.ToSymbolID, &kind,
			&ref.FilePath, &ref.Position.Line, &ref.Position.Column, &context); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		ref.ReferenceKind = ReferenceKind(kind)
		ref.Context = context.String
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// ReferencesByFile returns the references extracted from one file.
func (s *Store) ReferencesByFile(filePath string) ([]SymbolReference, error) {
	rows, err := s.db.Query(`
		SELECT from_symbol_id, to_symbol_id, reference_kind, file_path, line, col, context
		FROM symbol_references
		WHERE file_path = ?
		ORDER BY line, col`, filePath)
	if err != nil {
		return nil, fmt.Errorf("references by file: %w", err)
	}
	defer rows.Close()

	var refs []SymbolReference
	for rows.Next() {
		var ref SymbolReference
		var kind string
		var context sql.NullString
		if err := rows.Scan(&ref.FromSymbolID, &ref.ToSymbolID, &kind,
			&ref.FilePath, &ref.Position.Line, &ref.Position.Column, &context); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		ref.ReferenceKind = ReferenceKind(kind)
		ref.Context = context.String
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func scanSymbols(rows *sql.Rows) ([]SymbolEntry, error) {
	var symbols []SymbolEntry
	for rows.Next() {
		var sym SymbolEntry
		var kind string
		var parent, signature, docs, visibility, typeInfo sql.NullString
		var exported int
		if err := rows.Scan(
			&sym.ID, &sym.Name, &kind, &sym.FilePath,
			&sym.StartPos.Line, &sym.StartPos.Column, &sym.EndPos.Line, &sym.EndPos.Column,
			&parent, &signature, &docs, &visibility, &typeInfo,
			&sym.Complexity, &sym.QualityScore, &sym.ReferenceCount, &exported, &sym.LastModified,
		); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		sym.Kind = SymbolKind(kind)
		sym.ParentID = parent.String
		sym.Signature = signature.String
		sym.Documentation = docs.String
		sym.Visibility = visibility.String
		sym.TypeInfo = typeInfo.String
		sym.IsExported = exported != 0
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
