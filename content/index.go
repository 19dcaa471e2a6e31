package content

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Index is a full-text search index over the calculator catalog, backed by
// a SQLite FTS5 virtual table.
type Index struct {
	db *sql.DB
}

// Hit is one search result.
type Hit struct {
	Path     string
	Title    string
	Category string
	Score    float64
}

// OpenIndex opens (or creates) a search index. Pass ":memory:" for an
// ephemeral index; file-backed indexes use WAL mode.
func OpenIndex(path string) (*Index, error) {
	var db *sql.DB
	var err error

	if path == ":memory:" {
		db, err = sql.Open("sqlite", ":memory:")
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkErr)
		}
		db, err = sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	ftsSQL := `
		CREATE VIRTUAL TABLE IF NOT EXISTS calculators_fts USING fts5(
			title,
			path,
			category,
			subcategory,
			tokenize='porter'
		)
	`
	if _, err := db.Exec(ftsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create FTS5 table: %w", err)
	}

	return &Index{db: db}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Rebuild replaces the index contents with the published subset of the
// given records.
func (ix *Index) Rebuild(records []*Record) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reindex: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM calculators_fts"); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO calculators_fts (title, path, category, subcategory) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		if !record.IsPublished {
			continue
		}
		if _, err := stmt.Exec(record.Title, record.FullPath, record.Category, record.Subcategory); err != nil {
			return fmt.Errorf("failed to index %s: %w", record.FullPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reindex: %w", err)
	}
	return nil
}

// Count returns the number of indexed calculators.
func (ix *Index) Count() (int, error) {
	var count int
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM calculators_fts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Search runs a full-text query ranked by BM25, weighting titles over paths
// and categories. Empty and unmatchable queries return no hits; FTS5 syntax
// errors from user input are swallowed rather than surfaced.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	ftsQuery := sanitizeQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 10
	}

	rows, err := ix.db.Query(`
		SELECT path, title, category, bm25(calculators_fts, 10.0, 5.0, 2.0, 1.0) AS score
		FROM calculators_fts
		WHERE calculators_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.Path, &hit.Title, &hit.Category, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// sanitizeQuery converts user input to FTS5 syntax: terms are stripped of
// FTS5 metacharacters, joined with AND, and the final term matches by
// prefix so partial words still hit.
func sanitizeQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	cleaner := strings.NewReplacer(`"`, "", "(", "", ")", "", "*", "", ":", "", "^", "")
	var parts []string
	for _, field := range fields {
		term := cleaner.Replace(field)
		if term == "" {
			continue
		}
		parts = append(parts, `"`+term+`"`)
	}
	if len(parts) == 0 {
		return ""
	}

	// Prefix-match the last term for as-you-type search.
	parts[len(parts)-1] += "*"
	return strings.Join(parts, " AND ")
}
