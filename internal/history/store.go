package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/berth-dev/recall/internal/search"
)

// Store provides SQLite-backed persistence for search history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		options TEXT NOT NULL,
		result_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS search_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		search_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		dialect TEXT NOT NULL,
		score INTEGER NOT NULL,
		path TEXT NOT NULL,
		FOREIGN KEY (search_id) REFERENCES searches(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_search_results_search ON search_results(search_id);

	CREATE TABLE IF NOT EXISTS recaps (
		session_id TEXT NOT NULL,
		ended_at DATETIME NOT NULL,
		model TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, ended_at)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordSearch stores one search run and its ranked results in a single
// transaction.
func (s *Store) RecordSearch(opts search.Options, results []search.Result) (*Search, error) {
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}

	rec := &Search{
		ID:          uuid.New().String(),
		Query:       opts.Query,
		Options:     opts,
		ResultCount: len(results),
		CreatedAt:   s.now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO searches (id, query, options, result_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, string(optsJSON), rec.ResultCount, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert search: %w", err)
	}

	for i, r := range results {
		_, err := tx.Exec(
			`INSERT INTO search_results (search_id, rank, session_id, dialect, score, path)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, i+1, r.ID, string(r.Dialect), r.Score, r.Path,
		)
		if err != nil {
			return nil, fmt.Errorf("insert result %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit search: %w", err)
	}

	return rec, nil
}

// GetSearch retrieves a recorded search by ID. Returns nil, nil when absent.
func (s *Store) GetSearch(id string) (*Search, error) {
	row := s.db.QueryRow(
		`SELECT id, query, options, result_count, created_at
		 FROM searches WHERE id = ?`,
		id,
	)

	rec, err := scanSearch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSearches returns the most recent searches, newest first.
func (s *Store) ListSearches(limit int) ([]Search, error) {
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	rows, err := s.db.Query(
		`SELECT id, query, options, result_count, created_at
		 FROM searches
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query searches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Search
	for rows.Next() {
		rec, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSearch(row scanner) (*Search, error) {
	var (
		rec      Search
		optsJSON string
	)
	if err := row.Scan(&rec.ID, &rec.Query, &optsJSON, &rec.ResultCount, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan search: %w", err)
	}
	if err := json.Unmarshal([]byte(optsJSON), &rec.Options); err != nil {
		return nil, fmt.Errorf("decode options for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// GetResults retrieves the ranked results of a search, best first.
func (s *Store) GetResults(searchID string) ([]ResultRow, error) {
	rows, err := s.db.Query(
		`SELECT search_id, rank, session_id, dialect, score, path
		 FROM search_results
		 WHERE search_id = ?
		 ORDER BY rank ASC`,
		searchID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.SearchID, &r.Rank, &r.SessionID, &r.Dialect, &r.Score, &r.Path); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

// PruneOlderThan deletes searches and recaps created more than days ago.
// It returns the number of searches removed.
func (s *Store) PruneOlderThan(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return s.PruneBefore(s.Cutoff(days))
}

// Cutoff returns the instant days before now on the store's clock.
func (s *Store) Cutoff(days int) time.Time {
	return s.now().AddDate(0, 0, -days)
}

// PruneBefore deletes searches and recaps created before cutoff.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	cutoff = cutoff.UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`DELETE FROM search_results
		 WHERE search_id IN (SELECT id FROM searches WHERE created_at < ?)`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM searches WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete searches: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM recaps WHERE created_at < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("delete recaps: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}

	return removed, nil
}

// CountBefore reports how many searches PruneBefore(cutoff) would remove.
func (s *Store) CountBefore(cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM searches WHERE created_at < ?`, cutoff.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count searches: %w", err)
	}
	return n, nil
}

// SaveRecap stores or replaces the recap body for a session version.
func (s *Store) SaveRecap(sessionID string, endedAt time.Time, model, body string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO recaps (session_id, ended_at, model, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, endedAt.UTC(), model, body, s.now(),
	)
	if err != nil {
		return fmt.Errorf("save recap: %w", err)
	}
	return nil
}

// GetRecap returns the cached recap for a session version, or nil, nil when
// none exists. A session that has grown since the recap has a new endedAt
// and therefore misses.
func (s *Store) GetRecap(sessionID string, endedAt time.Time) (*StoredRecap, error) {
	row := s.db.QueryRow(
		`SELECT session_id, ended_at, model, body, created_at
		 FROM recaps WHERE session_id = ? AND ended_at = ?`,
		sessionID, endedAt.UTC(),
	)

	var r StoredRecap
	err := row.Scan(&r.SessionID, &r.EndedAt, &r.Model, &r.Body, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan recap: %w", err)
	}
	return &r, nil
}
