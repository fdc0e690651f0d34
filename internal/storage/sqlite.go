// Package storage exports finished crawl reports to a SQLite database.
// Each export is a separate run; nothing is read back by the crawler.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/masahif/linkaudit/internal/crawler"
	"github.com/masahif/linkaudit/internal/report"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrRunNotFound is returned when a run ID has no row in the database.
	ErrRunNotFound = errors.New("run not found")
	// ErrSchemaVersion is returned when a database was written with another schema.
	ErrSchemaVersion = errors.New("unsupported schema version")
)

// Run is the summary row stored for each exported report.
type Run struct {
	ID          string
	RootURL     string
	StartedAt   time.Time
	Duration    time.Duration
	Checked     int
	Visited     int
	BrokenCount int
	PeakTasks   int
	Complete    bool
}

// SQLiteStorage writes reports to a SQLite file
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dbPath
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	storage := &SQLiteStorage{db: db}

	if err := storage.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// InitSchema creates the database schema and records its version. A database
// carrying a different schema version is rejected.
func (s *SQLiteStorage) InitSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000", // 30 second timeout for locks
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	stored, err := s.GetMeta("schema_version")
	if err != nil {
		return err
	}
	switch stored {
	case "":
		return s.SetMeta("schema_version", schemaVersion)
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: database has %s, want %s", ErrSchemaVersion, stored, schemaVersion)
	}
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveReport stores the report as a new run and returns its ID.
// The whole run is written in one transaction.
func (s *SQLiteStorage) SaveReport(r *report.Report) (string, error) {
	if r == nil {
		return "", errors.New("report is nil")
	}
	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (id, root_url, started_at, duration_ms, checked, visited, broken_count, peak_tasks, complete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		r.RootURL,
		r.StartedAt.UTC().Format(timeLayout),
		r.Duration.Milliseconds(),
		r.Checked,
		r.Visited,
		r.BrokenCount,
		r.PeakTasks,
		boolToInt(r.Complete),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	if err := insertBroken(tx, runID, r.Broken); err != nil {
		return "", err
	}
	if err := insertURLs(tx, "INSERT OR IGNORE INTO visited_pages (run_id, url) VALUES (?, ?)", runID, r.VisitedPages); err != nil {
		return "", fmt.Errorf("failed to save visited pages: %w", err)
	}
	if err := insertURLs(tx, "INSERT OR IGNORE INTO checked_links (run_id, url) VALUES (?, ?)", runID, r.CheckedLinks); err != nil {
		return "", fmt.Errorf("failed to save checked links: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func insertBroken(tx *sql.Tx, runID string, links []crawler.BrokenLink) error {
	if len(links) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO broken_links (run_id, url, referrer, status_code, reason)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, link := range links {
		if _, err := stmt.Exec(runID, link.URL, link.Referrer, link.StatusCode, link.Reason); err != nil {
			return fmt.Errorf("failed to insert broken link %s: %w", link.URL, err)
		}
	}
	return nil
}

func insertURLs(tx *sql.Tx, query, runID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range urls {
		if _, err := stmt.Exec(runID, u); err != nil {
			return fmt.Errorf("failed to insert URL %s: %w", u, err)
		}
	}
	return nil
}

// ListRuns returns every stored run, newest first
func (s *SQLiteStorage) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, root_url, started_at, duration_ms, checked, visited, broken_count, peak_tasks, complete
		FROM runs
		ORDER BY started_at DESC, exported_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID
func (s *SQLiteStorage) GetRun(runID string) (Run, error) {
	row := s.db.QueryRow(`
		SELECT id, root_url, started_at, duration_ms, checked, visited, broken_count, peak_tasks, complete
		FROM runs WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		durationMs int64
		complete   int
	)
	err := row.Scan(&run.ID, &run.RootURL, &startedAt, &durationMs,
		&run.Checked, &run.Visited, &run.BrokenCount, &run.PeakTasks, &complete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.Complete = complete == 1
	return run, nil
}

// ListBrokenLinks returns the broken links of a run, ordered by URL
func (s *SQLiteStorage) ListBrokenLinks(runID string) ([]crawler.BrokenLink, error) {
	rows, err := s.db.Query(`
		SELECT url, referrer, status_code, COALESCE(reason, '')
		FROM broken_links
		WHERE run_id = ?
		ORDER BY url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query broken links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []crawler.BrokenLink
	for rows.Next() {
		var link crawler.BrokenLink
		if err := rows.Scan(&link.URL, &link.Referrer, &link.StatusCode, &link.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan broken link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// CountPages returns how many visited pages and checked links a run recorded
func (s *SQLiteStorage) CountPages(runID string) (visited int, checked int, err error) {
	err = s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM visited_pages WHERE run_id = ?),
			(SELECT COUNT(*) FROM checked_links WHERE run_id = ?)
	`, runID, runID).Scan(&visited, &checked)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return visited, checked, nil
}

// GetMeta retrieves a metadata value
func (s *SQLiteStorage) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM export_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a metadata value
func (s *SQLiteStorage) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
