package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mackresearch/tickersent/pkg/source"
)

// Record is a cached raw provider record for one ticker.
type Record struct {
	ID        int64     `db:"id" json:"id"`
	Ticker    string    `db:"ticker" json:"ticker"`
	Source    string    `db:"source" json:"source"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Date      string    `db:"date" json:"date"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

// FetchLog records one fetch attempt against a source.
type FetchLog struct {
	ID        int64     `db:"id" json:"id"`
	Ticker    string    `db:"ticker" json:"ticker"`
	Source    string    `db:"source" json:"source"`
	Count     int       `db:"count" json:"count"`
	Error     string    `db:"error" json:"error,omitempty"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

// ListOpts controls record listing.
type ListOpts struct {
	Ticker string
	Source source.SourceType
	Since  time.Time
	Limit  int
}

// Store is the persistence interface for the record cache.
type Store interface {
	InsertRecords(ctx context.Context, ticker string, src source.SourceType, recs []source.Record) error
	ListRecords(ctx context.Context, opts ListOpts) ([]Record, error)
	LogFetch(ctx context.Context, ticker string, src source.SourceType, count int, fetchErr error) error
	ListFetchLog(ctx context.Context, ticker string, limit int) ([]FetchLog, error)
	CountBySource(ctx context.Context) (map[source.SourceType]int, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertRecords(ctx context.Context, ticker string, src source.SourceType, recs []source.Record) error {
	now := time.Now().UTC()
	for _, rec := range recs {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO records (ticker, source, title, body, date, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ticker, src, rec.Title, rec.Body, rec.Date, now)
		if err != nil {
			return fmt.Errorf("insert record %s/%s: %w", ticker, src, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, opts ListOpts) ([]Record, error) {
	query := "SELECT * FROM records WHERE 1=1"
	var args []any

	if opts.Ticker != "" {
		query += " AND ticker = ?"
		args = append(args, opts.Ticker)
	}
	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if !opts.Since.IsZero() {
		query += " AND fetched_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY fetched_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var records []Record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) LogFetch(ctx context.Context, ticker string, src source.SourceType, count int, fetchErr error) error {
	errMsg := ""
	if fetchErr != nil {
		errMsg = fetchErr.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_log (ticker, source, count, error, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`, ticker, src, count, errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("log fetch %s/%s: %w", ticker, src, err)
	}
	return nil
}

func (s *SQLiteStore) ListFetchLog(ctx context.Context, ticker string, limit int) ([]FetchLog, error) {
	query := "SELECT * FROM fetch_log WHERE 1=1"
	var args []any

	if ticker != "" {
		query += " AND ticker = ?"
		args = append(args, ticker)
	}
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY fetched_at DESC LIMIT ?"
	args = append(args, limit)

	var logs []FetchLog
	if err := s.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list fetch log: %w", err)
	}
	return logs, nil
}

func (s *SQLiteStore) CountBySource(ctx context.Context) (map[source.SourceType]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source, COUNT(*) as cnt FROM records GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("count records by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[source.SourceType]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[source.SourceType(src)] = cnt
	}
	return counts, nil
}
