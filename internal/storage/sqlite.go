package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		visited_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_visited_at ON visitors (visited_at)`,
}

// SQLiteStorage persists visits in a SQLite database.
type SQLiteStorage struct {
	db        *sql.DB
	retention time.Duration
	clock     func() time.Time
}

// OpenSQLite opens (creating if needed) the visit database at path. Visits
// older than retention are removed by Prune; zero keeps everything.
func OpenSQLite(ctx context.Context, path string, retention time.Duration) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate visitors table: %w", err)
		}
	}

	return &SQLiteStorage{
		db:        db,
		retention: retention,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// RecordVisit inserts visit.
func (s *SQLiteStorage) RecordVisit(ctx context.Context, visit Visit) error {
	if err := validateVisit(&visit, s.clock); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, visited_at) VALUES (?, ?, ?, ?)`,
		visit.HashedIP, visit.UserAgent, visit.Path, visit.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Stats aggregates the stored visits.
func (s *SQLiteStorage) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT hashed_ip) FROM visitors`)
	if err := row.Scan(&stats.TotalVisits, &stats.UniqueVisitors); err != nil {
		return Stats{}, fmt.Errorf("count visits: %w", err)
	}

	startOfDay := truncateToDay(s.clock()).UnixNano()
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, startOfDay)
	if err := row.Scan(&stats.VisitsToday); err != nil {
		return Stats{}, fmt.Errorf("count visits today: %w", err)
	}

	topPaths, err := s.topPaths(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.TopPaths = topPaths

	recent, err := s.recentVisits(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.RecentVisits = recent

	return stats, nil
}

func (s *SQLiteStorage) topPaths(ctx context.Context) ([]PathCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS views
		FROM visitors
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT ?`, maxTopPaths)
	if err != nil {
		return nil, fmt.Errorf("query top paths: %w", err)
	}
	defer rows.Close()

	out := []PathCount{}
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			return nil, fmt.Errorf("scan top path: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) recentVisits(ctx context.Context) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hashed_ip, user_agent, path, visited_at
		FROM visitors
		ORDER BY visited_at DESC, id DESC
		LIMIT ?`, maxRecentVisits)
	if err != nil {
		return nil, fmt.Errorf("query recent visits: %w", err)
	}
	defer rows.Close()

	out := []Visit{}
	for rows.Next() {
		var (
			v  Visit
			ns int64
		)
		if err := rows.Scan(&v.HashedIP, &v.UserAgent, &v.Path, &ns); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Timestamp = time.Unix(0, ns).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

// Prune deletes visits older than the retention window and returns how many
// rows were removed.
func (s *SQLiteStorage) Prune(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.clock().Add(-s.retention).UnixNano()
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune visits: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
