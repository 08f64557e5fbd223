// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     reporter
// Description: Request records in SQLite
// License:     MIT
// ============================================================================

package reporter

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/bes/foundation/core/error"
	"github.com/msto63/bes/internal/beserr"
)

// Filter selects records from a SQLiteReporter
type Filter struct {
	RequestID string
	Action    string
	// FailedOnly keeps records with a non-zero status
	FailedOnly bool
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

// SQLiteReporter keeps one row per request in a SQLite database
type SQLiteReporter struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteReporter opens (or creates) the request database at path
func NewSQLiteReporter(path string) (*SQLiteReporter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to create directory")
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to open database")
	}

	r := &SQLiteReporter{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to initialize schema")
	}
	return r, nil
}

func (r *SQLiteReporter) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		request_id TEXT,
		origin TEXT,
		action TEXT,
		command TEXT,
		real_names TEXT,
		status INTEGER NOT NULL,
		error_type TEXT,
		duration_us INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_timestamp ON requests(timestamp);
	CREATE INDEX IF NOT EXISTS idx_requests_request_id ON requests(request_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteReporter) Report(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return beserr.Internal("request database is closed")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO requests (id, timestamp, request_id, origin, action, command, real_names, status, error_type, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Timestamp, rec.RequestID, rec.Origin, rec.Action, rec.Command,
		rec.RealNames, rec.Status, rec.ErrorType, rec.Duration.Microseconds())
	if err != nil {
		return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to store request record")
	}
	return nil
}

// Query returns matching records, newest first
func (r *SQLiteReporter) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, beserr.Internal("request database is closed")
	}

	query := `SELECT id, timestamp, request_id, origin, action, command, real_names, status, error_type, duration_us FROM requests WHERE 1=1`
	var args []interface{}

	if filter.RequestID != "" {
		query += " AND request_id = ?"
		args = append(args, filter.RequestID)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if filter.FailedOnly {
		query += " AND status <> 0"
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until)
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to query request records")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var requestID, origin, action, command, realNames, errorType sql.NullString
		var micros int64
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &requestID, &origin, &action, &command,
			&realNames, &rec.Status, &errorType, &micros); err != nil {
			return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to scan request record")
		}
		rec.RequestID = requestID.String
		rec.Origin = origin.String
		rec.Action = action.String
		rec.Command = command.String
		rec.RealNames = realNames.String
		rec.ErrorType = errorType.String
		rec.Duration = time.Duration(micros) * time.Microsecond
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Stats summarizes the stored records
type Stats struct {
	Total    int64
	Failed   int64
	ByAction map[string]int64
	Oldest   time.Time
	Newest   time.Time
}

// Stats counts stored records by outcome and action
func (r *SQLiteReporter) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, beserr.Internal("request database is closed")
	}

	stats := &Stats{ByAction: make(map[string]int64)}
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status <> 0 THEN 1 ELSE 0 END), 0) FROM requests`)
	if err := row.Scan(&stats.Total, &stats.Failed); err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to count request records")
	}

	rows, err := r.db.QueryContext(ctx, `SELECT COALESCE(action, ''), COUNT(*) FROM requests GROUP BY action`)
	if err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to group request records")
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to scan request count")
		}
		stats.ByAction[action] = count
	}

	if stats.Total > 0 {
		var oldest, newest sql.NullTime
		row := r.db.QueryRowContext(ctx, `SELECT MIN(timestamp), MAX(timestamp) FROM requests`)
		if err := row.Scan(&oldest, &newest); err == nil {
			stats.Oldest = oldest.Time
			stats.Newest = newest.Time
		}
	}
	return stats, rows.Err()
}

// Prune deletes records older than olderThan and returns how many went
func (r *SQLiteReporter) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, beserr.Internal("request database is closed")
	}

	cutoff := time.Now().Add(-olderThan)
	result, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to prune request records")
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Ping checks that the database is open and answering
func (r *SQLiteReporter) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return beserr.Internal("request database is closed")
	}
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLiteReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}
