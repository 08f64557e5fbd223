// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     container
// Description: Persistent container store on SQLite
// License:     MIT
// ============================================================================

package container

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
	"github.com/msto63/bes/internal/dhi"
)

// SQLite is a persistent container store
type SQLite struct {
	name   string
	types  *TypeMatch
	db     *sql.DB
	closed bool
	mu     sync.RWMutex
}

// NewSQLite opens (or creates) the store database at path
func NewSQLite(name, path string, types *TypeMatch) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to create directory")
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to open database")
	}

	store := &SQLite{name: name, types: types, db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to initialize schema")
	}
	return store, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS containers (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		symbolic_name TEXT NOT NULL UNIQUE,
		real_name TEXT NOT NULL,
		container_type TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name returns the store name
func (s *SQLite) Name() string {
	return s.name
}

// Add stores a container, replacing one with the same symbolic name
func (s *SQLite) Add(ctx context.Context, sym, real, typ string) error {
	if sym == "" || real == "" {
		return beserr.SyntaxUser("Unable to add container, symbolic name and real name must be specified")
	}
	if typ == "" {
		typ = s.types.Match(real)
	}
	if typ == "" {
		return beserr.SyntaxUser("Unable to add container, type of data must be specified for %s", real)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO containers (symbolic_name, real_name, container_type, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbolic_name) DO UPDATE SET
			real_name = excluded.real_name,
			container_type = excluded.container_type,
			updated_at = excluded.updated_at
	`, sym, real, typ, time.Now())
	if err != nil {
		return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to store container")
	}
	return nil
}

// Del removes one container
func (s *SQLite) Del(ctx context.Context, sym string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM containers WHERE symbolic_name = ?`, sym)
	if err != nil {
		return false, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to delete container")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DelAll removes every container
func (s *SQLite) DelAll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM containers`); err != nil {
		return false, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to delete containers")
	}
	return true, nil
}

// LookFor returns the named container
func (s *SQLite) LookFor(ctx context.Context, sym string) (*dhi.Container, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	var real, typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT real_name, container_type FROM containers WHERE symbolic_name = ?`, sym).Scan(&real, &typ)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to query container")
	}
	return dhi.NewContainer(sym, real, typ), true, nil
}

// Show lists the store in insertion order
func (s *SQLite) Show(ctx context.Context, info dhi.InfoBuilder) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT symbolic_name, real_name, container_type FROM containers ORDER BY seq`)
	if err != nil {
		return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to list containers")
	}
	defer rows.Close()

	var containers []*dhi.Container
	for rows.Next() {
		var sym, real, typ string
		if err := rows.Scan(&sym, &real, &typ); err != nil {
			return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to scan container")
		}
		containers = append(containers, dhi.NewContainer(sym, real, typ))
	}
	if err := rows.Err(); err != nil {
		return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to list containers")
	}
	showContainers(info, s.name, containers)
	return nil
}

// Close closes the database; later operations fail
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLite) checkOpen() error {
	if s.closed {
		return beserr.Internal("container store %s is closed", s.name)
	}
	return nil
}
