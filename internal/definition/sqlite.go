// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     definition
// Description: Persistent definition store on SQLite
// License:     MIT
// ============================================================================

package definition

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	mdwerror "github.com/msto63/bes/foundation/core/error"
	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
)

// storedContainer is the JSON form of a container inside a definition row
type storedContainer struct {
	SymbolicName   string `json:"symbolic_name"`
	RealName       string `json:"real_name"`
	Type           string `json:"type"`
	Constraint     string `json:"constraint,omitempty"`
	Attributes     string `json:"attributes,omitempty"`
	DAP4Constraint string `json:"dap4_constraint,omitempty"`
	DAP4Function   string `json:"dap4_function,omitempty"`
	Valid          bool   `json:"valid"`
}

// SQLite is a persistent definition store
type SQLite struct {
	name   string
	db     *sql.DB
	closed bool
	mu     sync.RWMutex
}

// NewSQLite opens (or creates) the store database at path
func NewSQLite(name, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to create directory")
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to open database")
	}

	store := &SQLite{name: name, db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to initialize schema")
	}
	return store, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS definitions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		containers TEXT NOT NULL,
		agg_handler TEXT,
		agg_cmd TEXT,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Name returns the store name
func (s *SQLite) Name() string {
	return s.name
}

// Add stores def; false when the name is taken
func (s *SQLite) Add(ctx context.Context, def *Definition) (bool, error) {
	stored := make([]storedContainer, len(def.Containers))
	for i, c := range def.Containers {
		stored[i] = storedContainer{
			SymbolicName:   c.SymbolicName,
			RealName:       c.RealName,
			Type:           c.Type,
			Constraint:     c.Constraint,
			Attributes:     c.Attributes,
			DAP4Constraint: c.DAP4Constraint,
			DAP4Function:   c.DAP4Function,
			Valid:          c.Valid,
		}
	}
	containersJSON, err := json.Marshal(stored)
	if err != nil {
		return false, beserr.Wrap(err, mdwerror.CodeBESInternal, "failed to encode containers")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO definitions (name, containers, agg_handler, agg_cmd, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, def.Name, string(containersJSON), def.AggHandler, def.AggCmd, time.Now())
	if err != nil {
		return false, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to store definition")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Del removes one definition
func (s *SQLite) Del(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM definitions WHERE name = ?`, name)
	if err != nil {
		return false, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to delete definition")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DelAll removes every definition
func (s *SQLite) DelAll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM definitions`); err != nil {
		return false, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to delete definitions")
	}
	return true, nil
}

// LookFor returns the named definition
func (s *SQLite) LookFor(ctx context.Context, name string) (*Definition, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT name, containers, agg_handler, agg_cmd FROM definitions WHERE name = ?`, name)
	def, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// Show lists the store in insertion order
func (s *SQLite) Show(ctx context.Context, info dhi.InfoBuilder) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, containers, agg_handler, agg_cmd FROM definitions ORDER BY seq`)
	if err != nil {
		return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to list definitions")
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to list definitions")
	}
	showDefinitions(info, s.name, defs)
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
		return beserr.Internal("definition store %s is closed", s.name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDefinition(row scanner) (*Definition, error) {
	var (
		def            Definition
		containersJSON string
		aggHandler     sql.NullString
		aggCmd         sql.NullString
	)
	if err := row.Scan(&def.Name, &containersJSON, &aggHandler, &aggCmd); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to scan definition")
	}

	var stored []storedContainer
	if err := json.Unmarshal([]byte(containersJSON), &stored); err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeDatabaseError, "failed to decode containers")
	}
	for _, sc := range stored {
		c := dhi.NewContainer(sc.SymbolicName, sc.RealName, sc.Type)
		c.Constraint = sc.Constraint
		c.Attributes = sc.Attributes
		c.DAP4Constraint = sc.DAP4Constraint
		c.DAP4Function = sc.DAP4Function
		c.Valid = sc.Valid
		def.Containers = append(def.Containers, c)
	}
	def.AggHandler = aggHandler.String
	def.AggCmd = aggCmd.String
	return &def, nil
}
