// Package specdb stores NCS specifications in a SQL database, keyed by the
// name of the model they describe. SQLite (driver "sqlite") and Postgres
// (driver "pgx") are supported.
package specdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/m4tt-willi4ms/cctbx-project/spec"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	defaultSQLitePath  = "ncs.db"
	defaultPostgresDSN = "postgres://localhost/ncs?sslmode=disable"
)

// ErrNotFound is returned when no specification is stored under a name.
var ErrNotFound = errors.New("specification not found")

// Store is a table of specifications. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
}

// Summary describes a stored specification without decoding it.
type Summary struct {
	Name   string
	Groups int
	Copies int
}

// Open connects to the database and creates the specification table if
// needed. An empty dsn selects "ncs.db" in the working directory for
// SQLite and a local server for Postgres.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	case DriverPostgres:
		if dsn == "" {
			dsn = defaultPostgresDSN
		}
	default:
		return nil, fmt.Errorf("unsupported database driver '%s' "+
			"(expected '%s' or '%s')", driver, DriverSQLite, DriverPostgres)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.ensureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureTable(ctx context.Context) error {
	payload := "TEXT"
	if s.driver == DriverPostgres {
		payload = "JSONB"
	}
	ddl := `CREATE TABLE IF NOT EXISTS ncs_specs (
		name TEXT PRIMARY KEY,
		num_groups INTEGER NOT NULL,
		num_copies INTEGER NOT NULL,
		payload ` + payload + ` NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure specification table: %w", err)
	}
	return nil
}

// query rewrites the '?' placeholders of q for the store's driver.
func (s *Store) query(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put stores sp under name, replacing any specification already stored
// there.
func (s *Store) Put(ctx context.Context, name string, sp *spec.Spec) error {
	if len(strings.TrimSpace(name)) == 0 {
		return fmt.Errorf("cannot store a specification without a name")
	}
	data, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("encode specification '%s': %w", name, err)
	}
	copies := 0
	for _, g := range sp.Groups {
		copies += len(g.Copies)
	}
	q := s.query(`INSERT INTO ncs_specs (name, num_groups, num_copies, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			num_groups = excluded.num_groups,
			num_copies = excluded.num_copies,
			payload = excluded.payload`)
	if _, err := s.db.ExecContext(ctx, q, name, len(sp.Groups), copies, string(data)); err != nil {
		return fmt.Errorf("store specification '%s': %w", name, err)
	}
	return nil
}

// Get returns the specification stored under name. It fails with
// ErrNotFound if there is none.
func (s *Store) Get(ctx context.Context, name string) (*spec.Spec, error) {
	var payload []byte
	row := s.db.QueryRowContext(ctx,
		s.query(`SELECT payload FROM ncs_specs WHERE name = ?`), name)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
		}
		return nil, fmt.Errorf("load specification '%s': %w", name, err)
	}
	sp := new(spec.Spec)
	if err := json.Unmarshal(payload, sp); err != nil {
		return nil, fmt.Errorf("decode specification '%s': %w", name, err)
	}
	return sp, nil
}

// List returns a summary of every stored specification, ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, num_groups, num_copies FROM ncs_specs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list specifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sums := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Name, &sum.Groups, &sum.Copies); err != nil {
			return nil, fmt.Errorf("scan specification: %w", err)
		}
		sums = append(sums, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specifications: %w", err)
	}
	return sums, nil
}

// Delete removes the specification stored under name. It fails with
// ErrNotFound if there is none.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx,
		s.query(`DELETE FROM ncs_specs WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("delete specification '%s': %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete specification '%s': %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
