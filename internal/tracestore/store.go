// Package tracestore persists recorded simulation traces in a SQLite database.
package tracestore

import (
	"context"
	"database/sql"
	_ "embed"
	"strconv"
	"strings"
	"time"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/trace"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and signals tables
const currentSchemaVersion = 1

// Run describes a stored trace.
type Run struct {
	ID      string
	Circuit string
	Start   lsim.Timestamp
	Ticks   int
	Created time.Time
}

// Store is a trace database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace store")
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open trace store")
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err = applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err = applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(p); err != nil {
			return errors.Wrapf(err, "execute %q", p)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "get user_version")
	}
	if version > currentSchemaVersion {
		return errors.Errorf("trace store schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	if _, err := db.Exec("PRAGMA user_version = " + strconv.Itoa(currentSchemaVersion)); err != nil {
		return errors.Wrap(err, "set user_version")
	}
	return nil
}

// SaveRun stores tr and returns the id of the new run. Run ids are time
// ordered.
func (s *Store) SaveRun(ctx context.Context, tr *trace.Trace) (id string, err error) {
	uid, err := uuid.NewV7()
	if err != nil {
		return "", errors.Wrap(err, "save run")
	}
	id = uid.String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "save run")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, circuit, start, ticks, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, tr.Circuit, int64(tr.Start), tr.Len(), time.Now().UnixNano())
	if err != nil {
		return "", errors.Wrap(err, "save run")
	}
	for i := range tr.Signals {
		sig := &tr.Signals[i]
		if len(sig.Values) != tr.Len() {
			return "", errors.Errorf("save run: signal %q has %d samples, want %d", sig.Name, len(sig.Values), tr.Len())
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO signals (run_id, idx, name, vals) VALUES (?, ?, ?, ?)
		`, id, i, sig.Name, sig.String())
		if err != nil {
			return "", errors.Wrapf(err, "save run: signal %q", sig.Name)
		}
	}
	if err = tx.Commit(); err != nil {
		return "", errors.Wrap(err, "save run")
	}
	return id, nil
}

// ListRuns returns all runs, oldest first. If circuit is not empty, only runs
// of that circuit are returned.
func (s *Store) ListRuns(ctx context.Context, circuit string) ([]Run, error) {
	q := `SELECT id, circuit, start, ticks, created_at FROM runs`
	var args []any
	if circuit != "" {
		q += ` WHERE circuit = ?`
		args = append(args, circuit)
	}
	q += ` ORDER BY id COLLATE BINARY ASC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r       Run
			start   int64
			created int64
		)
		if err = rows.Scan(&r.ID, &r.Circuit, &start, &r.Ticks, &created); err != nil {
			return nil, errors.Wrap(err, "list runs")
		}
		r.Start = lsim.Timestamp(start)
		r.Created = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "list runs")
}

// ResolveID returns the id of the run whose id starts with prefix. The
// prefix must match exactly one run.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", errors.New("empty run id")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2
	`, len(prefix), strings.ToLower(prefix))
	if err != nil {
		return "", errors.Wrap(err, "resolve run id")
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return "", errors.Wrap(err, "resolve run id")
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return "", errors.Wrap(err, "resolve run id")
	}
	switch len(ids) {
	case 0:
		return "", errors.Wrapf(lsim.ErrNotFound, "run %q", prefix)
	case 1:
		return ids[0], nil
	}
	return "", errors.Errorf("run id %q is ambiguous", prefix)
}

// LoadRun returns the trace stored as run id.
func (s *Store) LoadRun(ctx context.Context, id string) (*trace.Trace, error) {
	var (
		tr    trace.Trace
		start int64
		ticks int
	)
	err := s.db.QueryRowContext(ctx, `SELECT circuit, start, ticks FROM runs WHERE id = ?`, id).
		Scan(&tr.Circuit, &start, &ticks)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(lsim.ErrNotFound, "run %q", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load run %q", id)
	}
	tr.Start = lsim.Timestamp(start)

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, vals FROM signals WHERE run_id = ? ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load run %q", id)
	}
	defer rows.Close()
	for rows.Next() {
		var name, vals string
		if err = rows.Scan(&name, &vals); err != nil {
			return nil, errors.Wrapf(err, "load run %q", id)
		}
		sig, err := trace.ParseSignal(name, vals)
		if err != nil {
			return nil, errors.Wrapf(err, "load run %q", id)
		}
		if len(sig.Values) != ticks {
			return nil, errors.Errorf("load run %q: signal %q has %d samples, want %d", id, name, len(sig.Values), ticks)
		}
		tr.Signals = append(tr.Signals, sig)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "load run %q", id)
	}
	return &tr, nil
}

// DeleteRun removes run id and its signals.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete run %q", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "delete run %q", id)
	}
	if n == 0 {
		return errors.Wrapf(lsim.ErrNotFound, "run %q", id)
	}
	return nil
}
