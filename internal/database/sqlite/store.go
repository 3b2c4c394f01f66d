// Package sqlite implements database.Store on an embedded SQLite file.
// Writers serialize through BEGIN IMMEDIATE; the tickets unique
// constraint still backs the seat pre-check.
package sqlite

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/database"
	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

//go:embed schema.sql
var schema string

// timeLayout has fixed width so text comparison orders timestamps
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Config holds the parameters for opening a Store
type Config struct {
	Path     string
	PoolSize int
	Logger   *slog.Logger
	// Now overrides the clock used for created_at columns
	Now func() time.Time
}

// Store implements database.Store
type Store struct {
	pool   *Pool
	logger *slog.Logger
	now    func() time.Time
}

var _ database.Store = (*Store)(nil)

// Open opens the database file and applies the schema
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	pool, err := OpenPool(PoolConfig{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Store{pool: pool, logger: logger, now: now}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		s.logger.Info("sqlite schema applied")
		return nil
	})
}

// Close releases all pooled connections
func (s *Store) Close() {
	if err := s.pool.Close(); err != nil {
		s.logger.Warn("failed to close sqlite store", "error", err)
	}
}

func (s *Store) timestamp() string {
	return formatTime(s.now())
}

func (s *Store) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// withImmediateTx runs fn in a write transaction that takes the
// database write lock up front
func (s *Store) withImmediateTx(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer endTransaction(&err)
		return fn(conn)
	})
}

// withReadTx runs fn in a deferred transaction so every statement sees
// one snapshot
func (s *Store) withReadTx(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Transaction(conn)(&err)
		return fn(conn)
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// storedTime converts a value produced by formatTime back to a time
func storedTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// translateError maps SQLite constraint codes onto database sentinels
func translateError(err error) error {
	switch sqlite.ErrCode(err) {
	case sqlite.ResultConstraintUnique, sqlite.ResultConstraintPrimaryKey:
		return database.ErrDuplicate
	case sqlite.ResultConstraintForeignKey:
		return database.ErrInvalidReference
	}
	return err
}

// exec runs one statement, calling each for every result row
func exec(conn *sqlite.Conn, query string, args []any, each func(r *row) error) error {
	opts := &sqlitex.ExecOptions{Args: args}
	if each != nil {
		opts.ResultFunc = func(stmt *sqlite.Stmt) error {
			r := &row{stmt: stmt}
			if err := each(r); err != nil {
				return err
			}
			return r.err
		}
	}
	return sqlitex.Execute(conn, query, opts)
}

// execOne runs a statement and returns database.ErrNotFound when it
// produced no row
func execOne(conn *sqlite.Conn, query string, args []any, each func(r *row) error) error {
	found := false
	err := exec(conn, query, args, func(r *row) error {
		found = true
		return each(r)
	})
	if err != nil {
		return err
	}
	if !found {
		return database.ErrNotFound
	}
	return nil
}

// row decodes typed columns and keeps the first decoding error
type row struct {
	stmt *sqlite.Stmt
	err  error
}

func (r *row) text(col int) string { return r.stmt.ColumnText(col) }
func (r *row) int(col int) int     { return r.stmt.ColumnInt(col) }

func (r *row) uuid(col int) uuid.UUID {
	id, err := uuid.Parse(r.stmt.ColumnText(col))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %d: %w", col, err)
	}
	return id
}

func (r *row) time(col int) time.Time {
	t, err := time.Parse(timeLayout, r.stmt.ColumnText(col))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %d: %w", col, err)
	}
	return t
}

func (r *row) nullText(col int) *string {
	if r.stmt.ColumnIsNull(col) {
		return nil
	}
	s := r.stmt.ColumnText(col)
	return &s
}

// where accumulates filter conditions for "?" placeholders
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// contains builds a LIKE pattern matching s anywhere; conditions using
// it must declare ESCAPE '\'. LIKE ignores ASCII case.
func contains(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(s) + "%"
}

// placeholders returns "?, ?, ..." for n arguments
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *Store) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		if err := exec(conn, "DELETE FROM "+table+" WHERE id = ?", []any{id.String()}, nil); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, translateError(err))
		}
		if conn.Changes() == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
