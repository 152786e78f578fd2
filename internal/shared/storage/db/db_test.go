package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func TestConnectAppliesPoolOptions(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	opts := ServerOptions()
	opts.MaxOpenConns = 7
	db, err := Connect(context.Background(), "ignored", opts, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", ServerOptions(), nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestConnectWrapsOpenFailure(t *testing.T) {
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return nil, driver.ErrBadConn
	}
	defer func() { openDB = prev }()

	_, err := Connect(context.Background(), "ignored", CLIOptions(), nil)
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected wrapped ErrBadConn, got %v", err)
	}
}

func TestConnectSetsApplicationName(t *testing.T) {
	var got string
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		got = dsn
		return nil, driver.ErrBadConn
	}
	defer func() { openDB = prev }()

	_, _ = Connect(context.Background(), "postgres://u:p@db:5432/mockmate?sslmode=disable", ServerOptions(), nil)
	if !strings.Contains(got, "application_name=mockmate-api") || !strings.Contains(got, "sslmode=disable") {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestWithAppName(t *testing.T) {
	cases := []struct{ dsn, want string }{
		{"host=db user=u", "host=db user=u application_name=mockmate-cli"},
		{"postgres://db/x?application_name=ops", "postgres://db/x?application_name=ops"},
		{"postgres://db/x", "postgres://db/x?application_name=mockmate-cli"},
	}
	for _, tc := range cases {
		if got := withAppName(tc.dsn, "mockmate-cli"); got != tc.want {
			t.Fatalf("withAppName(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
	if got := withAppName("host=db", ""); got != "host=db" {
		t.Fatalf("empty name must leave dsn alone, got %q", got)
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 || names[0] != "00001_interview_sessions.sql" || names[1] != "00002_question_usage.sql" {
		t.Fatalf("unexpected migrations %v", names)
	}
	if len(entries) < 2 {
		t.Fatalf("expected embedded migrations, got %d", len(entries))
	}
}
