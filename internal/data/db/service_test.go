package db

import (
	"net/url"
	"testing"
)

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	cfg := Config{
		PostgresHost:     "db.internal",
		PostgresPort:     "5433",
		PostgresUser:     "tally",
		PostgresPassword: "p@ss/w?rd#1",
		PostgresName:     "tally",
		PostgresSSLMode:  "require",
	}
	dsn := cfg.PostgresDSN()

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}
	if u.Host != "db.internal:5433" || u.Path != "/tally" {
		t.Fatalf("host/path: got %q %q", u.Host, u.Path)
	}
	if pw, _ := u.User.Password(); pw != cfg.PostgresPassword || u.User.Username() != "tally" {
		t.Fatalf("credentials did not survive: %q", dsn)
	}
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Fatalf("sslmode: got %q", got)
	}
}

func TestPostgresDSNWithoutPassword(t *testing.T) {
	dsn := Config{PostgresHost: "localhost", PostgresPort: "5432", PostgresUser: "postgres", PostgresName: "tally", PostgresSSLMode: "disable"}.PostgresDSN()
	if want := "postgres://postgres@localhost:5432/tally?sslmode=disable"; dsn != want {
		t.Fatalf("want=%q got=%q", want, dsn)
	}
}

func TestSQLiteDSNDefaults(t *testing.T) {
	if got := sqliteDSN(" tally.db "); got != "tally.db?_busy_timeout=5000&_journal_mode=WAL" {
		t.Fatalf("got %q", got)
	}
	if got := sqliteDSN("file::memory:?cache=shared"); got != "file::memory:?cache=shared" {
		t.Fatalf("explicit params must be kept, got %q", got)
	}
}
