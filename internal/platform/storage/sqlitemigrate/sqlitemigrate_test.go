package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyMigrationsRecordsApplied(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"001_saves.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE saves(slot TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE saves;")},
	}

	applied, err := ApplyMigrations(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if want := []string{"001_saves.sql"}; !slices.Equal(applied, want) {
		t.Fatalf("applied = %v, want %v", applied, want)
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
		t.Fatalf("migration rows = %d, want 1", got)
	}
	if !tableExists(t, db, "saves") {
		t.Fatal("expected saves table to exist")
	}
}

func TestApplyMigrationsSkipsAlreadyApplied(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"001_saves.sql": &fstest.MapFile{Data: []byte("CREATE TABLE saves(slot TEXT PRIMARY KEY);")},
	}
	ctx := context.Background()
	if _, err := ApplyMigrations(ctx, db, migrations, ""); err != nil {
		t.Fatalf("apply: %v", err)
	}
	applied, err := ApplyMigrations(ctx, db, migrations, "")
	if err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("applied = %v, want none", applied)
	}
}

func TestApplyMigrationsDoesNotRecordFailedMigration(t *testing.T) {
	db := openInMemoryDB(t)
	ctx := context.Background()
	bad := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT table things(id INT);")},
	}
	if _, err := ApplyMigrations(ctx, db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 0 {
		t.Fatalf("migration rows = %d, want 0", got)
	}

	good := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);")},
	}
	if _, err := ApplyMigrations(ctx, db, good, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
		t.Fatalf("migration rows = %d, want 1", got)
	}
}

func TestApplyMigrationsRespectsRoot(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"saves/001_saves.sql": &fstest.MapFile{Data: []byte("CREATE TABLE saves(slot TEXT PRIMARY KEY);")},
		"saves/notes.txt":     &fstest.MapFile{Data: []byte("ignored")},
		"other/001_other.sql": &fstest.MapFile{Data: []byte("CREATE TABLE other(id TEXT);")},
	}
	if _, err := ApplyMigrations(context.Background(), db, migrations, "saves"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var key string
	if err := db.QueryRow("SELECT name FROM schema_migrations LIMIT 1").Scan(&key); err != nil {
		t.Fatalf("query key: %v", err)
	}
	if key != "saves/001_saves.sql" {
		t.Fatalf("key = %q, want saves/001_saves.sql", key)
	}
	if tableExists(t, db, "other") {
		t.Fatal("expected migrations outside root to be ignored")
	}
}

func TestListOrdersByName(t *testing.T) {
	migrations := fstest.MapFS{
		"002_b.sql": &fstest.MapFile{Data: []byte("B")},
		"001_a.sql": &fstest.MapFile{Data: []byte("A")},
	}
	list, err := List(migrations, ".")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "001_a.sql" || list[1].Up != "B" {
		t.Fatalf("list = %+v, want 001_a then 002_b", list)
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "CREATE TABLE a(id INT);", want: "CREATE TABLE a(id INT);"},
		{in: "-- +migrate Up\nA\n-- +migrate Down\nB", want: "\nA\n"},
		{in: "-- +migrate Up\nA", want: "\nA"},
	}
	for _, tt := range tests {
		if got := ExtractUpMigration(tt.in); got != tt.want {
			t.Fatalf("ExtractUpMigration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if !IsAlreadyExistsError(errors.New("table saves already exists")) {
		t.Fatal("expected already exists to match")
	}
	if IsAlreadyExistsError(errors.New("syntax error")) {
		t.Fatal("expected syntax error not to match")
	}
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	// A second pooled connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		t.Fatalf("query int value: %v", err)
	}
	return value
}

func tableExists(t *testing.T, db *sql.DB, tableName string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", tableName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("check table exists: %v", err)
	}
	return name == tableName
}
