package migration

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestMigrations(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func newTestRunner(t *testing.T, db *sql.DB, fsys fstest.MapFS) *Runner {
	t.Helper()
	runner, err := NewRunner(db, fsys, DriverSQLite)
	if err != nil {
		t.Fatalf("failed to create migration runner: %v", err)
	}
	return runner
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count); err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return count == 1
}

func TestNewRunnerValidation(t *testing.T) {
	db := setupTestDB(t)

	if _, err := NewRunner(nil, fstest.MapFS{}, DriverSQLite); err == nil {
		t.Error("expected error for nil database")
	}
	if _, err := NewRunner(db, fstest.MapFS{}, Driver("mysql")); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := NewRunner(db, fstest.MapFS{}, DriverPostgres); err != nil {
		t.Errorf("unexpected error for postgres driver: %v", err)
	}
}

func TestInsertVersionPlaceholder(t *testing.T) {
	db := setupTestDB(t)

	sqliteRunner, _ := NewRunner(db, fstest.MapFS{}, DriverSQLite)
	if !strings.Contains(sqliteRunner.insertVersionSQL(), "?") {
		t.Errorf("sqlite insert = %q, want ? placeholder", sqliteRunner.insertVersionSQL())
	}
	pgRunner, _ := NewRunner(db, fstest.MapFS{}, DriverPostgres)
	if !strings.Contains(pgRunner.insertVersionSQL(), "$1") {
		t.Errorf("postgres insert = %q, want $1 placeholder", pgRunner.insertVersionSQL())
	}
}

func TestGetCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"001_kv.sql": "CREATE TABLE kv (key TEXT PRIMARY KEY);",
	}))

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"002_index.sql": "CREATE INDEX idx ON kv(updated_at);",
		"001_kv.sql":    "CREATE TABLE kv (key TEXT PRIMARY KEY, updated_at TEXT);",
		"README.md":     "not a migration",
	}))

	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "kv" {
		t.Errorf("first migration = %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "index" {
		t.Errorf("second migration = %+v", migrations[1])
	}
}

func TestApplyMigrationsFromScratch(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"001_kv.sql":       "CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB);",
		"002_feedback.sql": "CREATE TABLE feedback (id TEXT PRIMARY KEY, card_id TEXT);",
	}))

	var logs []string
	count, err := runner.ApplyMigrations(func(msg string) { logs = append(logs, msg) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
	if !tableExists(t, db, "kv") || !tableExists(t, db, "feedback") {
		t.Error("migrated tables were not created")
	}
}

func TestApplyMigrationsIncremental(t *testing.T) {
	db := setupTestDB(t)
	fsys := setupTestMigrations(map[string]string{
		"001_kv.sql": "CREATE TABLE kv (key TEXT PRIMARY KEY);",
	})
	runner := newTestRunner(t, db, fsys)

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (1st) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}

	fsys["002_feedback.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE feedback (id TEXT PRIMARY KEY);")}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations (2nd) failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 more migration applied, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestApplyMigrationsNoOp(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"001_kv.sql": "CREATE TABLE kv (key TEXT PRIMARY KEY);",
	}))

	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations applied, got %d", count)
	}
}

func TestMigrationRollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"001_kv.sql":     "CREATE TABLE kv (key TEXT PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE broken (id INTEGER PRIMARY KEY); THIS IS NOT SQL;",
	}))

	count, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected error for broken migration")
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", count)
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version to stay at 1, got %d", version)
	}
	if tableExists(t, db, "broken") {
		t.Error("broken migration was not rolled back")
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"001_kv.sql": "CREATE TABLE kv (key TEXT PRIMARY KEY);",
	}))

	if err := runner.SetVersion(9); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	err := runner.ValidateVersion()
	if !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("ValidateVersion() = %v, want ErrSchemaTooNew", err)
	}
	if _, err := runner.ApplyMigrations(nil); !errors.Is(err, ErrSchemaTooNew) {
		t.Error("expected ApplyMigrations to refuse a newer database")
	}
}

func TestGetLatestVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := newTestRunner(t, db, setupTestMigrations(map[string]string{
		"001_kv.sql":    "SELECT 1;",
		"003_third.sql": "SELECT 1;",
	}))

	latest, err := runner.GetLatestVersion()
	if err != nil {
		t.Fatalf("GetLatestVersion failed: %v", err)
	}
	if latest != 3 {
		t.Errorf("expected latest version 3, got %d", latest)
	}
}

func TestMigrationFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "missing name separator",
			files:   map[string]string{"001.sql": "SELECT 1;"},
			wantErr: "invalid migration filename format",
		},
		{
			name:    "non numeric version",
			files:   map[string]string{"abc_init.sql": "SELECT 1;"},
			wantErr: "invalid version number",
		},
		{
			name:    "zero version",
			files:   map[string]string{"000_init.sql": "SELECT 1;"},
			wantErr: "version must be at least 1",
		},
		{
			name: "duplicate version",
			files: map[string]string{
				"001_kv.sql":    "SELECT 1;",
				"001_other.sql": "SELECT 1;",
			},
			wantErr: "duplicate migration version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			runner := newTestRunner(t, db, setupTestMigrations(tt.files))
			_, err := runner.ReadMigrationFiles()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ReadMigrationFiles() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
