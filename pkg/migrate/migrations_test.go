package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vinco/vinco-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTankMigrationEnforcesVolumeBounds(t *testing.T) {
	assertContains(t, readMigration(t, "create_cellars"), []string{
		"CREATE TABLE IF NOT EXISTS tanks",
		"CONSTRAINT uq_tanks_cellar_name UNIQUE (cellar_id, name)",
		"CHECK (current_volume >= 0 AND current_volume <= capacity)",
		"DROP TABLE IF EXISTS tanks",
	})
}

func TestTankHistoryMigrationIsAppendOnly(t *testing.T) {
	assertContains(t, readMigration(t, "create_tank_history"), []string{
		"CREATE TABLE IF NOT EXISTS tank_history",
		"'allocation', 'transfer_in', 'transfer_out', 'bottling', 'adjustment'",
		"BEFORE UPDATE OR DELETE ON tank_history",
		"DROP TABLE IF EXISTS tank_history",
	})
}

func TestHarvestMigrationConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_harvests"), []string{
		"CHECK (quantity > 0)",
		"CHECK (juice_yield IS NULL OR juice_yield >= 0)",
		"CHECK (allocated_volume > 0)",
	})
}

func TestEmbeddedMigrationsMatchDirectory(t *testing.T) {
	embedded, err := fs.Glob(migrate.Migrations, migrate.EmbeddedDir+"/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) == 0 || len(embedded) != len(onDisk) {
		t.Fatalf("expected embedded (%d) and disk (%d) migrations to match", len(embedded), len(onDisk))
	}
}

func TestValidateDirAcceptsMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Tank Notes!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_tank_notes.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationSortsAfterNewest(t *testing.T) {
	dir := t.TempDir()
	future := filepath.Join(dir, "29991231235959_future.sql")
	if err := os.WriteFile(future, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	path, err := migrate.CreateSQLMigration(dir, "add bottling lot")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if filepath.Base(path) != "29991231235960_add_bottling_lot.sql" {
		t.Fatalf("expected version after newest, got %s", filepath.Base(path))
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := migrate.CreateSQLMigration(t.TempDir(), " !! "); err == nil {
		t.Fatal("expected error for empty slug")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"bad_name.sql":                      "-- +goose Up\n-- +goose Down\n",
		"20250101000000_missing_down.sql":   "-- +goose Up\nSELECT 1;\n",
		"20250101000000_down_before_up.sql": "-- +goose Down\n-- +goose Up\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := migrate.ValidateDir(dir); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
