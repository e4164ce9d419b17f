package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vinco/vinco-backend/pkg/config"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewOpensSQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:client_" + uuid.NewString() + "?mode=memory&cache=shared",
	}
	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if client.DB().Dialector.Name() != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %s", client.DB().Dialector.Name())
	}
}

func TestMapError(t *testing.T) {
	if MapError(nil, "tank") != nil {
		t.Fatal("expected nil for nil error")
	}

	notFound := pkgerrors.As(MapError(gorm.ErrRecordNotFound, "tank"))
	if notFound == nil || notFound.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", notFound)
	}

	dup := pkgerrors.As(MapError(errors.New("UNIQUE constraint failed: tanks.name"), "tank"))
	if dup == nil || dup.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", dup)
	}

	other := pkgerrors.As(MapError(errors.New("connection reset"), "tank"))
	if other == nil || other.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency, got %v", other)
	}

	typed := pkgerrors.New(pkgerrors.CodeInvalidOperation, "full")
	if got := MapError(typed, "tank"); got != typed {
		t.Fatalf("expected typed error to pass through, got %v", got)
	}
}

func TestIsUniqueViolationPgError(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "uq_tanks_cellar_name"}
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected pg unique violation")
	}
	if !IsUniqueViolation(err, "uq_tanks_cellar_name") {
		t.Fatal("expected constraint match")
	}
	if IsUniqueViolation(err, "other") {
		t.Fatal("expected constraint mismatch")
	}
}

func TestMapErrorConstraintViolations(t *testing.T) {
	fk := pkgerrors.As(MapError(&pgconn.PgError{Code: "23503", ConstraintName: "tanks_cellar_id_fkey"}, "cellar"))
	if fk == nil || fk.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for fk violation, got %v", fk)
	}

	check := pkgerrors.As(MapError(&pgconn.PgError{Code: "23514", ConstraintName: "ck_tanks_volume_bounds"}, "tank"))
	if check == nil || check.Code() != pkgerrors.CodeInvalidOperation {
		t.Fatalf("expected invalid operation for check violation, got %v", check)
	}
	details, _ := check.Details().(map[string]any)
	if details["constraint"] != "ck_tanks_volume_bounds" {
		t.Fatalf("expected constraint detail, got %v", check.Details())
	}

	sqliteCheck := pkgerrors.As(MapError(errors.New("CHECK constraint failed: ck_tanks_capacity"), "tank"))
	if sqliteCheck == nil || sqliteCheck.Code() != pkgerrors.CodeInvalidOperation {
		t.Fatalf("expected invalid operation for sqlite check, got %v", sqliteCheck)
	}
}
