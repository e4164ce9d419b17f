package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestPostgresErrorFromPgx(t *testing.T) {
	wrapped := fmt.Errorf("save tank: %w", &pgconn.PgError{
		Code:           "23514",
		ConstraintName: "ck_tanks_volume_bounds",
		TableName:      "tanks",
	})
	pg, ok := PostgresError(wrapped)
	if !ok {
		t.Fatal("expected pg error")
	}
	if pg.Code != "23514" || pg.Constraint != "ck_tanks_volume_bounds" || pg.Table != "tanks" {
		t.Fatalf("unexpected fields %+v", pg)
	}
}

func TestPostgresErrorFromPq(t *testing.T) {
	pg, ok := PostgresError(&pq.Error{Code: "23505", Constraint: "uq_suppliers_org_oib"})
	if !ok || pg.Code != "23505" || pg.Constraint != "uq_suppliers_org_oib" {
		t.Fatalf("unexpected result %+v %v", pg, ok)
	}
}

func TestDumpWalksChain(t *testing.T) {
	base := &pgconn.PgError{Code: "23503", ConstraintName: "fk_tank_history_tank"}
	err := Wrap(CodeConflict, base, "tank still referenced")

	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries got %v", dump.Chain)
	}
	if dump.PG == nil || dump.PG.Constraint != "fk_tank_history_tank" {
		t.Fatalf("expected pg details got %+v", dump.PG)
	}
}

func TestDumpWithoutPostgres(t *testing.T) {
	dump := Dump(fmt.Errorf("plain"))
	if dump.PG != nil || dump.Code != "" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if empty := Dump(nil); empty.TopMessage != "" || empty.Chain != nil {
		t.Fatalf("nil error should dump empty, got %+v", empty)
	}
}
