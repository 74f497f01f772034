package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpWalksChain(t *testing.T) {
	root := stdErrors.New("disk full")
	err := fmt.Errorf("save card: %w", Wrap(CodeIO, root, "write document"))

	d := Dump(err)
	if d.Code != CodeIO {
		t.Fatalf("expected io code, got %s", d.Code)
	}
	if !d.Retryable {
		t.Fatal("expected io errors to be retryable")
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if _, ok := d.Fields()["pg_code"]; ok {
		t.Fatal("expected pg fields omitted without a postgres error")
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "members_barcode_value_key", TableName: "members"}
	err := Wrap(CodeLookup, pgErr, "load member")

	d := Dump(err)
	if d.PGCode != "23505" || d.PGTable != "members" {
		t.Fatalf("unexpected pg details %+v", d)
	}
	if d.Fields()["pg_constraint"] != "members_barcode_value_key" {
		t.Fatalf("expected constraint in fields, got %v", d.Fields())
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
