package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpNilError(t *testing.T) {
	d := Dump(nil)
	if d.TopMessage != "" || d.Code != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpCarriesCodeAndChain(t *testing.T) {
	root := fmt.Errorf("connection reset")
	err := Wrap(CodeDependency, root, "loading order records")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected %s, got %s", CodeDependency, d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected unwrap chain, got %v", d.Chain)
	}
	if d.PGCode != "" {
		t.Fatalf("no driver error involved, got pg code %q", d.PGCode)
	}
}

func TestDumpExtractsDriverDetail(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_payment_authorizations_code",
		TableName:      "payment_authorizations",
		ColumnName:     "business_order_code",
		Detail:         "Key (business_order_code)=(ORD-1001) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("creating hold: %w", pgErr), "authorize payment")

	d := Dump(err)
	if d.PGCode != "23505" {
		t.Fatalf("expected pg code 23505, got %q", d.PGCode)
	}
	if d.PGConstraint != "idx_payment_authorizations_code" {
		t.Fatalf("unexpected constraint: %q", d.PGConstraint)
	}
	if d.PGTable != "payment_authorizations" || d.PGColumn != "business_order_code" {
		t.Fatalf("unexpected table/column: %q/%q", d.PGTable, d.PGColumn)
	}
}
