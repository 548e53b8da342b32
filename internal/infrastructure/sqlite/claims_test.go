package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/drfirst/dental-claims/internal/domain/claim"
)

func TestClaimStore_InsertList(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:", "claims", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	rec := claim.Record{"patient_name": "Patient 1", "procedure_code": "D2392", "fee": "210.00"}
	first, err := store.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	second, err := store.Insert(ctx, claim.Record{"patient_name": "Patient 2"})
	if err != nil {
		t.Fatalf("second Insert failed: %v", err)
	}

	rows, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != second.ID || rows[1].ID != first.ID {
		t.Errorf("expected newest first, got %s, %s", rows[0].ID, rows[1].ID)
	}
	if rows[1].Fields["procedure_code"] != "D2392" {
		t.Errorf("unexpected fields: %v", rows[1].Fields)
	}

	limited, err := store.List(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("expected 1 row with limit, got %d (%v)", len(limited), err)
	}
}

func TestClaimStore_DuplicateSubmissions(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "claims.db"), "dental claims", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	rec := claim.Record{"patient_name": "Patient 1"}
	for i := 0; i < 2; i++ {
		if _, err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}
	rows, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected both submissions stored, got %d", len(rows))
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestClaimStore_ClosedReportsUnavailable(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:", "claims", nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Close()

	if _, err := store.Insert(ctx, claim.Record{"a": "b"}); err == nil {
		t.Fatal("expected insert on closed store to fail")
	}
}
