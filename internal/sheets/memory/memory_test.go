package memory

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
)

func TestMirrorAppendAndContains(t *testing.T) {
	ctx := context.Background()
	m := New()

	ref, err := m.Append(ctx, core.Transaction{ID: "a", Amount: "1.00", Type: core.Debit})
	if err != nil || ref != "mem:1" {
		t.Fatalf("append: ref=%q err=%v", ref, err)
	}
	ref, _ = m.Append(ctx, core.Transaction{ID: "b", Amount: "2.00", Type: core.Credit})
	if ref != "mem:2" {
		t.Fatalf("second ref = %q", ref)
	}

	if ok, _ := m.Contains(ctx, "a"); !ok {
		t.Fatal("a should be mirrored")
	}
	if ok, _ := m.Contains(ctx, "z"); ok {
		t.Fatal("z should not be mirrored")
	}

	rows := m.Rows()
	if len(rows) != 2 || rows[0][6] != "-1.00" || rows[1][6] != "+2.00" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestMirrorFailure(t *testing.T) {
	ctx := context.Background()
	m := New()
	boom := errors.New("quota")
	m.Fail(boom)

	if _, err := m.Append(ctx, core.Transaction{ID: "a"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := m.Contains(ctx, "a"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	m.Fail(nil)
	if _, err := m.Append(ctx, core.Transaction{ID: "a"}); err != nil {
		t.Fatal(err)
	}
}
