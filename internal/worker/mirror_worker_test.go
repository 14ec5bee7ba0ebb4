package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets/memory"
)

type fakeIndex struct {
	ids   map[string]bool
	err   error
	calls int
}

func (f *fakeIndex) Contains(_ context.Context, id string) (bool, error) {
	f.calls++
	return f.ids[id], f.err
}

func message(id string) *amqp.TransactionCreatedMessage {
	return amqp.NewTransactionCreatedMessage(core.Transaction{
		ID: id, Date: "2025-02-01", Amount: "75.50", Description: "Dinner",
		Location: "Cafe", Type: core.Debit, Category: core.Food,
	})
}

func TestHandleTransactionCreatedAppendsOnce(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror)

	for i := 0; i < 3; i++ {
		if err := w.HandleTransactionCreated(ctx, message("abc")); err != nil {
			t.Fatalf("handle #%d: %v", i, err)
		}
	}

	rows := mirror.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 mirrored row after redelivery, got %d", len(rows))
	}
	if rows[0][0] != "abc" || rows[0][6] != "-75.50" {
		t.Fatalf("unexpected row %v", rows[0])
	}
}

func TestHandleTransactionCreatedMirrorFailureRequeues(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror)

	boom := errors.New("quota")
	mirror.Fail(boom)
	if err := w.HandleTransactionCreated(ctx, message("abc")); !errors.Is(err, boom) {
		t.Fatalf("expected mirror error, got %v", err)
	}

	// A later redelivery must still be mirrored.
	mirror.Fail(nil)
	if err := w.HandleTransactionCreated(ctx, message("abc")); err != nil {
		t.Fatal(err)
	}
	if n := len(mirror.Rows()); n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestHandleTransactionCreatedConsultsIndex(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	idx := &fakeIndex{ids: map[string]bool{"old": true}}
	w := NewMirrorWorker(mirror, WithIndex(idx))

	if err := w.HandleTransactionCreated(ctx, message("old")); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleTransactionCreated(ctx, message("old")); err != nil {
		t.Fatal(err)
	}
	if len(mirror.Rows()) != 0 {
		t.Fatal("already mirrored id must not be appended")
	}
	if idx.calls != 1 {
		t.Fatalf("index should be consulted once, got %d calls", idx.calls)
	}

	if err := w.HandleTransactionCreated(ctx, message("new")); err != nil {
		t.Fatal(err)
	}
	if len(mirror.Rows()) != 1 {
		t.Fatal("new id should be appended")
	}

	idx.err = errors.New("sheet unavailable")
	if err := w.HandleTransactionCreated(ctx, message("other")); err == nil {
		t.Fatal("index failure should requeue")
	}
}

func TestHandleTransactionCreatedIDFallbacks(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror)

	msg := &amqp.TransactionCreatedMessage{ID: "from-envelope", Transaction: core.Transaction{Amount: "1.00", Type: core.Credit}}
	if err := w.HandleTransactionCreated(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if rows := mirror.Rows(); len(rows) != 1 || rows[0][0] != "from-envelope" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if err := w.HandleTransactionCreated(ctx, &amqp.TransactionCreatedMessage{}); err != nil {
		t.Fatalf("message without id should be dropped, got %v", err)
	}
	if len(mirror.Rows()) != 1 {
		t.Fatal("message without id must not be mirrored")
	}
}

func TestDedupeExpiry(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, WithDedupe(10, time.Millisecond))

	if err := w.HandleTransactionCreated(ctx, message("abc")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if n := w.Cache().CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if err := w.HandleTransactionCreated(ctx, message("abc")); err != nil {
		t.Fatal(err)
	}
	if n := len(mirror.Rows()); n != 2 {
		t.Fatalf("expected append after dedupe window, got %d rows", n)
	}
}
