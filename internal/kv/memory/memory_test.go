package memory

import (
	"context"
	"errors"
	"testing"

	"tally/internal/kv"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "@transactions"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in := []byte(`[{"id":"1"}]`)
	if err := s.Set(ctx, "@transactions", in); err != nil {
		t.Fatalf("set: %v", err)
	}
	in[0] = 'X' // caller mutation must not leak into the store

	got, err := s.Get(ctx, "@transactions")
	if err != nil || string(got) != `[{"id":"1"}]` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}

	s.Delete("@transactions")
	if _, err := s.Get(ctx, "@transactions"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreFailureHooks(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	s.FailSets(boom)
	if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, boom) {
		t.Fatalf("expected boom on set, got %v", err)
	}
	s.FailSets(nil)
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set after restore: %v", err)
	}

	s.FailGets(boom)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("expected boom on get, got %v", err)
	}
}
