// Package repository holds the in-memory transaction list of an active
// screen and keeps it synchronized with the persistent slot.
//
// Every mutation is a read-modify-write of the whole collection. A repository
// belongs to one screen activation; a fresh one is built each time a screen
// becomes active so it observes writes made elsewhere.
package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/kv"
	applog "tally/internal/log"
	"tally/internal/transfer"
)

// DefaultKey is the slot holding the serialized transaction list.
const DefaultKey = "@transactions"

// CommitPolicy decides what happens to the visible list when the write fails.
type CommitPolicy string

const (
	// StageThenCommit merges a new transaction into the visible list only
	// after the store accepted the write.
	StageThenCommit CommitPolicy = "stage"
	// PrependThenWrite prepends first and keeps the entry even when the
	// write fails.
	PrependThenWrite CommitPolicy = "prepend"
)

func (p CommitPolicy) IsValid() bool {
	return p == StageThenCommit || p == PrependThenWrite
}

// IDGenerator returns a new unique transaction id.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// Seed returns the two transactions a fresh store starts with.
func Seed() []core.Transaction {
	return []core.Transaction{
		{
			ID:          "1",
			Date:        "2025-01-27",
			Amount:      "150.00",
			Description: "Grocery Shopping",
			Location:    "Supermarket",
			Type:        core.Debit,
			Category:    core.Shopping,
		},
		{
			ID:          "2",
			Date:        "2025-01-26",
			Amount:      "1000.00",
			Description: "Salary",
			Location:    "Bank",
			Type:        core.Credit,
			Category:    core.Income,
		},
	}
}

// Repository is the authoritative in-memory list while its screen is active.
type Repository struct {
	mu     sync.Mutex
	store  kv.Store
	key    string
	policy CommitPolicy
	newID  IDGenerator
	logger *applog.Logger

	items []core.Transaction
}

// Option configures a Repository.
type Option func(*Repository)

func WithKey(key string) Option {
	return func(r *Repository) {
		if key != "" {
			r.key = key
		}
	}
}

func WithCommitPolicy(p CommitPolicy) Option {
	return func(r *Repository) {
		if p.IsValid() {
			r.policy = p
		}
	}
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(r *Repository) {
		if gen != nil {
			r.newID = gen
		}
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l.WithComponent(applog.ComponentRepository)
		}
	}
}

func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		key:    DefaultKey,
		policy: StageThenCommit,
		newID:  NewUUID,
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load refreshes the in-memory list from the store, seeding and persisting
// the default pair when the slot has never been written or holds nothing.
//
// A failing read leaves the current list untouched. The error is logged and
// returned for the caller's information only; screens keep rendering.
func (r *Repository) Load(ctx context.Context) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.store.Get(ctx, r.key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return r.seedLocked(ctx)
	case err == nil && len(bytes.TrimSpace(raw)) == 0:
		// An empty value counts as never written.
		return r.seedLocked(ctx)
	case err != nil:
		r.logReadFailure(ctx, err)
		return r.snapshotLocked(), fmt.Errorf("load %s: %w", r.key, err)
	}

	list, err := transfer.DecodeList(raw)
	if err != nil {
		r.logReadFailure(ctx, err)
		return r.snapshotLocked(), fmt.Errorf("load %s: %w", r.key, err)
	}
	r.items = list
	r.logger.DebugContext(ctx, "Transactions loaded",
		applog.FieldStoreKey, r.key,
		applog.FieldCount, len(list))
	return r.snapshotLocked(), nil
}

func (r *Repository) seedLocked(ctx context.Context) ([]core.Transaction, error) {
	seed := Seed()
	r.items = seed

	payload, err := transfer.EncodeList(seed)
	if err == nil {
		err = r.store.Set(ctx, r.key, payload)
	}
	if err != nil {
		// The seed stays visible; the next activation will try again.
		r.logger.ErrorContext(ctx, "Failed to persist seed transactions",
			applog.NewFields().
				WithStoreKey(r.key).
				WithError(err).
				WithErrorType(applog.ErrorTypeStoreWrite).
				WithOperation(applog.OpSeed).
				ToSlice()...)
		return r.snapshotLocked(), fmt.Errorf("seed %s: %w", r.key, err)
	}

	r.logger.InfoContext(ctx, "Seeded empty transaction store",
		applog.FieldStoreKey, r.key,
		applog.FieldCount, len(seed))
	return r.snapshotLocked(), nil
}

// Append assigns an id, prepends the transaction and writes the whole list.
// The draft must already be valid; Append validates again and returns the
// validation error without touching the store.
func (r *Repository) Append(ctx context.Context, draft core.Draft) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := draft.Transaction(r.newID())
	if err != nil {
		return core.Transaction{}, err
	}

	updated := make([]core.Transaction, 0, len(r.items)+1)
	updated = append(updated, tx)
	updated = append(updated, r.items...)

	if r.policy == PrependThenWrite {
		r.items = updated
	}

	payload, err := transfer.EncodeList(updated)
	if err == nil {
		err = r.store.Set(ctx, r.key, payload)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save transaction",
			applog.NewFields().
				WithTransaction(tx.ID, string(tx.Type), string(tx.Category), tx.Amount).
				WithStoreKey(r.key).
				WithError(err).
				WithErrorType(applog.ErrorTypeStoreWrite).
				WithOperation(applog.OpAppend).
				ToSlice()...)
		return tx, fmt.Errorf("append to %s: %w", r.key, err)
	}

	r.items = updated
	return tx, nil
}

// Key is the store slot the repository reads and writes.
func (r *Repository) Key() string {
	return r.key
}

// Transactions returns a copy of the current list, newest first.
func (r *Repository) Transactions() []core.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Find returns the transaction with the given id from the in-memory list.
func (r *Repository) Find(id string) (core.Transaction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.items {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Summary derives balance and count from the current list.
func (r *Repository) Summary() core.Summary {
	return core.ComputeSummary(r.Transactions())
}

func (r *Repository) snapshotLocked() []core.Transaction {
	out := make([]core.Transaction, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Repository) logReadFailure(ctx context.Context, err error) {
	r.logger.ErrorContext(ctx, "Error loading transactions",
		applog.NewFields().
			WithStoreKey(r.key).
			WithError(err).
			WithErrorType(applog.ErrorTypeStoreRead).
			WithOperation(applog.OpLoad).
			ToSlice()...)
}
