// Package worker mirrors created transactions into the spreadsheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"tally/internal/amqp"
	"tally/internal/cache"
	applog "tally/internal/log"
	"tally/internal/sheets"
)

const (
	DefaultDedupeSize = 1024
	DefaultDedupeTTL  = 24 * time.Hour
)

// MirrorWorker appends each transaction.created event to the mirror once.
// AMQP redelivers on nack and after reconnects, so ids mirrored recently are
// remembered and skipped.
type MirrorWorker struct {
	mirror sheets.TransactionMirror
	index  sheets.MirrorIndex
	seen   *cache.LRUCache[string]
	logger *applog.Logger
}

type Option func(*MirrorWorker)

// WithIndex consults idx before appending ids not found in the local cache.
func WithIndex(idx sheets.MirrorIndex) Option {
	return func(w *MirrorWorker) { w.index = idx }
}

func WithDedupe(size int, ttl time.Duration) Option {
	return func(w *MirrorWorker) {
		if ttl > 0 {
			w.seen = cache.NewLRUCache[string](size, ttl)
		}
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(w *MirrorWorker) {
		if l != nil {
			w.logger = l.WithComponent(applog.ComponentWorker)
		}
	}
}

func NewMirrorWorker(mirror sheets.TransactionMirror, opts ...Option) *MirrorWorker {
	w := &MirrorWorker{
		mirror: mirror,
		seen:   cache.NewLRUCache[string](DefaultDedupeSize, DefaultDedupeTTL),
		logger: applog.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Cache exposes the dedupe cache for registration with a cache.Manager.
func (w *MirrorWorker) Cache() cache.Cleaner {
	return w.seen
}

// HandleTransactionCreated processes a single message from AMQP. A returned
// error makes the consumer requeue the message.
func (w *MirrorWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	tx := msg.Transaction
	if tx.ID == "" {
		tx.ID = msg.ID
	}
	fields := applog.NewFields().
		WithOperation(applog.OpMirror).
		WithTransaction(tx.ID, string(tx.Type), string(tx.Category), tx.Amount)

	if tx.ID == "" {
		// Nothing to key the row on; requeueing would loop forever.
		w.logger.WarnContext(ctx, "Dropping transaction message without id", fields.ToSlice()...)
		return nil
	}

	if ref, ok := w.seen.Get(tx.ID); ok {
		w.logger.DebugContext(ctx, "Transaction already mirrored, skipping",
			append(fields.ToSlice(), applog.FieldMirrorRef, ref)...)
		return nil
	}

	if w.index != nil {
		found, err := w.index.Contains(ctx, tx.ID)
		if err != nil {
			return fmt.Errorf("check mirror index: %w", err)
		}
		if found {
			w.seen.Set(tx.ID, "existing")
			w.logger.InfoContext(ctx, "Transaction found in mirror, skipping", fields.ToSlice()...)
			return nil
		}
	}

	ref, err := w.mirror.Append(ctx, tx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror transaction",
			fields.WithError(err).WithErrorType(applog.ErrorTypeNetwork).ToSlice()...)
		return fmt.Errorf("mirror transaction %s: %w", tx.ID, err)
	}
	w.seen.Set(tx.ID, ref)

	w.logger.InfoContext(ctx, "Transaction mirrored",
		append(fields.ToSlice(), applog.FieldMirrorRef, ref)...)
	return nil
}
