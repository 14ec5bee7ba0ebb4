package services

import (
	"context"
	"errors"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/kv"
	applog "tally/internal/log"
	"tally/internal/repository"
)

// EventPublisher announces created transactions. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error
	Close() error
}

// TransactionService orchestrates transaction operations across the store and AMQP
type TransactionService struct {
	store     kv.Store
	publisher EventPublisher
	repoOpts  []repository.Option
	logger    *applog.Logger
}

func NewTransactionService(store kv.Store, publisher EventPublisher, logger *applog.Logger, opts ...repository.Option) *TransactionService {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentService)
	return &TransactionService{
		store:     store,
		publisher: publisher,
		repoOpts:  append([]repository.Option{repository.WithLogger(logger)}, opts...),
		logger:    logger,
	}
}

// Open builds a fresh repository and loads it. Load errors are already
// logged by the repository; the returned repository is usable either way.
func (s *TransactionService) Open(ctx context.Context) (*repository.Repository, error) {
	repo := repository.New(s.store, s.repoOpts...)
	_, err := repo.Load(ctx)
	return repo, err
}

// Ready checks that the store answers a read of the transaction slot. It
// never writes: a slot that was never written counts as ready.
func (s *TransactionService) Ready(ctx context.Context) error {
	key := repository.New(s.store, s.repoOpts...).Key()
	if _, err := s.store.Get(ctx, key); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("read %s: %w", key, err)
	}
	return nil
}

// Create validates the draft, appends it to a freshly loaded list and
// publishes a transaction.created event.
func (s *TransactionService) Create(ctx context.Context, draft core.Draft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	// A failed read leaves an empty list; appending to it would overwrite
	// the stored collection, so the add is refused instead.
	repo, err := s.Open(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load before append: %w", err)
	}

	tx, err := repo.Append(ctx, draft)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithTransaction(tx.ID, string(tx.Type), string(tx.Category), tx.Amount).
			WithCount(len(repo.Transactions())).
			ToSlice()...)

	if err := s.publishCreated(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction created message",
			applog.NewFields().
				WithTransaction(tx.ID, string(tx.Type), string(tx.Category), tx.Amount).
				WithError(err).
				WithErrorType(applog.ErrorTypeNetwork).
				WithOperation(applog.OpPublish).
				ToSlice()...)
		// Don't fail the request - the transaction is saved
	}

	return tx, nil
}

func (s *TransactionService) publishCreated(ctx context.Context, tx core.Transaction) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping event",
			applog.FieldTxID, tx.ID)
		return nil
	}
	return s.publisher.PublishTransactionCreated(ctx, amqp.NewTransactionCreatedMessage(tx))
}

// Close closes both the store and the AMQP connection
func (s *TransactionService) Close() error {
	var errs []error

	if c, ok := s.store.(kv.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
