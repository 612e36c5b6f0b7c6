// Package services holds the application-facing views over the ledger
// store: transaction mutations with event publishing, account aggregates,
// and period summaries. Each service gets its storage injected so tests
// run against a fresh database.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"billing/internal/amqp"
	"billing/internal/core"
	"billing/internal/storage"
)

// Publisher is the ledger event sink. A nil publisher disables events.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, id int64, action string) error
}

// LedgerService wraps transaction mutations: storage first, then a
// best-effort change event for the export pipeline. A failed publish
// never fails the ledger write.
type LedgerService struct {
	storage   *storage.Repository
	publisher Publisher
}

func NewLedgerService(storage *storage.Repository, publisher Publisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateTransaction posts a transaction and publishes a created event.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, id, amqp.ActionCreated)
	return id, nil
}

// UpdateTransaction applies a partial edit and publishes an updated event.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, u core.TransactionUpdate) error {
	if err := s.storage.UpdateTransaction(ctx, id, u); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, id, amqp.ActionUpdated)
	return nil
}

// DeleteTransaction removes a transaction and publishes a deleted event.
// The delete is idempotent; the worker treats a missing row as already
// gone, so the event is published unconditionally.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, id, amqp.ActionDeleted)
	return nil
}

// GetTransaction returns one transaction with its account name joined.
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// Recent returns the newest transactions; limit <= 0 defaults to 10.
func (s *LedgerService) Recent(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.storage.ListTransactions(ctx, limit)
}

// List returns all transactions, newest first.
func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, 0)
}

// ListInRange returns transactions inside the inclusive date range.
func (s *LedgerService) ListInRange(ctx context.Context, rng core.DateRange) ([]core.Transaction, error) {
	return s.storage.ListTransactionsInRange(ctx, rng)
}

func (s *LedgerService) publish(ctx context.Context, id int64, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, id, action); err != nil {
		// The ledger write already succeeded; the worker's periodic
		// catch-up covers missed events.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"id", id, "action", action, "error", err)
	}
}
