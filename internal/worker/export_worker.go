// Package worker mirrors ledger changes to the export sink. Failures here
// never touch ledger correctness; unprocessable events are requeued by
// the AMQP layer.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"billing/internal/amqp"
	"billing/internal/core"
	"billing/internal/export"
	"billing/internal/storage"
)

// ExportWorker consumes ledger events and appends the corresponding rows
// to the export sink.
type ExportWorker struct {
	storage  *storage.Repository
	appender export.RowAppender
}

func NewExportWorker(storage *storage.Repository, appender export.RowAppender) *ExportWorker {
	return &ExportWorker{
		storage:  storage,
		appender: appender,
	}
}

// HandleEvent processes one ledger event. Created and updated events
// fetch the current row; a row already gone is treated as deleted.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event", "id", msg.ID, "action", msg.Action)

	if msg.Action == amqp.ActionDeleted {
		return w.appendRow(ctx, export.Tombstone(msg.ID))
	}

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrTransactionNotFound) {
		// Deleted between the event and now; export the tombstone.
		return w.appendRow(ctx, export.Tombstone(msg.ID))
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", msg.ID, err)
	}

	return w.appendRow(ctx, export.FromTransaction(t))
}

// CatchUp re-exports the most recent transactions. It backs the periodic
// tick that papers over missed events; the sink is append-only, so
// duplicates are acceptable noise in a backup.
func (w *ExportWorker) CatchUp(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = 50
	}
	txs, err := w.storage.ListTransactions(ctx, limit)
	if err != nil {
		return fmt.Errorf("list transactions for catch-up: %w", err)
	}

	for _, t := range txs {
		if err := w.appendRow(ctx, export.FromTransaction(t)); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Export catch-up completed", "rows", len(txs))
	return nil
}

func (w *ExportWorker) appendRow(ctx context.Context, row export.Row) error {
	if w.appender == nil {
		slog.WarnContext(ctx, "No export sink configured, dropping row", "transaction_id", row.TxID)
		return nil
	}
	if err := w.appender.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("append export row: %w", err)
	}
	return nil
}
