// Package export defines the outbound backup port: ledger rows appended
// to an external sink, one way, never read back.
package export

import (
	"context"

	"billing/internal/core"
)

// Row is one exported ledger line.
type Row struct {
	TxID        int64
	Date        string
	Type        string
	Category    string
	Description string
	Amount      core.Money
	Account     string
	Deleted     bool
}

// FromTransaction builds an export row from a ledger transaction.
func FromTransaction(t core.Transaction) Row {
	return Row{
		TxID:        t.ID,
		Date:        t.Date.ISO(),
		Type:        string(t.Type),
		Category:    t.Category,
		Description: t.Description,
		Amount:      t.Amount,
		Account:     t.AccountName,
	}
}

// Tombstone marks a deleted transaction in the export sink.
func Tombstone(id int64) Row {
	return Row{TxID: id, Deleted: true}
}

// RowAppender is the port the worker writes through.
type RowAppender interface {
	AppendRow(ctx context.Context, row Row) error
}
