// Package storage implements the ledger store: accounts and transactions
// in SQLite, with the cached account balances reconciled inside the same
// database transaction as every posting.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"billing/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed ledger store. A single mutex serializes
// balance-mutating operations (single logical writer); each multi-step
// mutation additionally runs in one database transaction so a failure in
// any step rolls back both the row write and the balance write.
type Repository struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the ledger database at dbPath, enables foreign
// key enforcement for the cascade-delete constraint, and runs migrations.
func Open(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const accountColumns = "id, name, balance, icon, color, created_at"

// ListAccounts returns all accounts, newest first.
func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount returns one account or core.ErrAccountNotFound.
func (r *Repository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// CreateAccount inserts a new account and returns its id. The balance may
// carry a supplied opening value; icon and color fall back to defaults.
func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if a.Icon == "" {
		a.Icon = "wallet"
	}
	if a.Color == "" {
		a.Color = "#60A5FA"
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (name, balance, icon, color) VALUES (?, ?, ?, ?)",
		a.Name, a.Balance.Cents, a.Icon, a.Color)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", id, "name", a.Name, "balance_cents", a.Balance.Cents)
	return id, nil
}

// UpdateAccount applies a partial edit. An empty update is a no-op. A set
// Balance overwrites the cached value (manual adjustment); subsequent
// postings apply their deltas on top of it.
func (r *Repository) UpdateAccount(ctx context.Context, id int64, u core.AccountUpdate) error {
	if u.Empty() {
		return nil
	}
	if err := u.Validate(); err != nil {
		return err
	}

	var fields []string
	var args []any
	if u.Name != nil {
		fields = append(fields, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Balance != nil {
		fields = append(fields, "balance = ?")
		args = append(args, u.Balance.Cents)
	}
	if u.Icon != nil {
		fields = append(fields, "icon = ?")
		args = append(args, *u.Icon)
	}
	if u.Color != nil {
		fields = append(fields, "color = ?")
		args = append(args, *u.Color)
	}
	args = append(args, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET "+strings.Join(fields, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes an account; the ON DELETE CASCADE constraint
// removes its transactions with it. Deleting a missing id is a no-op.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	slog.InfoContext(ctx, "Account deleted", "id", id)
	return nil
}

// TotalBalance sums all cached account balances, zero for an empty set.
func (r *Repository) TotalBalance(ctx context.Context) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(balance), 0) FROM accounts").Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("total balance: %w", err)
	}
	return core.Money{Cents: total}, nil
}

// CreateTransaction inserts a transaction and applies its signed delta to
// the referenced account's balance, both inside one database transaction.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if t.CategoryIcon == "" {
		t.CategoryIcon = core.CategoryByName(t.Category, t.Type).Icon
	}
	if strings.TrimSpace(t.Description) == "" {
		t.Description = t.Category
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (type, amount, category, category_icon, account_id, date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.Type), t.Amount.Cents, t.Category, t.CategoryIcon, t.AccountID, t.Date.ISO(), t.Description)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	if err := applyDelta(ctx, tx, t.AccountID, t.SignedAmount()); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id, "type", string(t.Type), "amount_cents", t.Amount.Cents,
		"category", t.Category, "account_id", t.AccountID, "date", t.Date.ISO())
	return id, nil
}

// UpdateTransaction applies a partial edit. The old effect is reversed on
// the old account and the effective new delta applied on the new account,
// unconditionally, inside one database transaction. When old and new
// account coincide, the two writes compose to the net delta.
func (r *Repository) UpdateTransaction(ctx context.Context, id int64, u core.TransactionUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTransactionTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	// A missing id is an error even with nothing to change; an existing
	// row with an empty update is a no-op.
	if u.Empty() {
		return nil
	}

	next := u.Apply(old)
	if u.Category != nil && u.CategoryIcon == nil {
		next.CategoryIcon = core.CategoryByName(next.Category, next.Type).Icon
	}
	if !core.CategoryApplies(next.Category, next.Type) {
		return core.ErrCategoryMismatch
	}

	if err := applyDelta(ctx, tx, old.AccountID, old.Reversal()); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, next.AccountID, next.SignedAmount()); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, amount = ?, category = ?, category_icon = ?, account_id = ?, date = ?, description = ?
		 WHERE id = ?`,
		string(next.Type), next.Amount.Cents, next.Category, next.CategoryIcon,
		next.AccountID, next.Date.ISO(), next.Description, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"id", id, "type", string(next.Type), "amount_cents", next.Amount.Cents,
		"account_id", next.AccountID)
	return nil
}

// DeleteTransaction reverses the transaction's effect on its account and
// removes the row, in one database transaction. Deleting a missing id is
// a silent no-op.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := getTransactionTx(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := applyDelta(ctx, tx, old.AccountID, old.Reversal()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "account_id", old.AccountID)
	return nil
}

const txColumns = `t.id, t.type, t.amount, t.category, t.category_icon,
	t.account_id, COALESCE(a.name, ''), t.date, t.description, t.created_at`

// GetTransaction returns one transaction joined with its account's name,
// or core.ErrTransactionNotFound.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+`
		 FROM transactions t
		 LEFT JOIN accounts a ON t.account_id = a.id
		 WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns transactions ordered by logical date, newest
// first, created_at and id breaking ties. limit <= 0 returns all.
func (r *Repository) ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	q := `SELECT ` + txColumns + `
	 FROM transactions t
	 LEFT JOIN accounts a ON t.account_id = a.id
	 ORDER BY t.date DESC, t.created_at DESC, t.id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryTransactions(ctx, q, args...)
}

// ListTransactionsInRange returns transactions with logical dates inside
// the inclusive range, same ordering as ListTransactions.
func (r *Repository) ListTransactionsInRange(ctx context.Context, rng core.DateRange) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+`
		 FROM transactions t
		 LEFT JOIN accounts a ON t.account_id = a.id
		 WHERE t.date BETWEEN ? AND ?
		 ORDER BY t.date DESC, t.created_at DESC, t.id DESC`,
		rng.Start.ISO(), rng.End.ISO())
}

// IncomeExpenseSummary sums amounts grouped by type over the optionally
// date-filtered transaction set. A missing group reports zero.
func (r *Repository) IncomeExpenseSummary(ctx context.Context, rng *core.DateRange) (core.Summary, error) {
	q := "SELECT type, COALESCE(SUM(amount), 0) FROM transactions"
	var args []any
	if rng != nil {
		q += " WHERE date BETWEEN ? AND ?"
		args = append(args, rng.Start.ISO(), rng.End.ISO())
	}
	q += " GROUP BY type"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var s core.Summary
	for rows.Next() {
		var typ string
		var total int64
		if err := rows.Scan(&typ, &total); err != nil {
			return core.Summary{}, fmt.Errorf("scan summary: %w", err)
		}
		switch core.TxType(typ) {
		case core.Income:
			s.Income = core.Money{Cents: total}
		case core.Expense:
			s.Expense = core.Money{Cents: total}
		}
	}
	return s, rows.Err()
}

// CategorySummary groups amounts of one type by category, descending by
// total. The min(id) tiebreak keeps equal totals in first-seen order.
func (r *Repository) CategorySummary(ctx context.Context, t core.TxType, rng *core.DateRange) ([]core.CategoryTotal, error) {
	if !t.Valid() {
		return nil, core.ErrInvalidType
	}
	q := "SELECT category, category_icon, SUM(amount) FROM transactions WHERE type = ?"
	args := []any{string(t)}
	if rng != nil {
		q += " AND date BETWEEN ? AND ?"
		args = append(args, rng.Start.ISO(), rng.End.ISO())
	}
	q += " GROUP BY category ORDER BY SUM(amount) DESC, MIN(id) ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query category summary: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		var total int64
		if err := rows.Scan(&ct.Category, &ct.Icon, &total); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		ct.Total = core.Money{Cents: total}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// applyDelta adds a signed delta to an account's cached balance inside
// the caller's database transaction. A zero row count means the account
// is gone and the whole mutation must roll back.
func applyDelta(ctx context.Context, tx *sql.Tx, accountID int64, delta core.Money) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + ? WHERE id = ?", delta.Cents, accountID)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply balance delta rows: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, type, amount, category, category_icon, account_id, date, description, created_at
		 FROM transactions WHERE id = ?`, id)

	var t core.Transaction
	var typ, date, createdAt string
	err := row.Scan(&t.ID, &typ, &t.Amount.Cents, &t.Category, &t.CategoryIcon,
		&t.AccountID, &date, &t.Description, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TxType(typ)
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.CreatedAt = parseTimestamp(createdAt)
	return t, nil
}

func (r *Repository) queryTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (core.Account, error) {
	var a core.Account
	var createdAt string
	err := s.Scan(&a.ID, &a.Name, &a.Balance.Cents, &a.Icon, &a.Color, &createdAt)
	if err != nil {
		return core.Account{}, err
	}
	a.CreatedAt = parseTimestamp(createdAt)
	return a, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, date, createdAt string
	err := s.Scan(&t.ID, &typ, &t.Amount.Cents, &t.Category, &t.CategoryIcon,
		&t.AccountID, &t.AccountName, &date, &t.Description, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TxType(typ)
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.CreatedAt = parseTimestamp(createdAt)
	return t, nil
}

// parseTimestamp decodes SQLite's CURRENT_TIMESTAMP text. A zero time is
// returned for anything unparseable rather than failing the read.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
