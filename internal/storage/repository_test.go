package storage

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"billing/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateAccount(t *testing.T, repo *Repository, name string) int64 {
	t.Helper()
	id, err := repo.CreateAccount(context.Background(), core.Account{Name: name})
	if err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return id
}

func mustCreateTx(t *testing.T, repo *Repository, tx core.Transaction) int64 {
	t.Helper()
	id, err := repo.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return id
}

func balanceOf(t *testing.T, repo *Repository, id int64) int64 {
	t.Helper()
	a, err := repo.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %d: %v", id, err)
	}
	return a.Balance.Cents
}

func expense(account int64, cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		Type:      core.Expense,
		Amount:    core.Money{Cents: cents},
		Category:  "Dining",
		AccountID: account,
		Date:      date,
	}
}

func income(account int64, cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		Type:      core.Income,
		Amount:    core.Money{Cents: cents},
		Category:  "Salary",
		AccountID: account,
		Date:      date,
	}
}

func TestAccountLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreateAccount(t, repo, "Checking")
	a, err := repo.GetAccount(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Name != "Checking" || a.Balance.Cents != 0 {
		t.Fatalf("unexpected account: %+v", a)
	}
	if a.Icon != "wallet" || a.Color != "#60A5FA" {
		t.Fatalf("defaults not applied: icon=%q color=%q", a.Icon, a.Color)
	}

	name := "Main"
	icon := "piggy-bank"
	if err := repo.UpdateAccount(ctx, id, core.AccountUpdate{Name: &name, Icon: &icon}); err != nil {
		t.Fatalf("update: %v", err)
	}
	a, _ = repo.GetAccount(ctx, id)
	if a.Name != "Main" || a.Icon != "piggy-bank" || a.Color != "#60A5FA" {
		t.Fatalf("partial update broke untouched fields: %+v", a)
	}

	// empty update is a no-op, even for a missing id
	if err := repo.UpdateAccount(ctx, 9999, core.AccountUpdate{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if err := repo.UpdateAccount(ctx, 9999, core.AccountUpdate{Name: &name}); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := repo.DeleteAccount(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetAccount(ctx, id); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound after delete, got %v", err)
	}
	// deleting again is a no-op
	if err := repo.DeleteAccount(ctx, id); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.CreateAccount(context.Background(), core.Account{Name: "  "}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestCreateAccountOpeningBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateAccount(ctx, core.Account{Name: "Savings", Balance: core.Money{Cents: 123400}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := balanceOf(t, repo, id); got != 123400 {
		t.Fatalf("expected opening balance 123400, got %d", got)
	}
}

func TestCreateTransactionAppliesDelta(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	mustCreateTx(t, repo, income(acc, 10000, core.NewDate(2025, 3, 1)))
	if got := balanceOf(t, repo, acc); got != 10000 {
		t.Fatalf("after income expected 10000, got %d", got)
	}

	mustCreateTx(t, repo, expense(acc, 2500, core.NewDate(2025, 3, 2)))
	if got := balanceOf(t, repo, acc); got != 7500 {
		t.Fatalf("after expense expected 7500, got %d", got)
	}

	total, err := repo.TotalBalance(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cents != 7500 {
		t.Fatalf("total expected 7500, got %d", total.Cents)
	}
}

func TestCreateTransactionMissingAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateTransaction(ctx, expense(42, 100, core.NewDate(2025, 1, 1)))
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	// the row write must have rolled back with the balance write
	txs, err := repo.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected no persisted transactions, got %d", len(txs))
	}
}

func TestCreateTransactionDefaults(t *testing.T) {
	repo := newTestRepo(t)
	acc := mustCreateAccount(t, repo, "Checking")

	id := mustCreateTx(t, repo, expense(acc, 100, core.NewDate(2025, 1, 1)))
	tx, err := repo.GetTransaction(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tx.CategoryIcon != "utensils" {
		t.Fatalf("expected icon derived from taxonomy, got %q", tx.CategoryIcon)
	}
	if tx.Description != "Dining" {
		t.Fatalf("expected description defaulted to category, got %q", tx.Description)
	}
	if tx.AccountName != "Checking" {
		t.Fatalf("expected join-derived account name, got %q", tx.AccountName)
	}
}

func TestDeleteTransactionRestoresBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	id := mustCreateTx(t, repo, expense(acc, 3000, core.NewDate(2025, 1, 1)))
	if got := balanceOf(t, repo, acc); got != -3000 {
		t.Fatalf("expected -3000, got %d", got)
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := balanceOf(t, repo, acc); got != 0 {
		t.Fatalf("delete must restore the balance, got %d", got)
	}
	if _, err := repo.GetTransaction(ctx, id); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	// deleting a missing id is a silent no-op and must not touch balances
	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if got := balanceOf(t, repo, acc); got != 0 {
		t.Fatalf("repeat delete moved the balance to %d", got)
	}
}

func TestUpdateTransactionSameAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	id := mustCreateTx(t, repo, expense(acc, 5000, core.NewDate(2025, 1, 1)))

	amount := core.Money{Cents: 8000}
	if err := repo.UpdateTransaction(ctx, id, core.TransactionUpdate{Amount: &amount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	// reverse -(-5000), apply -8000: net -8000
	if got := balanceOf(t, repo, acc); got != -8000 {
		t.Fatalf("expected -8000, got %d", got)
	}
}

func TestUpdateTransactionTypeFlip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	id := mustCreateTx(t, repo, expense(acc, 1000, core.NewDate(2025, 1, 1)))

	typ := core.Income
	cat := "Salary"
	if err := repo.UpdateTransaction(ctx, id, core.TransactionUpdate{Type: &typ, Category: &cat}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := balanceOf(t, repo, acc); got != 1000 {
		t.Fatalf("expected +1000 after flip, got %d", got)
	}
	tx, _ := repo.GetTransaction(ctx, id)
	if tx.CategoryIcon != "briefcase" {
		t.Fatalf("icon must follow the new category, got %q", tx.CategoryIcon)
	}
}

func TestUpdateTransactionMoveAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	accA := mustCreateAccount(t, repo, "A")
	accB := mustCreateAccount(t, repo, "B")

	id := mustCreateTx(t, repo, income(accA, 10000, core.NewDate(2025, 1, 1)))
	if balanceOf(t, repo, accA) != 10000 || balanceOf(t, repo, accB) != 0 {
		t.Fatalf("setup balances wrong")
	}

	amount := core.Money{Cents: 4000}
	u := core.TransactionUpdate{AccountID: &accB, Amount: &amount}
	if err := repo.UpdateTransaction(ctx, id, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := balanceOf(t, repo, accA); got != 0 {
		t.Fatalf("old account must lose the old effect, got %d", got)
	}
	if got := balanceOf(t, repo, accB); got != 4000 {
		t.Fatalf("new account must gain the new effect, got %d", got)
	}
}

func TestUpdateTransactionErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")
	id := mustCreateTx(t, repo, expense(acc, 1000, core.NewDate(2025, 1, 1)))

	amount := core.Money{Cents: 500}
	if err := repo.UpdateTransaction(ctx, 9999, core.TransactionUpdate{Amount: &amount}); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}

	// a missing id fails even when the update carries no fields
	if err := repo.UpdateTransaction(ctx, 9999, core.TransactionUpdate{}); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound for empty update on missing id, got %v", err)
	}

	// category from the wrong taxonomy rolls the whole edit back
	cat := "Salary"
	err := repo.UpdateTransaction(ctx, id, core.TransactionUpdate{Category: &cat})
	if !errors.Is(err, core.ErrCategoryMismatch) {
		t.Fatalf("expected ErrCategoryMismatch, got %v", err)
	}
	if got := balanceOf(t, repo, acc); got != -1000 {
		t.Fatalf("failed update must not move the balance, got %d", got)
	}

	// moving to a missing account rolls back both balance writes
	missing := int64(9999)
	err = repo.UpdateTransaction(ctx, id, core.TransactionUpdate{AccountID: &missing})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if got := balanceOf(t, repo, acc); got != -1000 {
		t.Fatalf("rolled-back move must not touch the old account, got %d", got)
	}

	// empty update is a no-op
	if err := repo.UpdateTransaction(ctx, id, core.TransactionUpdate{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if got := balanceOf(t, repo, acc); got != -1000 {
		t.Fatalf("empty update moved the balance to %d", got)
	}
}

func TestManualBalanceAdjustment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")
	mustCreateTx(t, repo, income(acc, 5000, core.NewDate(2025, 1, 1)))

	// the override replaces the cached value
	b := core.Money{Cents: 100000}
	if err := repo.UpdateAccount(ctx, acc, core.AccountUpdate{Balance: &b}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got := balanceOf(t, repo, acc); got != 100000 {
		t.Fatalf("expected 100000, got %d", got)
	}

	// subsequent postings apply on top of the adjusted value
	mustCreateTx(t, repo, expense(acc, 2500, core.NewDate(2025, 1, 2)))
	if got := balanceOf(t, repo, acc); got != 97500 {
		t.Fatalf("expected 97500, got %d", got)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	accA := mustCreateAccount(t, repo, "A")
	accB := mustCreateAccount(t, repo, "B")

	mustCreateTx(t, repo, expense(accA, 100, core.NewDate(2025, 1, 1)))
	mustCreateTx(t, repo, expense(accA, 200, core.NewDate(2025, 1, 2)))
	keep := mustCreateTx(t, repo, income(accB, 300, core.NewDate(2025, 1, 3)))

	if err := repo.DeleteAccount(ctx, accA); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	txs, err := repo.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != keep {
		t.Fatalf("cascade must remove only the deleted account's transactions: %+v", txs)
	}
	if got := balanceOf(t, repo, accB); got != 300 {
		t.Fatalf("other account must be untouched, got %d", got)
	}
}

func TestListTransactionsOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	first := mustCreateTx(t, repo, expense(acc, 100, core.NewDate(2025, 1, 10)))
	second := mustCreateTx(t, repo, expense(acc, 200, core.NewDate(2025, 1, 20)))
	third := mustCreateTx(t, repo, expense(acc, 300, core.NewDate(2025, 1, 20)))

	txs, err := repo.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// newest date first; same-date ties newest insert first
	want := []int64{third, second, first}
	if len(txs) != 3 {
		t.Fatalf("expected 3, got %d", len(txs))
	}
	for i, tx := range txs {
		if tx.ID != want[i] {
			t.Fatalf("position %d: expected id %d, got %d", i, want[i], tx.ID)
		}
	}

	limited, err := repo.ListTransactions(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != third {
		t.Fatalf("limit broke ordering: %+v", limited)
	}
}

func TestListTransactionsInRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	mustCreateTx(t, repo, expense(acc, 100, core.NewDate(2025, 2, 28)))
	inA := mustCreateTx(t, repo, expense(acc, 200, core.NewDate(2025, 3, 1)))
	inB := mustCreateTx(t, repo, expense(acc, 300, core.NewDate(2025, 3, 31)))
	mustCreateTx(t, repo, expense(acc, 400, core.NewDate(2025, 4, 1)))

	rng := core.DateRange{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 31)}
	txs, err := repo.ListTransactionsInRange(ctx, rng)
	if err != nil {
		t.Fatalf("list in range: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("range must be inclusive on both ends, got %d rows", len(txs))
	}
	if txs[0].ID != inB || txs[1].ID != inA {
		t.Fatalf("unexpected rows: %+v", txs)
	}
}

func TestIncomeExpenseSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	// empty set reports zeros, not an error
	s, err := repo.IncomeExpenseSummary(ctx, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Income.Cents != 0 || s.Expense.Cents != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}

	mustCreateTx(t, repo, income(acc, 10000, core.NewDate(2025, 3, 1)))
	mustCreateTx(t, repo, expense(acc, 2000, core.NewDate(2025, 3, 5)))
	mustCreateTx(t, repo, expense(acc, 3000, core.NewDate(2025, 4, 5)))

	s, err = repo.IncomeExpenseSummary(ctx, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Income.Cents != 10000 || s.Expense.Cents != 5000 {
		t.Fatalf("unexpected totals: %+v", s)
	}

	rng := core.DateRange{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 31)}
	s, err = repo.IncomeExpenseSummary(ctx, &rng)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Income.Cents != 10000 || s.Expense.Cents != 2000 {
		t.Fatalf("range filter broken: %+v", s)
	}
}

func TestCategorySummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acc := mustCreateAccount(t, repo, "Checking")

	mustCreateTx(t, repo, expense(acc, 1000, core.NewDate(2025, 3, 1)))
	mustCreateTx(t, repo, expense(acc, 2000, core.NewDate(2025, 3, 2)))
	tr := expense(acc, 5000, core.NewDate(2025, 3, 3))
	tr.Category = "Transport"
	mustCreateTx(t, repo, tr)
	mustCreateTx(t, repo, income(acc, 99999, core.NewDate(2025, 3, 4)))

	totals, err := repo.CategorySummary(ctx, core.Expense, nil)
	if err != nil {
		t.Fatalf("category summary: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("income rows leaked into the expense breakdown: %+v", totals)
	}
	if totals[0].Category != "Transport" || totals[0].Total.Cents != 5000 {
		t.Fatalf("expected Transport 5000 first, got %+v", totals[0])
	}
	if totals[1].Category != "Dining" || totals[1].Total.Cents != 3000 {
		t.Fatalf("expected Dining 3000 second, got %+v", totals[1])
	}

	if _, err := repo.CategorySummary(ctx, "transfer", nil); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

// checkBalances asserts that every cached account balance equals the sum
// of signed amounts of the transactions currently referencing it.
func checkBalances(t *testing.T, repo *Repository, accounts []int64, step int) {
	t.Helper()
	ctx := context.Background()

	txs, err := repo.ListTransactions(ctx, 0)
	if err != nil {
		t.Fatalf("step %d: list: %v", step, err)
	}
	want := make(map[int64]int64)
	for _, tx := range txs {
		want[tx.AccountID] += tx.SignedAmount().Cents
	}
	var wantTotal int64
	for _, acc := range accounts {
		if got := balanceOf(t, repo, acc); got != want[acc] {
			t.Fatalf("step %d: account %d: cached balance %d, transactions sum to %d",
				step, acc, got, want[acc])
		}
		wantTotal += want[acc]
	}
	total, err := repo.TotalBalance(ctx)
	if err != nil {
		t.Fatalf("step %d: total: %v", step, err)
	}
	if total.Cents != wantTotal {
		t.Fatalf("step %d: total balance %d, expected %d", step, total.Cents, wantTotal)
	}
}

// TestBalanceInvariant drives a random mix of postings, edits, and deletes
// and checks after every operation that the cached balances equal the sum
// of live signed amounts, so a transient drift cannot hide by cancelling
// out later.
func TestBalanceInvariant(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	accounts := []int64{
		mustCreateAccount(t, repo, "A"),
		mustCreateAccount(t, repo, "B"),
		mustCreateAccount(t, repo, "C"),
	}
	var ids []int64

	for i := 0; i < 200; i++ {
		acc := accounts[rng.Intn(len(accounts))]
		date := core.NewDate(2025, 1+rng.Intn(12), 1+rng.Intn(28))
		switch op := rng.Intn(10); {
		case op < 6 || len(ids) == 0:
			var tx core.Transaction
			if rng.Intn(2) == 0 {
				tx = income(acc, int64(1+rng.Intn(10000)), date)
			} else {
				tx = expense(acc, int64(1+rng.Intn(10000)), date)
			}
			ids = append(ids, mustCreateTx(t, repo, tx))
		case op < 8:
			id := ids[rng.Intn(len(ids))]
			amount := core.Money{Cents: int64(1 + rng.Intn(10000))}
			u := core.TransactionUpdate{Amount: &amount, AccountID: &acc}
			if err := repo.UpdateTransaction(ctx, id, u); err != nil && !errors.Is(err, core.ErrTransactionNotFound) {
				t.Fatalf("update: %v", err)
			}
		default:
			id := ids[rng.Intn(len(ids))]
			if err := repo.DeleteTransaction(ctx, id); err != nil {
				t.Fatalf("delete: %v", err)
			}
		}
		checkBalances(t, repo, accounts, i)
	}
}
