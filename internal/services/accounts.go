package services

import (
	"context"
	"fmt"

	"billing/internal/core"
	"billing/internal/storage"
)

// AccountService is the account aggregate view: account CRUD plus the
// total balance across all accounts.
type AccountService struct {
	storage *storage.Repository
}

func NewAccountService(storage *storage.Repository) *AccountService {
	return &AccountService{storage: storage}
}

// List returns all accounts, newest first.
func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx)
}

// Get returns one account or core.ErrAccountNotFound.
func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

// Create adds an account, optionally with an opening balance.
func (s *AccountService) Create(ctx context.Context, a core.Account) (int64, error) {
	id, err := s.storage.CreateAccount(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return id, nil
}

// Update applies a partial account edit. A set balance is a manual
// adjustment that later postings build on.
func (s *AccountService) Update(ctx context.Context, id int64, u core.AccountUpdate) error {
	if err := s.storage.UpdateAccount(ctx, id, u); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// Delete removes an account and, via the cascade constraint, all its
// transactions.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// TotalBalance sums all account balances, zero for an empty account set.
func (s *AccountService) TotalBalance(ctx context.Context) (core.Money, error) {
	return s.storage.TotalBalance(ctx)
}
