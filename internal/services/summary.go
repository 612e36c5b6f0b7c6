package services

import (
	"context"
	"fmt"
	"time"

	"billing/internal/core"
	"billing/internal/storage"
)

// SummaryService is the transaction aggregate view: income/expense totals
// and category breakdowns over an optional symbolic period.
type SummaryService struct {
	storage *storage.Repository
	now     func() time.Time
}

func NewSummaryService(storage *storage.Repository) *SummaryService {
	return &SummaryService{storage: storage, now: time.Now}
}

// resolvePeriod turns an optional symbolic period into a concrete range.
// An empty period means the whole transaction set.
func (s *SummaryService) resolvePeriod(period core.Period) (*core.DateRange, error) {
	if period == "" {
		return nil, nil
	}
	rng, err := period.Range(core.Date{Time: s.now()})
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

// Overview returns income and expense totals for the period.
func (s *SummaryService) Overview(ctx context.Context, period core.Period) (core.Summary, error) {
	rng, err := s.resolvePeriod(period)
	if err != nil {
		return core.Summary{}, err
	}
	sum, err := s.storage.IncomeExpenseSummary(ctx, rng)
	if err != nil {
		return core.Summary{}, fmt.Errorf("income/expense summary: %w", err)
	}
	return sum, nil
}

// CategoryBreakdown returns per-category totals of one type, descending,
// with each category's rounded percent share of the grand total. Shares
// are all zero when the grand total is zero.
func (s *SummaryService) CategoryBreakdown(ctx context.Context, t core.TxType, period core.Period) ([]core.CategoryShare, error) {
	rng, err := s.resolvePeriod(period)
	if err != nil {
		return nil, err
	}
	totals, err := s.storage.CategorySummary(ctx, t, rng)
	if err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	return core.Shares(totals), nil
}

// RangeFor exposes period resolution for callers that filter listings.
func (s *SummaryService) RangeFor(period core.Period) (core.DateRange, error) {
	return period.Range(core.Date{Time: s.now()})
}
