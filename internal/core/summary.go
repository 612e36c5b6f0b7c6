package core

// CategoryTotal is an amount aggregated by category, as produced by the
// storage layer (descending by total).
type CategoryTotal struct {
	Category string
	Icon     string
	Total    Money
}

// CategoryShare adds the category's share of the grand total, rounded to
// whole percent. All shares are zero when the grand total is zero.
type CategoryShare struct {
	CategoryTotal
	Percent int
}

// Shares derives percent shares from a category breakdown. Rounding is
// half-up per entry, so the shares sum to 100 give or take rounding.
func Shares(totals []CategoryTotal) []CategoryShare {
	var grand int64
	for _, t := range totals {
		grand += t.Total.Cents
	}
	shares := make([]CategoryShare, len(totals))
	for i, t := range totals {
		shares[i] = CategoryShare{CategoryTotal: t}
		if grand > 0 {
			shares[i].Percent = int((t.Total.Cents*100 + grand/2) / grand)
		}
	}
	return shares
}
