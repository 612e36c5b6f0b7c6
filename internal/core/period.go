package core

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Period is a symbolic date-range selector resolved relative to "now".
type Period string

func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// Range resolves the period to a concrete inclusive [start, end] range
// anchored at now. Weeks start on Monday. Pure date arithmetic, no state.
func (p Period) Range(now Date) (DateRange, error) {
	y, m, d := now.Date()
	switch p {
	case PeriodWeek:
		// Monday of the current week; Go's Sunday is 0.
		offset := (int(now.Weekday()) + 6) % 7
		start := NewDate(y, int(m), d-offset)
		end := NewDate(start.Year(), int(start.Time.Month()), start.Time.Day()+6)
		return DateRange{Start: start, End: end}, nil
	case PeriodMonth:
		start := NewDate(y, int(m), 1)
		// Day zero of the next month is the last day of this one.
		end := NewDate(y, int(m)+1, 0)
		return DateRange{Start: start, End: end}, nil
	case PeriodYear:
		return DateRange{Start: NewDate(y, 1, 1), End: NewDate(y, 12, 31)}, nil
	}
	return DateRange{}, ErrInvalidPeriod
}
