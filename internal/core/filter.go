package core

import "time"

const (
	FilterCurrentMonth FilterKind = "current_month"
	FilterLast30Days   FilterKind = "last_30_days"
	FilterCurrentYear  FilterKind = "current_year"
	FilterCustom       FilterKind = "custom"
)

type (
	FilterKind string

	// FilterSpec selects a date window over a transaction sequence.
	// Start and End are only meaningful for FilterCustom.
	FilterSpec struct {
		Kind  FilterKind
		Start Date
		End   Date
	}
)

// Filter returns the subsequence of txs whose date falls inside the window
// described by spec, evaluated against the reference instant now. Relative
// order among kept items is preserved and the input is never mutated.
//
// A custom filter with either bound unset degrades to a pass-through of the
// full input rather than excluding everything.
func Filter(txs []Transaction, spec FilterSpec, now time.Time) []Transaction {
	if spec.Kind == FilterCustom && (spec.Start.IsZero() || spec.End.IsZero()) {
		return append([]Transaction(nil), txs...)
	}

	today := DateOf(now)
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if matches(t.Date, spec, now, today) {
			out = append(out, t)
		}
	}
	return out
}

func matches(d Date, spec FilterSpec, now time.Time, today Date) bool {
	switch spec.Kind {
	case FilterCurrentMonth:
		return d.Month() == now.Month() && d.Year() == now.Year()
	case FilterCurrentYear:
		return d.Year() == now.Year()
	case FilterLast30Days:
		// [today-30d, tomorrow): the exclusive upper bound keeps all of
		// today in the window.
		lo := today.AddDate(0, 0, -30)
		hi := today.AddDate(0, 0, 1)
		return !d.Before(lo) && d.Before(hi)
	case FilterCustom:
		return !d.Before(spec.Start.Time) && !d.After(spec.End.Time)
	default:
		return true
	}
}
