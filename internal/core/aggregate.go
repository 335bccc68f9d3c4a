package core

import "sort"

// Palette is the fixed display palette for category buckets. Buckets carry a
// ColorIndex into this slice rather than a color value.
var Palette = []string{
	"#0070F0", "#00B0FF", "#00F0FF", "#0040A0", "#0060C0",
	"#40C0FF", "#0080E0", "#003080", "#50D0FF", "#0050B0",
}

type (
	// SummaryData is the headline view over a filtered sequence.
	SummaryData struct {
		TotalIncome  Money `json:"totalIncome"`
		TotalExpense Money `json:"totalExpense"`
		Balance      Money `json:"balance"`
	}

	// CategoryBucket is one expense category with its summed amount.
	// Derived data, never persisted.
	CategoryBucket struct {
		Category   string `json:"category"`
		Total      Money  `json:"totalAmount"`
		ColorIndex int    `json:"colorIndex"`
	}

	// TimeSeriesPoint is one calendar-date bucket with income and expense
	// summed separately. Derived data, never persisted.
	TimeSeriesPoint struct {
		Bucket  string `json:"bucketKey"`
		Income  Money  `json:"income"`
		Expense Money  `json:"expense"`
	}

	// TimeSeriesOptions selects one of the two windowing policies.
	//
	// With DayMonthLabels unset the series is truncated to the most recent
	// MaxPoints buckets (keyed by raw ISO date); with it set, every bucket
	// is returned and keys are formatted as day/month labels.
	TimeSeriesOptions struct {
		MaxPoints      int
		DayMonthLabels bool
	}
)

// DefaultTimeSeriesPoints is the truncation window of the default policy.
const DefaultTimeSeriesPoints = 15

// Summarize folds a filtered sequence into income, expense and balance
// totals. The balance may be negative. Empty input yields all zeros.
func Summarize(txs []Transaction) SummaryData {
	var s SummaryData
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome.Cents += t.Amount.Cents
		case Expense:
			s.TotalExpense.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents
	return s
}

// CategoryBreakdown groups expenses by exact category label, summing amounts
// per group. Buckets are sorted descending by total; ties keep first-seen
// order so identical input always yields identical output. The color index
// follows first-seen order, not the sorted position.
func CategoryBreakdown(txs []Transaction) []CategoryBucket {
	index := make(map[string]int)
	var buckets []CategoryBucket
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(buckets)
			index[t.Category] = i
			buckets = append(buckets, CategoryBucket{
				Category:   t.Category,
				ColorIndex: i % len(Palette),
			})
		}
		buckets[i].Total.Cents += t.Amount.Cents
	}

	sort.SliceStable(buckets, func(a, b int) bool {
		return buckets[a].Total.Cents > buckets[b].Total.Cents
	})
	return buckets
}

// TimeSeries groups the full filtered sequence (both types) by calendar date
// and sums income and expense per bucket, sorted ascending by date.
func TimeSeries(txs []Transaction, opts TimeSeriesOptions) []TimeSeriesPoint {
	index := make(map[string]int)
	var points []TimeSeriesPoint
	var dates []Date
	for _, t := range txs {
		key := t.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, TimeSeriesPoint{Bucket: key})
			dates = append(dates, t.Date)
		}
		switch t.Type {
		case Income:
			points[i].Income.Cents += t.Amount.Cents
		case Expense:
			points[i].Expense.Cents += t.Amount.Cents
		}
	}

	sort.SliceStable(points, func(a, b int) bool {
		return points[a].Bucket < points[b].Bucket
	})

	if opts.DayMonthLabels {
		sort.SliceStable(dates, func(a, b int) bool {
			return dates[a].Before(dates[b].Time)
		})
		for i := range points {
			points[i].Bucket = dates[i].Format("02/01")
		}
		return points
	}

	max := opts.MaxPoints
	if max <= 0 {
		max = DefaultTimeSeriesPoints
	}
	if len(points) > max {
		points = points[len(points)-max:]
	}
	return points
}
