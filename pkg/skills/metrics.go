package skills

import (
	"math"
	"sort"
)

// Trend labels a change between two periods.
type Trend string

const (
	TrendImproving Trend = "mejorando"
	TrendStable    Trend = "estable"
	TrendWorsening Trend = "empeorando"
)

// TrendThreshold is the absolute change, in percent, below which a metric is
// considered stable.
const TrendThreshold = 5.0

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percent returns part as a percentage of total, rounded to two decimals.
// A zero total yields zero.
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return Round2(part / total * 100)
}

// ChangePercent is the relative change from previous to current. Growth from
// zero counts as 100%.
func ChangePercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		if current > 0 {
			return 100
		}
		return -100
	}
	return Round2((current - previous) / math.Abs(previous) * 100)
}

// TrendOf labels changePct. For metrics where lower is better, such as churn,
// the direction is inverted.
func TrendOf(changePct float64, higherIsBetter bool) Trend {
	if math.Abs(changePct) < TrendThreshold {
		return TrendStable
	}
	if (changePct > 0) == higherIsBetter {
		return TrendImproving
	}
	return TrendWorsening
}

// Comparison is a metric across two periods.
type Comparison struct {
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Trend         Trend   `json:"trend"`
}

// Compare builds a Comparison.
func Compare(current, previous float64, higherIsBetter bool) Comparison {
	pct := ChangePercent(current, previous)
	return Comparison{
		Current:       Round2(current),
		Previous:      Round2(previous),
		Change:        Round2(current - previous),
		ChangePercent: pct,
		Trend:         TrendOf(pct, higherIsBetter),
	}
}

// SortRanked orders items by metric descending, then name ascending.
func SortRanked[T any](items []T, metric func(T) float64, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		mi, mj := metric(items[i]), metric(items[j])
		if mi != mj {
			return mi > mj
		}
		return name(items[i]) < name(items[j])
	})
}

// Limit resolves a requested ranking size.
func Limit(requested, def, upper int) int {
	switch {
	case requested <= 0:
		return def
	case requested > upper:
		return upper
	default:
		return requested
	}
}
