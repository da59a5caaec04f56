package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 40.0, Percent(120000, 300000))
}

func TestChangePercent(t *testing.T) {
	assert.Equal(t, 25.0, ChangePercent(125, 100))
	assert.Equal(t, -50.0, ChangePercent(50, 100))
	assert.Equal(t, 0.0, ChangePercent(0, 0))
	assert.Equal(t, 100.0, ChangePercent(7, 0))
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		change         float64
		higherIsBetter bool
		want           Trend
	}{
		{12, true, TrendImproving},
		{-12, true, TrendWorsening},
		{4.99, true, TrendStable},
		{-4.99, true, TrendStable},
		{5, true, TrendImproving},
		{12, false, TrendWorsening},
		{-12, false, TrendImproving},
		{0, false, TrendStable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrendOf(tt.change, tt.higherIsBetter), "%v/%v", tt.change, tt.higherIsBetter)
	}
}

func TestCompare(t *testing.T) {
	c := Compare(90, 100, false)
	assert.Equal(t, -10.0, c.Change)
	assert.Equal(t, -10.0, c.ChangePercent)
	assert.Equal(t, TrendImproving, c.Trend)
}

func TestSortRanked_TieBreaksByName(t *testing.T) {
	items := []Bucket{
		{Name: "Zeta", Amount: 10},
		{Name: "Beta", Amount: 20},
		{Name: "Alfa", Amount: 10},
	}
	SortRanked(items, ByAmount, func(b Bucket) string { return b.Name })
	assert.Equal(t, "Beta", items[0].Name)
	assert.Equal(t, "Alfa", items[1].Name)
	assert.Equal(t, "Zeta", items[2].Name)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 10, Limit(0, 10, 100))
	assert.Equal(t, 100, Limit(500, 10, 100))
	assert.Equal(t, 7, Limit(7, 10, 100))
}

func TestSummarize_Empty(t *testing.T) {
	agg := Summarize(nil, AggregateSpec{AmountField: "price_total", GroupBy: "partner_id"})
	assert.Zero(t, agg.Total)
	assert.Zero(t, agg.Count)
	assert.Empty(t, agg.Buckets)
}
