package skills

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
)

// Unassigned names the group of records with an empty grouping field.
const Unassigned = "Sin asignar"

// AggregateSpec describes a grouped sum.
type AggregateSpec struct {
	AmountField   string
	QuantityField string
	// GroupBy is empty for a single total, a field name, or Odoo's
	// "field:interval" form for dates.
	GroupBy string
}

// Bucket is one group of an aggregate.
type Bucket struct {
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Quantity float64 `json:"quantity,omitempty"`
	Count    int64   `json:"count"`
	Percent  float64 `json:"percent"`
}

// Aggregate is a total with an optional per-group breakdown.
type Aggregate struct {
	Total    float64  `json:"total"`
	Quantity float64  `json:"quantity,omitempty"`
	Count    int64    `json:"count"`
	Buckets  []Bucket `json:"breakdown,omitempty"`
}

// Aggregate runs one read_group and summarizes it.
func (x *Exec) Aggregate(ctx context.Context, model string, d domain.Domain, spec AggregateSpec) (Aggregate, error) {
	fields := []string{spec.AmountField + ":sum"}
	if spec.QuantityField != "" {
		fields = append(fields, spec.QuantityField+":sum")
	}
	groupBy := []string{}
	if spec.GroupBy != "" {
		groupBy = append(groupBy, spec.GroupBy)
	}
	rows, err := x.ReadGroup(ctx, model, d, odoo.GroupOptions{Fields: fields, GroupBy: groupBy})
	if err != nil {
		return Aggregate{}, err
	}
	return Summarize(rows, spec), nil
}

// Summarize totals grouped rows. An empty row set yields zero totals.
func Summarize(rows []odoo.Record, spec AggregateSpec) Aggregate {
	var agg Aggregate
	for _, r := range rows {
		amount := r.Float(spec.AmountField)
		qty := 0.0
		if spec.QuantityField != "" {
			qty = r.Float(spec.QuantityField)
		}
		count := r.Count(spec.GroupBy)

		agg.Total += amount
		agg.Quantity += qty
		agg.Count += count

		if spec.GroupBy != "" {
			id, name := GroupLabel(r, spec.GroupBy)
			agg.Buckets = append(agg.Buckets, Bucket{
				ID:       id,
				Name:     name,
				Amount:   Round2(amount),
				Quantity: Round2(qty),
				Count:    count,
			})
		}
	}
	for i := range agg.Buckets {
		agg.Buckets[i].Percent = Percent(agg.Buckets[i].Amount, agg.Total)
	}
	agg.Total = Round2(agg.Total)
	agg.Quantity = Round2(agg.Quantity)
	return agg
}

// GroupLabel reads the group value of a read_group row: a many2one as
// (id, name), anything else as its text.
func GroupLabel(r odoo.Record, field string) (int64, string) {
	if ref, ok := r.Ref(field); ok {
		if ref.Name == "" {
			return ref.ID, Unassigned
		}
		return ref.ID, ref.Name
	}
	if s := r.String(field); s != "" {
		return 0, s
	}
	return 0, Unassigned
}

// RankedEntry is one row of a ranking.
type RankedEntry struct {
	Rank     int     `json:"rank"`
	ID       int64   `json:"id,omitempty"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Quantity float64 `json:"quantity,omitempty"`
	Count    int64   `json:"count"`
	Percent  float64 `json:"percent"`
}

// Rank sorts buckets by metric descending, name ascending, and keeps the
// first limit entries.
func Rank(buckets []Bucket, metric func(Bucket) float64, limit int) []RankedEntry {
	sorted := append([]Bucket(nil), buckets...)
	SortRanked(sorted, metric, func(b Bucket) string { return b.Name })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]RankedEntry, 0, len(sorted))
	for i, b := range sorted {
		out = append(out, RankedEntry{
			Rank:     i + 1,
			ID:       b.ID,
			Name:     b.Name,
			Amount:   b.Amount,
			Quantity: b.Quantity,
			Count:    b.Count,
			Percent:  b.Percent,
		})
	}
	return out
}

// ByAmount ranks buckets by amount.
func ByAmount(b Bucket) float64 { return b.Amount }

// ByQuantity ranks buckets by quantity.
func ByQuantity(b Bucket) float64 { return b.Quantity }

// ByCount ranks buckets by record count.
func ByCount(b Bucket) float64 { return float64(b.Count) }
