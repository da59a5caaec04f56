// Package margins computes gross product margins from confirmed sales and
// product cost prices.
package margins

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
)

const (
	revenueField  = "price_subtotal"
	quantityField = "product_uom_qty"
	costField     = "standard_price"
)

// Input is the input of product_margins.
type Input struct {
	skills.PeriodInput
	CategoryID int64  `json:"category_id,omitempty" jsonschema:"only products of this category" validate:"omitempty,min=1"`
	SortBy     string `json:"sort_by,omitempty" jsonschema:"rank by margin (default), percent or revenue" validate:"omitempty,oneof=margin percent revenue"`
	Limit      int    `json:"limit,omitempty" jsonschema:"number of products, default 10, at most 100" validate:"omitempty,min=1,max=100"`
}

// ProductMargin is the margin of one product. Cost is quantity times the
// product's current cost price.
type ProductMargin struct {
	Rank          int     `json:"rank"`
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	Revenue       float64 `json:"revenue"`
	UnitCost      float64 `json:"unitCost"`
	Cost          float64 `json:"cost"`
	MarginTotal   float64 `json:"marginTotal"`
	MarginPercent float64 `json:"marginPercent"`
}

// Output is the result of product_margins. Totals cover products with a
// known cost; the rest are counted in MissingCost.
type Output struct {
	Period          period.Period   `json:"period"`
	Revenue         float64         `json:"revenue"`
	Cost            float64         `json:"cost"`
	MarginTotal     float64         `json:"marginTotal"`
	MarginPercent   float64         `json:"marginPercent"`
	MissingCost     int             `json:"missingCost"`
	UncostedRevenue float64         `json:"uncostedRevenue"`
	Products        []ProductMargin `json:"products"`
}

// Skills returns the margins family.
func Skills() []skills.Skill {
	return []skills.Skill{ProductMargins()}
}

// ProductMargins defines product_margins.
func ProductMargins() skills.Skill {
	return skills.Define[Input, Output](
		"product_margins",
		"Gross margin per product for a period: revenue, cost at current cost price, margin and margin percentage.",
		run,
	)
}

func run(ctx context.Context, x *skills.Exec, in Input) (Output, error) {
	p, err := x.ResolvePeriod(in.PeriodInput, "este mes")
	if err != nil {
		return Output{}, err
	}
	var opts []domain.Option
	if in.CategoryID > 0 {
		opts = append(opts, domain.Where("categ_id", in.CategoryID))
	}
	d, err := x.Domain(domain.SaleReport, &p, opts...)
	if err != nil {
		return Output{}, err
	}
	rows, err := x.ReadGroup(ctx, domain.SaleReport, d, odoo.GroupOptions{
		Fields:  []string{revenueField + ":sum", quantityField + ":sum"},
		GroupBy: []string{"product_id"},
	})
	if err != nil {
		return Output{}, err
	}

	var ids []int64
	for _, r := range rows {
		if ref, ok := r.Ref("product_id"); ok {
			ids = append(ids, ref.ID)
		}
	}
	products, err := x.Read(ctx, domain.Product, ids, []string{"id", costField})
	if err != nil {
		return Output{}, err
	}
	costs := make(map[int64]float64, len(products))
	for _, pr := range products {
		if pr.Has(costField) {
			costs[pr.ID()] = pr.Float(costField)
		}
	}

	out := Compute(rows, costs, in.SortBy, skills.Limit(in.Limit, types.DefaultRankingLimit, types.MaxRankingLimit))
	out.Period = p
	return out, nil
}

// Compute derives margins from product_id-grouped sale.report rows and unit
// costs keyed by product id.
func Compute(rows []odoo.Record, costs map[int64]float64, sortBy string, limit int) Output {
	out := Output{Products: []ProductMargin{}}
	var revenue, cost float64
	list := make([]ProductMargin, 0, len(rows))
	for _, r := range rows {
		id, name := skills.GroupLabel(r, "product_id")
		rev := r.Float(revenueField)
		qty := r.Float(quantityField)
		unit, ok := costs[id]
		if !ok {
			out.MissingCost++
			out.UncostedRevenue += rev
			continue
		}
		c := qty * unit
		m := rev - c
		revenue += rev
		cost += c
		list = append(list, ProductMargin{
			ID:            id,
			Name:          name,
			Quantity:      skills.Round2(qty),
			Revenue:       skills.Round2(rev),
			UnitCost:      skills.Round2(unit),
			Cost:          skills.Round2(c),
			MarginTotal:   skills.Round2(m),
			MarginPercent: skills.Percent(m, rev),
		})
	}

	metric := func(pm ProductMargin) float64 { return pm.MarginTotal }
	switch sortBy {
	case "percent":
		metric = func(pm ProductMargin) float64 { return pm.MarginPercent }
	case "revenue":
		metric = func(pm ProductMargin) float64 { return pm.Revenue }
	}
	skills.SortRanked(list, metric, func(pm ProductMargin) string { return pm.Name })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	for i := range list {
		list[i].Rank = i + 1
	}

	out.Products = list
	out.Revenue = skills.Round2(revenue)
	out.Cost = skills.Round2(cost)
	out.MarginTotal = skills.Round2(revenue - cost)
	out.MarginPercent = skills.Percent(revenue-cost, revenue)
	out.UncostedRevenue = skills.Round2(out.UncostedRevenue)
	return out
}
