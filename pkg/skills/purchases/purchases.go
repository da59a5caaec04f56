// Package purchases answers questions about confirmed purchases using
// purchase.report.
package purchases

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

var groupFields = map[string]string{
	"supplier": "partner_id",
	"product":  "product_id",
	"category": "category_id",
	"buyer":    "user_id",
	"month":    "date_order:month",
}

// SummaryInput is the input of purchases_summary.
type SummaryInput struct {
	skills.PeriodInput
	PartnerID int64  `json:"partner_id,omitempty" jsonschema:"only this supplier" validate:"omitempty,min=1"`
	ProductID int64  `json:"product_id,omitempty" jsonschema:"only this product" validate:"omitempty,min=1"`
	GroupBy   string `json:"group_by,omitempty" jsonschema:"breakdown: supplier, product, category, buyer or month" validate:"omitempty,oneof=supplier product category buyer month"`
}

// SummaryOutput is the result of purchases_summary.
type SummaryOutput struct {
	Period    period.Period   `json:"period"`
	Total     float64         `json:"total"`
	Quantity  float64         `json:"quantity"`
	Lines     int64           `json:"lines"`
	Breakdown []skills.Bucket `json:"breakdown,omitempty"`
}

// Skills returns the purchases family.
func Skills() []skills.Skill {
	return []skills.Skill{Summary()}
}

// Summary defines purchases_summary.
func Summary() skills.Skill {
	return skills.Define[SummaryInput, SummaryOutput](
		"purchases_summary",
		"Total confirmed purchases (with taxes) for a period, with an optional breakdown by supplier, product, category, buyer or month.",
		run,
	)
}

func run(ctx context.Context, x *skills.Exec, in SummaryInput) (SummaryOutput, error) {
	p, err := x.ResolvePeriod(in.PeriodInput, "este mes")
	if err != nil {
		return SummaryOutput{}, err
	}
	var opts []domain.Option
	if in.PartnerID > 0 {
		opts = append(opts, domain.Where("partner_id", in.PartnerID))
	}
	if in.ProductID > 0 {
		opts = append(opts, domain.Where("product_id", in.ProductID))
	}
	d, err := x.Domain(domain.PurchaseReport, &p, opts...)
	if err != nil {
		return SummaryOutput{}, err
	}
	agg, err := x.Aggregate(ctx, domain.PurchaseReport, d, skills.AggregateSpec{
		AmountField:   "price_total",
		QuantityField: "qty_ordered",
		GroupBy:       groupFields[in.GroupBy],
	})
	if err != nil {
		return SummaryOutput{}, err
	}
	return SummaryOutput{
		Period:    p,
		Total:     agg.Total,
		Quantity:  agg.Quantity,
		Lines:     agg.Count,
		Breakdown: agg.Buckets,
	}, nil
}
