package sales

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// SummaryInput is the input of sales_summary.
type SummaryInput struct {
	skills.PeriodInput
	Filters
	GroupBy string `json:"group_by,omitempty" jsonschema:"breakdown: customer, product, salesperson, team, category, month or week" validate:"omitempty,oneof=customer product salesperson team category month week"`
}

// SummaryOutput is the result of sales_summary.
type SummaryOutput struct {
	Period        period.Period   `json:"period"`
	Total         float64         `json:"total"`
	Quantity      float64         `json:"quantity"`
	Lines         int64           `json:"lines"`
	Orders        int64           `json:"orders"`
	AverageTicket float64         `json:"averageTicket"`
	Breakdown     []skills.Bucket `json:"breakdown,omitempty"`
}

// Summary defines sales_summary.
func Summary() skills.Skill {
	return skills.Define[SummaryInput, SummaryOutput](
		"sales_summary",
		"Total confirmed sales (untaxed) for a period, with order count, average ticket and an optional breakdown.",
		runSummary,
	)
}

func runSummary(ctx context.Context, x *skills.Exec, in SummaryInput) (SummaryOutput, error) {
	p, err := x.ResolvePeriod(in.PeriodInput, "este mes")
	if err != nil {
		return SummaryOutput{}, err
	}

	agg, err := totals(ctx, x, p, groupFields[in.GroupBy], in.Filters.options()...)
	if err != nil {
		return SummaryOutput{}, err
	}

	out := SummaryOutput{
		Period:    p,
		Total:     agg.Total,
		Quantity:  agg.Quantity,
		Lines:     agg.Count,
		Breakdown: agg.Buckets,
	}

	// sale.order has no product column; a product filter only counts lines.
	if in.ProductID == 0 {
		var opts []domain.Option
		if in.PartnerID > 0 {
			opts = append(opts, domain.Where("partner_id", in.PartnerID))
		}
		if in.UserID > 0 {
			opts = append(opts, domain.Where("user_id", in.UserID))
		}
		if in.TeamID > 0 {
			opts = append(opts, domain.Where("team_id", in.TeamID))
		}
		d, err := x.Domain(domain.SaleOrder, &p, opts...)
		if err != nil {
			return SummaryOutput{}, err
		}
		orders, err := x.SearchCount(ctx, domain.SaleOrder, d)
		if err != nil {
			return SummaryOutput{}, err
		}
		out.Orders = orders
		if orders > 0 {
			out.AverageTicket = skills.Round2(agg.Total / float64(orders))
		}
	}
	return out, nil
}
