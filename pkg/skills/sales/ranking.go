package sales

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// RankingInput is the input of top_customers.
type RankingInput struct {
	skills.PeriodInput
	Limit int `json:"limit,omitempty" jsonschema:"number of entries, default 10, at most 100" validate:"omitempty,min=1,max=100"`
}

// TopProductsInput is the input of top_products.
type TopProductsInput struct {
	skills.PeriodInput
	Limit int    `json:"limit,omitempty" jsonschema:"number of entries, default 10, at most 100" validate:"omitempty,min=1,max=100"`
	By    string `json:"by,omitempty" jsonschema:"rank by amount (default) or quantity" validate:"omitempty,oneof=amount quantity"`
}

// RankingOutput is a ranked list of customers or products.
type RankingOutput struct {
	Period  period.Period        `json:"period"`
	By      string               `json:"by"`
	Total   float64              `json:"total"`
	Entries []skills.RankedEntry `json:"ranking"`
}

// TopCustomers defines top_customers.
func TopCustomers() skills.Skill {
	return skills.Define[RankingInput, RankingOutput](
		"top_customers",
		"Rank customers by confirmed sales amount for a period.",
		func(ctx context.Context, x *skills.Exec, in RankingInput) (RankingOutput, error) {
			return rank(ctx, x, in.PeriodInput, "partner_id", "amount", in.Limit)
		},
	)
}

// TopProducts defines top_products.
func TopProducts() skills.Skill {
	return skills.Define[TopProductsInput, RankingOutput](
		"top_products",
		"Rank products by confirmed sales amount or quantity for a period.",
		func(ctx context.Context, x *skills.Exec, in TopProductsInput) (RankingOutput, error) {
			by := in.By
			if by == "" {
				by = "amount"
			}
			return rank(ctx, x, in.PeriodInput, "product_id", by, in.Limit)
		},
	)
}

func rank(ctx context.Context, x *skills.Exec, pin skills.PeriodInput, groupBy, by string, limit int) (RankingOutput, error) {
	p, err := x.ResolvePeriod(pin, "este mes")
	if err != nil {
		return RankingOutput{}, err
	}
	agg, err := totals(ctx, x, p, groupBy)
	if err != nil {
		return RankingOutput{}, err
	}
	metric := skills.ByAmount
	if by == "quantity" {
		metric = skills.ByQuantity
	}
	return RankingOutput{
		Period:  p,
		By:      by,
		Total:   agg.Total,
		Entries: skills.Rank(agg.Buckets, metric, rankingLimit(limit)),
	}, nil
}
