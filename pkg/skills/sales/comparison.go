package sales

import (
	"context"
	"strings"

	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// ComparisonInput is the input of sales_comparison.
type ComparisonInput struct {
	skills.PeriodInput
	Filters
	CompareTo string `json:"compare_to,omitempty" jsonschema:"period to compare against; defaults to the previous equivalent period" validate:"omitempty,max=120"`
}

// PeriodTotals are the sales of one side of a comparison.
type PeriodTotals struct {
	Period   period.Period `json:"period"`
	Total    float64       `json:"total"`
	Quantity float64       `json:"quantity"`
	Lines    int64         `json:"lines"`
}

// ComparisonOutput is the result of sales_comparison.
type ComparisonOutput struct {
	Current  PeriodTotals      `json:"current"`
	Previous PeriodTotals      `json:"previous"`
	Sales    skills.Comparison `json:"sales"`
	Quantity skills.Comparison `json:"quantity"`
}

// Comparison defines sales_comparison.
func Comparison() skills.Skill {
	return skills.Define[ComparisonInput, ComparisonOutput](
		"sales_comparison",
		"Compare sales between a period and the previous equivalent period (or an explicit one), with change and trend.",
		runComparison,
	)
}

func runComparison(ctx context.Context, x *skills.Exec, in ComparisonInput) (ComparisonOutput, error) {
	current, err := x.ResolvePeriod(in.PeriodInput, "mes pasado")
	if err != nil {
		return ComparisonOutput{}, err
	}
	previous := current.Previous()
	if strings.TrimSpace(in.CompareTo) != "" {
		if previous, err = x.ParsePeriod(in.CompareTo); err != nil {
			return ComparisonOutput{}, err
		}
	}

	cur, prev, err := pair(ctx, x, current, previous, "", in.Filters.options()...)
	if err != nil {
		return ComparisonOutput{}, err
	}
	return ComparisonOutput{
		Current:  PeriodTotals{Period: current, Total: cur.Total, Quantity: cur.Quantity, Lines: cur.Count},
		Previous: PeriodTotals{Period: previous, Total: prev.Total, Quantity: prev.Quantity, Lines: prev.Count},
		Sales:    skills.Compare(cur.Total, prev.Total, true),
		Quantity: skills.Compare(cur.Quantity, prev.Quantity, true),
	}, nil
}
