package crm

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
)

// LostInput is the input of lost_reasons.
type LostInput struct {
	skills.PeriodInput
	UserID int64 `json:"user_id,omitempty" jsonschema:"only this salesperson" validate:"omitempty,min=1"`
	Limit  int   `json:"limit,omitempty" jsonschema:"number of reasons, default 10, at most 100" validate:"omitempty,min=1,max=100"`
}

// Reason is one ranked lost reason.
type Reason struct {
	Rank        int     `json:"rank"`
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Lost        int64   `json:"lost"`
	Percent     float64 `json:"percent"`
	LostRevenue float64 `json:"lostRevenue"`
}

// LostOutput is the result of lost_reasons.
type LostOutput struct {
	Period      period.Period `json:"period"`
	Lost        int64         `json:"lost"`
	LostRevenue float64       `json:"lostRevenue"`
	Reasons     []Reason      `json:"reasons"`
}

// LostReasons defines lost_reasons.
func LostReasons() skills.Skill {
	return skills.Define[LostInput, LostOutput](
		"lost_reasons",
		"Why opportunities were lost in a period, ranked by number of lost opportunities.",
		runLost,
	)
}

func runLost(ctx context.Context, x *skills.Exec, in LostInput) (LostOutput, error) {
	p, err := x.ResolvePeriod(in.PeriodInput, "este año")
	if err != nil {
		return LostOutput{}, err
	}
	var opts []domain.Option
	if in.UserID > 0 {
		opts = append(opts, domain.Where("user_id", in.UserID))
	}
	d, err := x.Domain(domain.CRMLeadLost, &p, opts...)
	if err != nil {
		return LostOutput{}, err
	}
	agg, err := x.Aggregate(ctx, domain.CRMLeadLost, d, skills.AggregateSpec{
		AmountField: "expected_revenue",
		GroupBy:     "lost_reason_id",
	})
	if err != nil {
		return LostOutput{}, err
	}

	out := LostOutput{Period: p, Lost: agg.Count, LostRevenue: agg.Total, Reasons: []Reason{}}
	limit := skills.Limit(in.Limit, types.DefaultRankingLimit, types.MaxRankingLimit)
	for _, e := range skills.Rank(agg.Buckets, skills.ByCount, limit) {
		out.Reasons = append(out.Reasons, Reason{
			Rank:        e.Rank,
			ID:          e.ID,
			Name:        e.Name,
			Lost:        e.Count,
			Percent:     skills.Percent(float64(e.Count), float64(agg.Count)),
			LostRevenue: e.Amount,
		})
	}
	return out, nil
}
