package subscriptions

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

var groupFields = map[string]string{
	"plan":        "plan_id",
	"customer":    "partner_id",
	"salesperson": "user_id",
	"team":        "team_id",
}

// MRRInput is the input of subscriptions_mrr.
type MRRInput struct {
	GroupBy string `json:"group_by,omitempty" jsonschema:"breakdown: plan (default), customer, salesperson or team" validate:"omitempty,oneof=plan customer salesperson team"`
	PlanID  int64  `json:"plan_id,omitempty" jsonschema:"only this plan" validate:"omitempty,min=1"`
	UserID  int64  `json:"user_id,omitempty" jsonschema:"only this salesperson" validate:"omitempty,min=1"`
}

// MRROutput is the result of subscriptions_mrr.
type MRROutput struct {
	AsOf      string          `json:"asOf"`
	MRR       float64         `json:"mrr"`
	ARR       float64         `json:"arr"`
	Active    int64           `json:"activeSubscriptions"`
	ARPU      float64         `json:"arpu"`
	Breakdown []skills.Bucket `json:"breakdown"`
}

// MRR defines subscriptions_mrr.
func MRR() skills.Skill {
	return skills.Define[MRRInput, MRROutput](
		"subscriptions_mrr",
		"Monthly and annual recurring revenue of running subscriptions, with average revenue per subscription and a breakdown by plan.",
		runMRR,
	)
}

func runMRR(ctx context.Context, x *skills.Exec, in MRRInput) (MRROutput, error) {
	groupBy := in.GroupBy
	if groupBy == "" {
		groupBy = "plan"
	}
	var opts []domain.Option
	if in.PlanID > 0 {
		opts = append(opts, domain.Where("plan_id", in.PlanID))
	}
	if in.UserID > 0 {
		opts = append(opts, domain.Where("user_id", in.UserID))
	}
	d, err := x.Domain(domain.Subscription, nil, opts...)
	if err != nil {
		return MRROutput{}, err
	}
	agg, err := x.Aggregate(ctx, domain.Subscription, d, skills.AggregateSpec{
		AmountField: mrrField,
		GroupBy:     groupFields[groupBy],
	})
	if err != nil {
		return MRROutput{}, err
	}

	out := MRROutput{
		AsOf:      x.Now().Format("2006-01-02"),
		MRR:       agg.Total,
		ARR:       skills.Round2(agg.Total * 12),
		Active:    agg.Count,
		Breakdown: agg.Buckets,
	}
	if out.Breakdown == nil {
		out.Breakdown = []skills.Bucket{}
	}
	if agg.Count > 0 {
		out.ARPU = skills.Round2(agg.Total / float64(agg.Count))
	}
	return out, nil
}
