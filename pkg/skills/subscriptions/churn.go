package subscriptions

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"golang.org/x/sync/errgroup"
)

// ChurnInput is the input of subscription_churn.
type ChurnInput struct {
	skills.PeriodInput
	PlanID int64 `json:"plan_id,omitempty" jsonschema:"only this plan" validate:"omitempty,min=1"`
}

// ChurnOutput is the result of subscription_churn. Rates are churned over
// churned plus still active subscriptions.
type ChurnOutput struct {
	Period          period.Period     `json:"period"`
	PreviousPeriod  period.Period     `json:"previousPeriod"`
	Churned         int64             `json:"churned"`
	PreviousChurned int64             `json:"previousChurned"`
	Active          int64             `json:"activeSubscriptions"`
	ChurnRate       float64           `json:"churnRate"`
	PreviousRate    float64           `json:"previousChurnRate"`
	LostMRR         float64           `json:"lostMrr"`
	Rate            skills.Comparison `json:"rateComparison"`
	Reasons         []skills.Bucket   `json:"reasons"`
}

// Churn defines subscription_churn.
func Churn() skills.Skill {
	return skills.Define[ChurnInput, ChurnOutput](
		"subscription_churn",
		"Subscriptions that ended in a period, churn rate versus the previous period, lost MRR and close reasons.",
		runChurn,
	)
}

func runChurn(ctx context.Context, x *skills.Exec, in ChurnInput) (ChurnOutput, error) {
	current, err := x.ResolvePeriod(in.PeriodInput, "mes pasado")
	if err != nil {
		return ChurnOutput{}, err
	}
	previous := current.Previous()

	var opts []domain.Option
	if in.PlanID > 0 {
		opts = append(opts, domain.Where("plan_id", in.PlanID))
	}
	curDomain, err := x.Domain(domain.SubscriptionChurn, &current, opts...)
	if err != nil {
		return ChurnOutput{}, err
	}
	prevDomain, err := x.Domain(domain.SubscriptionChurn, &previous, opts...)
	if err != nil {
		return ChurnOutput{}, err
	}
	activeDomain, err := x.Domain(domain.Subscription, nil, opts...)
	if err != nil {
		return ChurnOutput{}, err
	}

	var (
		churned        skills.Aggregate
		prevN, activeN int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		churned, err = x.Aggregate(gctx, domain.SubscriptionChurn, curDomain, skills.AggregateSpec{
			AmountField: mrrField,
			GroupBy:     "close_reason_id",
		})
		return err
	})
	g.Go(func() error {
		var err error
		prevN, err = x.SearchCount(gctx, domain.SubscriptionChurn, prevDomain)
		return err
	})
	g.Go(func() error {
		var err error
		activeN, err = x.SearchCount(gctx, domain.Subscription, activeDomain)
		return err
	})
	if err := g.Wait(); err != nil {
		return ChurnOutput{}, err
	}

	out := ChurnOutput{
		Period:          current,
		PreviousPeriod:  previous,
		Churned:         churned.Count,
		PreviousChurned: prevN,
		Active:          activeN,
		ChurnRate:       Rate(churned.Count, activeN),
		PreviousRate:    Rate(prevN, activeN),
		LostMRR:         churned.Total,
		Reasons:         churned.Buckets,
	}
	if out.Reasons == nil {
		out.Reasons = []skills.Bucket{}
	}
	out.Rate = skills.Compare(out.ChurnRate, out.PreviousRate, false)
	return out, nil
}

// Rate is churned / (active + churned) as a percentage.
func Rate(churned, active int64) float64 {
	return skills.Percent(float64(churned), float64(active+churned))
}
