// Package payments summarizes posted customer and supplier payments.
package payments

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

const amountField = "amount"

var groupFields = map[string]string{
	"partner": "partner_id",
	"journal": "journal_id",
	"month":   "date:month",
}

// SummaryInput is the input of payments_summary.
type SummaryInput struct {
	skills.PeriodInput
	PartnerType string `json:"partner_type,omitempty" jsonschema:"customer or supplier payments only" validate:"omitempty,oneof=customer supplier"`
	PartnerID   int64  `json:"partner_id,omitempty" jsonschema:"only this partner" validate:"omitempty,min=1"`
	GroupBy     string `json:"group_by,omitempty" jsonschema:"breakdown: partner, journal or month" validate:"omitempty,oneof=partner journal month"`
}

// SummaryOutput is the result of payments_summary.
type SummaryOutput struct {
	Period        period.Period   `json:"period"`
	Inbound       float64         `json:"inbound"`
	Outbound      float64         `json:"outbound"`
	Net           float64         `json:"net"`
	InboundCount  int64           `json:"inboundCount"`
	OutboundCount int64           `json:"outboundCount"`
	Breakdown     []skills.Bucket `json:"breakdown,omitempty"`
}

// Skills returns the payments family.
func Skills() []skills.Skill {
	return []skills.Skill{Summary()}
}

// Summary defines payments_summary.
func Summary() skills.Skill {
	return skills.Define[SummaryInput, SummaryOutput](
		"payments_summary",
		"Posted payments received and sent in a period, with net cash flow and an optional breakdown.",
		run,
	)
}

func run(ctx context.Context, x *skills.Exec, in SummaryInput) (SummaryOutput, error) {
	p, err := x.ResolvePeriod(in.PeriodInput, "este mes")
	if err != nil {
		return SummaryOutput{}, err
	}
	var opts []domain.Option
	if in.PartnerType != "" {
		opts = append(opts, domain.Where("partner_type", in.PartnerType))
	}
	if in.PartnerID > 0 {
		opts = append(opts, domain.Where("partner_id", in.PartnerID))
	}
	d, err := x.Domain(domain.AccountPayment, &p, opts...)
	if err != nil {
		return SummaryOutput{}, err
	}

	byType, err := x.Aggregate(ctx, domain.AccountPayment, d, skills.AggregateSpec{
		AmountField: amountField,
		GroupBy:     "payment_type",
	})
	if err != nil {
		return SummaryOutput{}, err
	}
	out := SummaryOutput{Period: p}
	for _, b := range byType.Buckets {
		switch b.Name {
		case "inbound":
			out.Inbound += b.Amount
			out.InboundCount += b.Count
		case "outbound":
			out.Outbound += b.Amount
			out.OutboundCount += b.Count
		}
	}
	out.Net = skills.Round2(out.Inbound - out.Outbound)

	if field := groupFields[in.GroupBy]; field != "" {
		agg, err := x.Aggregate(ctx, domain.AccountPayment, d, skills.AggregateSpec{
			AmountField: amountField,
			GroupBy:     field,
		})
		if err != nil {
			return SummaryOutput{}, err
		}
		out.Breakdown = agg.Buckets
	}
	return out, nil
}
