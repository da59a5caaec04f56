package sales

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// InactiveInput is the input of inactive_customers.
type InactiveInput struct {
	skills.PeriodInput
	Limit int `json:"limit,omitempty" jsonschema:"number of customers listed, default 10, at most 100" validate:"omitempty,min=1,max=100"`
}

// InactiveCustomer bought in the previous period but not in the current one.
type InactiveCustomer struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	PreviousAmount float64 `json:"previousAmount"`
	PreviousLines  int64   `json:"previousLines"`
}

// InactiveOutput is the result of inactive_customers.
type InactiveOutput struct {
	Period           period.Period      `json:"period"`
	PreviousPeriod   period.Period      `json:"previousPeriod"`
	ActiveCustomers  int                `json:"activeCustomers"`
	PreviousActive   int                `json:"previousActiveCustomers"`
	Retained         int                `json:"retained"`
	RetentionPercent float64            `json:"retentionPercent"`
	InactiveCount    int                `json:"inactiveCount"`
	LostAmount       float64            `json:"lostAmount"`
	Customers        skills.Comparison  `json:"customers"`
	Inactive         []InactiveCustomer `json:"inactive"`
}

// InactiveCustomers defines inactive_customers.
func InactiveCustomers() skills.Skill {
	return skills.Define[InactiveInput, InactiveOutput](
		"inactive_customers",
		"Customers who bought in the previous period but not in this one, with retention rate.",
		runInactive,
	)
}

func runInactive(ctx context.Context, x *skills.Exec, in InactiveInput) (InactiveOutput, error) {
	current, err := x.ResolvePeriod(in.PeriodInput, "ultimos 3 meses")
	if err != nil {
		return InactiveOutput{}, err
	}
	previous := current.Previous()

	cur, prev, err := pair(ctx, x, current, previous, "partner_id")
	if err != nil {
		return InactiveOutput{}, err
	}

	active := make(map[int64]bool, len(cur.Buckets))
	for _, b := range cur.Buckets {
		if b.ID > 0 {
			active[b.ID] = true
		}
	}

	out := InactiveOutput{
		Period:          current,
		PreviousPeriod:  previous,
		ActiveCustomers: len(active),
		Inactive:        []InactiveCustomer{},
	}
	var lost []InactiveCustomer
	for _, b := range prev.Buckets {
		if b.ID <= 0 {
			continue
		}
		out.PreviousActive++
		if active[b.ID] {
			out.Retained++
			continue
		}
		out.LostAmount += b.Amount
		lost = append(lost, InactiveCustomer{ID: b.ID, Name: b.Name, PreviousAmount: b.Amount, PreviousLines: b.Count})
	}
	out.InactiveCount = len(lost)
	out.LostAmount = skills.Round2(out.LostAmount)
	out.RetentionPercent = skills.Percent(float64(out.Retained), float64(out.PreviousActive))
	out.Customers = skills.Compare(float64(out.ActiveCustomers), float64(out.PreviousActive), true)

	skills.SortRanked(lost,
		func(c InactiveCustomer) float64 { return c.PreviousAmount },
		func(c InactiveCustomer) string { return c.Name })
	if n := rankingLimit(in.Limit); len(lost) > n {
		lost = lost[:n]
	}
	if lost != nil {
		out.Inactive = lost
	}
	return out, nil
}
