package subscriptions

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
)

var stateFilters = map[string][]string{
	"active":  {StateInProgress, StatePaused},
	"paused":  {StatePaused},
	"churned": {StateChurned},
	"all":     {StateInProgress, StatePaused, StateChurned},
}

var subscriptionFields = []string{"id", "name", "client_order_ref", "partner_id", "plan_id", "user_id",
	"start_date", "next_invoice_date", "recurring_monthly", "subscription_state", "order_line"}

// DetailInput is the input of subscription_detail.
type DetailInput struct {
	PartnerID int64  `json:"partner_id,omitempty" jsonschema:"only this customer" validate:"omitempty,min=1"`
	PlanID    int64  `json:"plan_id,omitempty" jsonschema:"only this plan" validate:"omitempty,min=1"`
	Reference string `json:"reference,omitempty" jsonschema:"order number or customer reference, partial match" validate:"omitempty,max=64"`
	State     string `json:"state,omitempty" jsonschema:"active (default), paused, churned or all" validate:"omitempty,oneof=active paused churned all"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of subscriptions, default 50, at most 500" validate:"omitempty,min=1,max=500"`
}

// Customer is the contact of a subscription.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Line is one recurring product line.
type Line struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Subscription is one enriched subscription order.
type Subscription struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Reference   string    `json:"reference,omitempty"`
	Plan        string    `json:"plan"`
	Salesperson string    `json:"salesperson,omitempty"`
	State       string    `json:"state"`
	StartDate   string    `json:"startDate,omitempty"`
	NextInvoice string    `json:"nextInvoice,omitempty"`
	MRR         float64   `json:"mrr"`
	Customer    *Customer `json:"customer,omitempty"`
	Lines       []Line    `json:"lines"`
}

// DetailOutput is the result of subscription_detail.
type DetailOutput struct {
	Total         int64          `json:"total"`
	Returned      int            `json:"returned"`
	MRR           float64        `json:"mrr"`
	Subscriptions []Subscription `json:"subscriptions"`
}

// Detail defines subscription_detail.
func Detail() skills.Skill {
	return skills.Define[DetailInput, DetailOutput](
		"subscription_detail",
		"List subscriptions with their customer contact, plan, recurring amount and product lines.",
		runDetail,
	)
}

func runDetail(ctx context.Context, x *skills.Exec, in DetailInput) (DetailOutput, error) {
	state := in.State
	if state == "" {
		state = "active"
	}
	opts := []domain.Option{domain.States(stateFilters[state]...)}
	if in.PartnerID > 0 {
		opts = append(opts, domain.Where("partner_id", in.PartnerID))
	}
	if in.PlanID > 0 {
		opts = append(opts, domain.Where("plan_id", in.PlanID))
	}
	if in.Reference != "" {
		opts = append(opts, domain.WhereOp("name", "ilike", in.Reference))
	}
	d, err := x.Domain(domain.Subscription, nil, opts...)
	if err != nil {
		return DetailOutput{}, err
	}

	total, err := x.SearchCount(ctx, domain.Subscription, d)
	if err != nil {
		return DetailOutput{}, err
	}
	rows, err := x.SearchRead(ctx, domain.Subscription, d, odoo.SearchOptions{
		Fields: subscriptionFields,
		Limit:  skills.Limit(in.Limit, types.DefaultDetailRecords, types.MaxDetailRecords),
		Order:  "recurring_monthly desc, id asc",
	})
	if err != nil {
		return DetailOutput{}, err
	}

	out := DetailOutput{Total: total, Returned: len(rows), Subscriptions: make([]Subscription, 0, len(rows))}
	if len(rows) == 0 {
		return out, nil
	}

	var partnerIDs, lineIDs []int64
	seen := map[int64]bool{}
	for _, r := range rows {
		if ref, ok := r.Ref("partner_id"); ok && !seen[ref.ID] {
			seen[ref.ID] = true
			partnerIDs = append(partnerIDs, ref.ID)
		}
		lineIDs = append(lineIDs, r.IDs("order_line")...)
	}

	partners, err := x.Read(ctx, domain.Partner, partnerIDs, []string{"id", "name", "email", "phone"})
	if err != nil {
		return DetailOutput{}, err
	}
	contacts := make(map[int64]Customer, len(partners))
	for _, p := range partners {
		contacts[p.ID()] = Customer{ID: p.ID(), Name: p.String("name"), Email: p.String("email"), Phone: p.String("phone")}
	}

	lineRows, err := x.Read(ctx, domain.SaleOrderLine, lineIDs, []string{"id", "order_id", "product_id", "product_uom_qty", "price_subtotal"})
	if err != nil {
		return DetailOutput{}, err
	}
	lines := map[int64][]Line{}
	for _, l := range lineRows {
		order := l.Int("order_id")
		_, product := skills.GroupLabel(l, "product_id")
		lines[order] = append(lines[order], Line{
			Product:  product,
			Quantity: l.Float("product_uom_qty"),
			Subtotal: skills.Round2(l.Float("price_subtotal")),
		})
	}

	var mrr float64
	for _, r := range rows {
		sub := Subscription{
			ID:          r.ID(),
			Name:        r.String("name"),
			Reference:   r.String("client_order_ref"),
			State:       r.String("subscription_state"),
			StartDate:   r.String("start_date"),
			NextInvoice: r.String("next_invoice_date"),
			MRR:         skills.Round2(r.Float(mrrField)),
			Lines:       []Line{},
		}
		_, sub.Plan = skills.GroupLabel(r, "plan_id")
		if ref, ok := r.Ref("user_id"); ok {
			sub.Salesperson = ref.Name
		}
		if ref, ok := r.Ref("partner_id"); ok {
			c, found := contacts[ref.ID]
			if !found {
				c = Customer{ID: ref.ID, Name: ref.Name}
			}
			sub.Customer = &c
		}
		if l, ok := lines[sub.ID]; ok {
			sub.Lines = l
		}
		mrr += r.Float(mrrField)
		out.Subscriptions = append(out.Subscriptions, sub)
	}
	out.MRR = skills.Round2(mrr)
	return out, nil
}
