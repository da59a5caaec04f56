// Package receivables reports open customer and supplier invoices with
// aging buckets.
package receivables

import (
	"context"
	"time"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
)

// Aging bucket labels, oldest last.
const (
	BucketCurrent = "al dia"
	Bucket30      = "1-30"
	Bucket60      = "31-60"
	Bucket90      = "61-90"
	BucketOver90  = "90+"
)

var bucketOrder = []string{BucketCurrent, Bucket30, Bucket60, Bucket90, BucketOver90}

var fields = []string{"name", "partner_id", "invoice_date_due", "amount_residual"}

// Input is the input of accounts_receivable.
type Input struct {
	Kind      string `json:"kind,omitempty" jsonschema:"receivable (customers, default) or payable (suppliers)" validate:"omitempty,oneof=receivable payable"`
	AsOf      string `json:"as_of,omitempty" jsonschema:"aging reference date YYYY-MM-DD, defaults to today" validate:"omitempty,datetime=2006-01-02"`
	PartnerID int64  `json:"partner_id,omitempty" jsonschema:"only this partner" validate:"omitempty,min=1"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of partners listed, default 10, at most 100" validate:"omitempty,min=1,max=100"`
}

// AgingBucket is the open amount whose due date falls in a day range.
type AgingBucket struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Invoices int     `json:"invoices"`
	Percent  float64 `json:"percent"`
}

// PartnerBalance is one partner's open balance.
type PartnerBalance struct {
	Rank      int     `json:"rank"`
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Overdue   float64 `json:"overdue"`
	Invoices  int     `json:"invoices"`
	OldestDue string  `json:"oldestDue,omitempty"`
}

// Output is the result of accounts_receivable.
type Output struct {
	Kind            string           `json:"kind"`
	AsOf            string           `json:"asOf"`
	Total           float64          `json:"total"`
	Overdue         float64          `json:"overdue"`
	OverduePercent  float64          `json:"overduePercent"`
	Invoices        int              `json:"invoices"`
	OverdueInvoices int              `json:"overdueInvoices"`
	Aging           []AgingBucket    `json:"aging"`
	Partners        []PartnerBalance `json:"partners"`
}

// Skills returns the receivables family.
func Skills() []skills.Skill {
	return []skills.Skill{AccountsReceivable()}
}

// AccountsReceivable defines accounts_receivable.
func AccountsReceivable() skills.Skill {
	return skills.Define[Input, Output](
		"accounts_receivable",
		"Open customer (or supplier) invoices: total owed, overdue amount, aging buckets and the partners with the largest balances.",
		run,
	)
}

// BucketFor returns the aging bucket for an invoice overdue by days.
func BucketFor(days int) string {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket30
	case days <= 60:
		return Bucket60
	case days <= 90:
		return Bucket90
	default:
		return BucketOver90
	}
}

func run(ctx context.Context, x *skills.Exec, in Input) (Output, error) {
	kind := in.Kind
	if kind == "" {
		kind = "receivable"
	}
	model := domain.Receivable
	if kind == "payable" {
		model = domain.Payable
	}

	asOf := period.DateOf(x.Now())
	if in.AsOf != "" {
		t, err := time.Parse(period.Layout, in.AsOf)
		if err != nil {
			return Output{}, qerr.New(qerr.CodeValidation, "invalid as_of date", err)
		}
		asOf = t
	}

	var opts []domain.Option
	if in.PartnerID > 0 {
		opts = append(opts, domain.Where("partner_id", in.PartnerID))
	}
	d, err := x.Domain(model, nil, opts...)
	if err != nil {
		return Output{}, err
	}
	rows, err := x.SearchRead(ctx, model, d, odoo.SearchOptions{Fields: fields, Order: "invoice_date_due asc"})
	if err != nil {
		return Output{}, err
	}
	return summarize(rows, kind, asOf, skills.Limit(in.Limit, types.DefaultRankingLimit, types.MaxRankingLimit)), nil
}

func summarize(rows []odoo.Record, kind string, asOf time.Time, limit int) Output {
	out := Output{Kind: kind, AsOf: asOf.Format(period.Layout), Partners: []PartnerBalance{}}

	aging := make(map[string]*AgingBucket, len(bucketOrder))
	for _, label := range bucketOrder {
		aging[label] = &AgingBucket{Label: label}
	}
	partners := map[int64]*PartnerBalance{}
	var order []int64

	for _, r := range rows {
		amount := r.Float("amount_residual")
		days := 0
		due, hasDue := r.Date("invoice_date_due")
		if hasDue {
			days = int(asOf.Sub(period.DateOf(due)).Hours() / 24)
		}
		b := aging[BucketFor(days)]
		b.Amount += amount
		b.Invoices++

		out.Total += amount
		out.Invoices++
		if days > 0 {
			out.Overdue += amount
			out.OverdueInvoices++
		}

		ref, _ := r.Ref("partner_id")
		p, ok := partners[ref.ID]
		if !ok {
			name := ref.Name
			if name == "" {
				name = skills.Unassigned
			}
			p = &PartnerBalance{ID: ref.ID, Name: name}
			partners[ref.ID] = p
			order = append(order, ref.ID)
		}
		p.Amount += amount
		p.Invoices++
		if days > 0 {
			p.Overdue += amount
		}
		if hasDue && (p.OldestDue == "" || due.Format(period.Layout) < p.OldestDue) {
			p.OldestDue = due.Format(period.Layout)
		}
	}

	for _, label := range bucketOrder {
		b := aging[label]
		b.Amount = skills.Round2(b.Amount)
		b.Percent = skills.Percent(b.Amount, out.Total)
		out.Aging = append(out.Aging, *b)
	}
	out.OverduePercent = skills.Percent(out.Overdue, out.Total)
	out.Total = skills.Round2(out.Total)
	out.Overdue = skills.Round2(out.Overdue)

	list := make([]PartnerBalance, 0, len(order))
	for _, id := range order {
		p := partners[id]
		p.Amount = skills.Round2(p.Amount)
		p.Overdue = skills.Round2(p.Overdue)
		list = append(list, *p)
	}
	skills.SortRanked(list,
		func(p PartnerBalance) float64 { return p.Amount },
		func(p PartnerBalance) string { return p.Name })
	if len(list) > limit {
		list = list[:limit]
	}
	for i := range list {
		list[i].Rank = i + 1
	}
	out.Partners = list
	return out
}
