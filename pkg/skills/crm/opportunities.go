package crm

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
)

var leadFields = []string{"id", "name", "partner_id", "stage_id", "user_id", "expected_revenue",
	"probability", "date_deadline", "tag_ids"}

// OpportunitiesInput is the input of crm_opportunities.
type OpportunitiesInput struct {
	skills.PeriodInput
	StageID        int64   `json:"stage_id,omitempty" jsonschema:"only this stage" validate:"omitempty,min=1"`
	UserID         int64   `json:"user_id,omitempty" jsonschema:"only this salesperson" validate:"omitempty,min=1"`
	PartnerID      int64   `json:"partner_id,omitempty" jsonschema:"only this customer" validate:"omitempty,min=1"`
	TagID          int64   `json:"tag_id,omitempty" jsonschema:"only opportunities with this tag" validate:"omitempty,min=1"`
	MinProbability float64 `json:"min_probability,omitempty" jsonschema:"minimum probability, 0-100" validate:"omitempty,min=0,max=100"`
	IncludeWon     bool    `json:"include_won,omitempty" jsonschema:"also list won opportunities"`
	Limit          int     `json:"limit,omitempty" jsonschema:"number of opportunities, default 50, at most 500" validate:"omitempty,min=1,max=500"`
}

// Contact is the customer of an opportunity.
type Contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Quote is a sales order linked to an opportunity.
type Quote struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	State  string  `json:"state"`
	Amount float64 `json:"amount"`
}

// Opportunity is one enriched lead.
type Opportunity struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	Stage           string   `json:"stage"`
	Salesperson     string   `json:"salesperson,omitempty"`
	ExpectedRevenue float64  `json:"expectedRevenue"`
	Probability     float64  `json:"probability"`
	Deadline        string   `json:"deadline,omitempty"`
	Contact         *Contact `json:"contact,omitempty"`
	Tags            []string `json:"tags"`
	Quotes          []Quote  `json:"quotes"`
}

// OpportunitiesOutput is the result of crm_opportunities.
type OpportunitiesOutput struct {
	Total         int64         `json:"total"`
	Returned      int           `json:"returned"`
	Opportunities []Opportunity `json:"opportunities"`
}

// Opportunities defines crm_opportunities.
func Opportunities() skills.Skill {
	return skills.Define[OpportunitiesInput, OpportunitiesOutput](
		"crm_opportunities",
		"List open opportunities with their customer, tags and linked quotations, largest expected revenue first.",
		runOpportunities,
	)
}

func runOpportunities(ctx context.Context, x *skills.Exec, in OpportunitiesInput) (OpportunitiesOutput, error) {
	p, err := x.OptionalPeriod(in.PeriodInput)
	if err != nil {
		return OpportunitiesOutput{}, err
	}
	var opts []domain.Option
	if in.IncludeWon {
		opts = append(opts, domain.Without("probability"))
	}
	if in.StageID > 0 {
		opts = append(opts, domain.Where("stage_id", in.StageID))
	}
	if in.UserID > 0 {
		opts = append(opts, domain.Where("user_id", in.UserID))
	}
	if in.PartnerID > 0 {
		opts = append(opts, domain.Where("partner_id", in.PartnerID))
	}
	if in.TagID > 0 {
		opts = append(opts, domain.Where("tag_ids", []int64{in.TagID}))
	}
	if in.MinProbability > 0 {
		opts = append(opts, domain.WhereOp("probability", ">=", in.MinProbability))
	}
	d, err := x.Domain(domain.CRMLead, p, opts...)
	if err != nil {
		return OpportunitiesOutput{}, err
	}

	total, err := x.SearchCount(ctx, domain.CRMLead, d)
	if err != nil {
		return OpportunitiesOutput{}, err
	}
	leads, err := x.SearchRead(ctx, domain.CRMLead, d, odoo.SearchOptions{
		Fields: leadFields,
		Limit:  skills.Limit(in.Limit, types.DefaultDetailRecords, types.MaxDetailRecords),
		Order:  "expected_revenue desc, id asc",
	})
	if err != nil {
		return OpportunitiesOutput{}, err
	}

	out := OpportunitiesOutput{Total: total, Returned: len(leads), Opportunities: make([]Opportunity, 0, len(leads))}
	if len(leads) == 0 {
		return out, nil
	}

	e, err := enrich(ctx, x, leads)
	if err != nil {
		return OpportunitiesOutput{}, err
	}
	for _, r := range leads {
		o := Opportunity{
			ID:              r.ID(),
			Name:            r.String("name"),
			ExpectedRevenue: skills.Round2(r.Float("expected_revenue")),
			Probability:     skills.Round2(r.Float("probability")),
			Deadline:        r.String("date_deadline"),
			Tags:            []string{},
			Quotes:          []Quote{},
		}
		_, o.Stage = skills.GroupLabel(r, "stage_id")
		if ref, ok := r.Ref("user_id"); ok {
			o.Salesperson = ref.Name
		}
		if ref, ok := r.Ref("partner_id"); ok {
			if c, ok := e.contacts[ref.ID]; ok {
				o.Contact = &c
			} else {
				o.Contact = &Contact{ID: ref.ID, Name: ref.Name}
			}
		}
		for _, id := range r.IDs("tag_ids") {
			if name, ok := e.tags[id]; ok {
				o.Tags = append(o.Tags, name)
			}
		}
		if q, ok := e.quotes[o.ID]; ok {
			o.Quotes = q
		}
		out.Opportunities = append(out.Opportunities, o)
	}
	return out, nil
}

type enrichment struct {
	tags     map[int64]string
	contacts map[int64]Contact
	quotes   map[int64][]Quote
}

// enrich issues one batch per related entity: tags, contacts, quotes.
func enrich(ctx context.Context, x *skills.Exec, leads []odoo.Record) (enrichment, error) {
	e := enrichment{
		tags:     map[int64]string{},
		contacts: map[int64]Contact{},
		quotes:   map[int64][]Quote{},
	}
	var leadIDs, tagIDs, partnerIDs []int64
	seenTag, seenPartner := map[int64]bool{}, map[int64]bool{}
	for _, r := range leads {
		leadIDs = append(leadIDs, r.ID())
		for _, id := range r.IDs("tag_ids") {
			if !seenTag[id] {
				seenTag[id] = true
				tagIDs = append(tagIDs, id)
			}
		}
		if ref, ok := r.Ref("partner_id"); ok && !seenPartner[ref.ID] {
			seenPartner[ref.ID] = true
			partnerIDs = append(partnerIDs, ref.ID)
		}
	}

	tags, err := x.Read(ctx, domain.CRMTag, tagIDs, []string{"id", "name"})
	if err != nil {
		return e, err
	}
	for _, t := range tags {
		e.tags[t.ID()] = t.String("name")
	}

	partners, err := x.Read(ctx, domain.Partner, partnerIDs, []string{"id", "name", "email", "phone"})
	if err != nil {
		return e, err
	}
	for _, c := range partners {
		e.contacts[c.ID()] = Contact{ID: c.ID(), Name: c.String("name"), Email: c.String("email"), Phone: c.String("phone")}
	}

	d, err := x.Domain(domain.SaleOrder, nil, domain.NoDefaults(), domain.Where("opportunity_id", leadIDs))
	if err != nil {
		return e, err
	}
	orders, err := x.SearchRead(ctx, domain.SaleOrder, d, odoo.SearchOptions{
		Fields: []string{"id", "name", "state", "amount_total", "opportunity_id"},
		Order:  "id asc",
	})
	if err != nil {
		return e, err
	}
	for _, o := range orders {
		lead := o.Int("opportunity_id")
		e.quotes[lead] = append(e.quotes[lead], Quote{
			ID:     o.ID(),
			Name:   o.String("name"),
			State:  o.String("state"),
			Amount: skills.Round2(o.Float("amount_total")),
		})
	}
	return e, nil
}
