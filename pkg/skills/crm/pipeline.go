package crm

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// PipelineInput is the input of crm_pipeline. Without a period every open
// opportunity counts.
type PipelineInput struct {
	skills.PeriodInput
	UserID     int64 `json:"user_id,omitempty" jsonschema:"only this salesperson" validate:"omitempty,min=1"`
	TeamID     int64 `json:"team_id,omitempty" jsonschema:"only this sales team" validate:"omitempty,min=1"`
	IncludeWon bool  `json:"include_won,omitempty" jsonschema:"also count won opportunities"`
}

// Stage is one pipeline column.
type Stage struct {
	ID              int64   `json:"id,omitempty"`
	Name            string  `json:"name"`
	Opportunities   int64   `json:"opportunities"`
	ExpectedRevenue float64 `json:"expectedRevenue"`
	ProratedRevenue float64 `json:"proratedRevenue"`
	Percent         float64 `json:"percent"`
}

// PipelineOutput is the result of crm_pipeline.
type PipelineOutput struct {
	Period          *period.Period `json:"period,omitempty"`
	Opportunities   int64          `json:"opportunities"`
	ExpectedRevenue float64        `json:"expectedRevenue"`
	ProratedRevenue float64        `json:"proratedRevenue"`
	Stages          []Stage        `json:"stages"`
}

// Pipeline defines crm_pipeline.
func Pipeline() skills.Skill {
	return skills.Define[PipelineInput, PipelineOutput](
		"crm_pipeline",
		"Open opportunities per pipeline stage with expected and probability-weighted revenue.",
		runPipeline,
	)
}

func runPipeline(ctx context.Context, x *skills.Exec, in PipelineInput) (PipelineOutput, error) {
	p, err := x.OptionalPeriod(in.PeriodInput)
	if err != nil {
		return PipelineOutput{}, err
	}
	var opts []domain.Option
	if in.IncludeWon {
		opts = append(opts, domain.Without("probability"))
	}
	if in.UserID > 0 {
		opts = append(opts, domain.Where("user_id", in.UserID))
	}
	if in.TeamID > 0 {
		opts = append(opts, domain.Where("team_id", in.TeamID))
	}
	d, err := x.Domain(domain.CRMLead, p, opts...)
	if err != nil {
		return PipelineOutput{}, err
	}
	rows, err := x.ReadGroup(ctx, domain.CRMLead, d, odoo.GroupOptions{
		Fields:  []string{"expected_revenue:sum", "prorated_revenue:sum"},
		GroupBy: []string{"stage_id"},
		Lazy:    true,
	})
	if err != nil {
		return PipelineOutput{}, err
	}

	out := PipelineOutput{Period: p, Stages: make([]Stage, 0, len(rows))}
	// read_group returns stages in pipeline sequence.
	for _, r := range rows {
		id, name := skills.GroupLabel(r, "stage_id")
		st := Stage{
			ID:              id,
			Name:            name,
			Opportunities:   r.Count("stage_id"),
			ExpectedRevenue: skills.Round2(r.Float("expected_revenue")),
			ProratedRevenue: skills.Round2(r.Float("prorated_revenue")),
		}
		out.Opportunities += st.Opportunities
		out.ExpectedRevenue += r.Float("expected_revenue")
		out.ProratedRevenue += r.Float("prorated_revenue")
		out.Stages = append(out.Stages, st)
	}
	for i := range out.Stages {
		out.Stages[i].Percent = skills.Percent(out.Stages[i].ExpectedRevenue, out.ExpectedRevenue)
	}
	out.ExpectedRevenue = skills.Round2(out.ExpectedRevenue)
	out.ProratedRevenue = skills.Round2(out.ProratedRevenue)
	return out, nil
}
