// Package periodtool exposes the period parser as the parse_period MCP tool.
package periodtool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
	"github.com/tb0hdan/odoo-query-mcp/pkg/tools"
)

const Name = "parse_period"

type Input struct {
	Phrase string `json:"phrase" jsonschema:"Spanish period expression, e.g. desde julio del año pasado" validate:"required"`
	Today  string `json:"today,omitempty" jsonschema:"reference date YYYY-MM-DD, defaults to the server date" validate:"omitempty,datetime=2006-01-02"`
}

// Output describes how a phrase resolved. Period is nil when the phrase is
// ambiguous; Candidates then lists every reading.
type Output struct {
	Phrase     string          `json:"phrase"`
	Rule       string          `json:"rule"`
	Today      string          `json:"today"`
	Period     *period.Period  `json:"period,omitempty"`
	Days       int             `json:"days,omitempty"`
	Ambiguous  bool            `json:"ambiguous"`
	Candidates []period.Period `json:"candidates,omitempty"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	parser    *period.Parser
	now       func() time.Time
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        Name,
		Description: "Resolve a Spanish natural-language period (\"este mes\", \"desde julio del año pasado\", \"del 1 al 15 de marzo 2025\") into exact inclusive dates. Ambiguous phrases return every candidate.",
	}

	mcp.AddTool(&srv.Server, tool, tools.WrapToolHandler(srv.Recorder(), Name, t.ParseHandler))
	t.logger.Debug().Msg("parse_period tool registered")

	return nil
}

func (t *Tool) ParseHandler(_ context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	today := period.DateOf(t.now())
	if input.Today != "" {
		parsed, err := time.Parse(period.Layout, input.Today)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid today: %w", err)
		}
		today = parsed
	}

	out := Output{
		Phrase: input.Phrase,
		Rule:   period.RuleFor(input.Phrase),
		Today:  today.Format(period.Layout),
	}

	p, err := t.parser.Parse(input.Phrase, today)
	var amb *period.AmbiguousError
	switch {
	case errors.As(err, &amb):
		out.Ambiguous = true
		out.Candidates = amb.Candidates
	case err != nil:
		return nil, nil, fmt.Errorf("failed to parse period: %w", err)
	default:
		out.Period = &p
		out.Days = p.Days()
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// New creates the tool. A nil parser uses the default policy and a nil clock
// uses time.Now.
func New(logger zerolog.Logger, parser *period.Parser, now func() time.Time) tools.Tool {
	if parser == nil {
		parser = period.NewParser()
	}
	if now == nil {
		now = time.Now
	}
	return &Tool{
		logger:    logger.With().Str("tool", Name).Logger(),
		validator: validator.New(),
		parser:    parser,
		now:       now,
	}
}
