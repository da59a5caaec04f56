package periodtool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
)

var fixedNow = time.Date(2026, time.November, 19, 9, 30, 0, 0, time.UTC)

func newTool(parser *period.Parser) *Tool {
	return New(zerolog.Nop(), parser, func() time.Time { return fixedNow }).(*Tool)
}

type span struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type decoded struct {
	Phrase     string `json:"phrase"`
	Rule       string `json:"rule"`
	Today      string `json:"today"`
	Days       int    `json:"days"`
	Ambiguous  bool   `json:"ambiguous"`
	Period     *span  `json:"period"`
	Candidates []span `json:"candidates"`
}

func parse(t *testing.T, tool *Tool, input Input) decoded {
	t.Helper()
	result, _, err := tool.ParseHandler(context.Background(), nil, input)
	require.NoError(t, err)
	var out decoded
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &out))
	return out
}

func TestParseHandler_Resolves(t *testing.T) {
	out := parse(t, newTool(nil), Input{Phrase: "desde julio del año pasado"})

	assert.Equal(t, "since_month_relative_year", out.Rule)
	assert.Equal(t, "2026-11-19", out.Today)
	assert.False(t, out.Ambiguous)
	require.NotNil(t, out.Period)
	assert.Equal(t, "2025-07-01", out.Period.Start)
	assert.Equal(t, "2026-11-19", out.Period.End)
}

func TestParseHandler_ExplicitToday(t *testing.T) {
	out := parse(t, newTool(nil), Input{Phrase: "este mes", Today: "2026-02-10"})

	assert.Equal(t, "this_month", out.Rule)
	require.NotNil(t, out.Period)
	assert.Equal(t, "2026-02-01", out.Period.Start)
	assert.Equal(t, "2026-02-28", out.Period.End)
	assert.Equal(t, 28, out.Days)
}

func TestParseHandler_Ambiguous(t *testing.T) {
	out := parse(t, newTool(nil), Input{Phrase: "desde octubre"})

	assert.True(t, out.Ambiguous)
	assert.Nil(t, out.Period)
	require.Len(t, out.Candidates, 2)
	assert.Equal(t, "2026-10-01", out.Candidates[0].Start)
	assert.Equal(t, "2025-10-01", out.Candidates[1].Start)
}

func TestParseHandler_PolicyResolvesAmbiguity(t *testing.T) {
	tool := newTool(period.NewParser(period.WithAmbiguityPolicy(period.AmbiguitySingleMonth)))
	out := parse(t, tool, Input{Phrase: "desde octubre"})

	assert.False(t, out.Ambiguous)
	require.NotNil(t, out.Period)
	assert.Equal(t, "2026-10-31", out.Period.End)
}

func TestParseHandler_Errors(t *testing.T) {
	tool := newTool(nil)
	for _, input := range []Input{
		{},
		{Phrase: "cuando quieras"},
		{Phrase: "este mes", Today: "19/11/2026"},
	} {
		_, _, err := tool.ParseHandler(context.Background(), nil, input)
		assert.Error(t, err, "input %+v", input)
	}
}

func TestRegister(t *testing.T) {
	srv := server.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, nil, zerolog.Nop())
	require.NoError(t, New(zerolog.Nop(), nil, nil).Register(srv))
}
