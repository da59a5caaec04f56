// Package skilltool publishes every registered skill as an MCP tool whose
// text content is the JSON skill Result.
package skilltool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/tools"
)

type Tool struct {
	logger        zerolog.Logger
	engine        *skills.Engine
	resolver      skills.CredentialResolver
	defaultTenant string
}

// Register adds one tool per skill. The skill's inferred schema is advertised
// as is; input validation stays with the skill so failures surface as
// VALIDATION_ERROR results.
func (t *Tool) Register(srv *server.Server) error {
	if t.engine == nil {
		return fmt.Errorf("skill tools require an engine")
	}
	for _, s := range t.engine.Registry().All() {
		tool := &mcp.Tool{
			Name:        s.Name(),
			Description: s.Description(),
			InputSchema: s.InputSchema(),
		}
		srv.AddTool(tool, tools.WrapSkillHandler(srv.Recorder(), s.Name(), t.tenantOf, t.handler(s.Name())))
		t.logger.Debug().Str("skill", s.Name()).Msg("skill tool registered")
	}
	return nil
}

func (t *Tool) tenantOf(req *mcp.CallToolRequest) string {
	tenant, _ := server.Identity(req)
	if tenant == "" {
		return t.defaultTenant
	}
	return tenant
}

// Context builds the skill context for req. Credentials stay nil when the
// tenant cannot be resolved, so the skill reports AUTH_ERROR after input
// validation.
func (t *Tool) Context(ctx context.Context, req *mcp.CallToolRequest) skills.Context {
	_, user := server.Identity(req)
	sc := skills.Context{UserID: user, TenantID: t.tenantOf(req)}
	if t.resolver == nil {
		return sc
	}
	creds, err := t.resolver.Resolve(ctx, sc.TenantID)
	if err != nil {
		t.logger.Debug().Err(err).Str("tenant", sc.TenantID).Msg("No credentials for tenant")
		return sc
	}
	sc.Credentials = creds
	return sc
}

func (t *Tool) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input json.RawMessage
		if req != nil && req.Params != nil {
			input = req.Params.Arguments
		}

		res := t.engine.Invoke(ctx, name, t.Context(ctx, req), input)
		data, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", name, err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(data)},
			},
			IsError: !res.Success,
		}, nil
	}
}

// New creates the skill tools. Calls without a tenant header use
// defaultTenant.
func New(logger zerolog.Logger, engine *skills.Engine, resolver skills.CredentialResolver, defaultTenant string) tools.Tool {
	return &Tool{
		logger:        logger.With().Str("tool", "skills").Logger(),
		engine:        engine,
		resolver:      resolver,
		defaultTenant: defaultTenant,
	}
}
