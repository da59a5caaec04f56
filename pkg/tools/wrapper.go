package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tb0hdan/odoo-query-mcp/pkg/models"
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
	"github.com/tb0hdan/odoo-query-mcp/pkg/storage"
)

// WrapToolHandler wraps a tool handler to add execution logging.
func WrapToolHandler[In, Out any](
	rec *storage.Recorder,
	toolName string,
	handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error),
) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		startTime := time.Now()

		// Marshal input for logging
		inputJSON, _ := json.Marshal(input)

		result, output, err := handler(ctx, req, input)

		exec := newExecution(req, toolName, string(inputJSON), time.Since(startTime))
		switch {
		case err != nil:
			exec.ErrorMessage = err.Error()
		case result != nil && result.IsError:
			exec.ErrorMessage = firstText(result)
		default:
			exec.Success = true
			if result != nil {
				outputJSON, _ := json.Marshal(result)
				exec.OutputJSON = string(outputJSON)
			}
		}

		rec.Record(exec)
		return result, output, err
	}
}

// resultEnvelope is the part of a skill Result the audit log keeps.
type resultEnvelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WrapSkillHandler wraps a skill tool handler whose text content is a JSON
// skill Result. The Result's outcome and error code are recorded.
func WrapSkillHandler(
	rec *storage.Recorder,
	skillName string,
	tenantOf func(*mcp.CallToolRequest) string,
	handler mcp.ToolHandler,
) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		inputJSON := "{}"
		if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
			inputJSON = string(req.Params.Arguments)
		}

		result, err := handler(ctx, req)

		exec := newExecution(req, skillName, inputJSON, time.Since(startTime))
		if tenantOf != nil {
			exec.TenantID = tenantOf(req)
		}
		switch {
		case err != nil:
			exec.ErrorMessage = err.Error()
		case result != nil:
			text := firstText(result)
			exec.OutputJSON = text
			var env resultEnvelope
			if jsonErr := json.Unmarshal([]byte(text), &env); jsonErr != nil {
				exec.ErrorMessage = "unreadable result: " + jsonErr.Error()
				break
			}
			exec.Success = env.Success && !result.IsError
			if env.Error != nil {
				exec.ErrorCode = env.Error.Code
				exec.ErrorMessage = env.Error.Message
			}
		}

		rec.Record(exec)
		return result, err
	}
}

func newExecution(req *mcp.CallToolRequest, name, inputJSON string, duration time.Duration) *models.SkillExecution {
	exec := &models.SkillExecution{
		SkillName:  name,
		InputJSON:  inputJSON,
		DurationMs: duration.Milliseconds(),
	}
	if req != nil && req.Session != nil {
		exec.SessionID = req.Session.ID()
	}
	exec.TenantID, _ = server.Identity(req)
	return exec
}

func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
