package skilltool

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tb0hdan/odoo-query-mcp/pkg/catalog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/config"
	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/skilltest"
	"github.com/tb0hdan/odoo-query-mcp/pkg/storage"
)

type fixture struct {
	srv  *server.Server
	q    *skilltest.Querier
	conn *skilltest.Connector
	cs   *mcp.ClientSession
}

func setup(t *testing.T, tenants map[string]odoo.Credentials) *fixture {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "skilltool-test-*.db")
	require.NoError(t, err)
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	store, err := storage.NewSQLiteStorage(storage.Config{DatabasePath: tmpFile.Name()})
	require.NoError(t, err)

	srv := server.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, store, zerolog.Nop())
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	q := skilltest.NewQuerier()
	rt, conn := skilltest.Runtime(q)
	reg, err := catalog.Registry()
	require.NoError(t, err)

	resolver := config.NewStaticResolver("acme", tenants)
	require.NoError(t, New(zerolog.Nop(), skills.NewEngine(reg, rt), resolver, "acme").Register(srv))

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })

	return &fixture{srv: srv, q: q, conn: conn, cs: cs}
}

func acme() map[string]odoo.Credentials {
	return map[string]odoo.Credentials{"acme": *skilltest.Credentials()}
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorInfo      `json:"error"`
}

type priceItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type priceData struct {
	Matches  int         `json:"matches"`
	Products []priceItem `json:"products"`
}

func (f *fixture) call(t *testing.T, name string, args any) (*mcp.CallToolResult, envelope) {
	t.Helper()
	res, err := f.cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &env))
	return res, env
}

func TestListTools(t *testing.T) {
	f := setup(t, acme())

	res, err := f.cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotNil(t, tool.InputSchema, tool.Name)
	}
	assert.Len(t, names, 16)
	assert.True(t, names["product_price"])
	assert.True(t, names["subscriptions_mrr"])
}

func TestCallSkill_Success(t *testing.T) {
	f := setup(t, acme())
	f.q.Rows(domain.Product, "search_read",
		map[string]any{"id": 7, "name": "Silla de oficina", "list_price": 149.9, "currency_id": []any{1, "EUR"}})

	res, env := f.call(t, "product_price", map[string]any{"query": "silla"})

	assert.False(t, res.IsError)
	require.True(t, env.Success)
	var data priceData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 1, data.Matches)
	assert.Equal(t, 149.9, data.Products[0].Price)

	f.srv.Recorder().Wait()
	executions, total, err := f.srv.Storage().GetSkillExecutions(context.Background(),
		storage.ExecutionFilter{SkillName: "product_price"}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.True(t, executions[0].Success)
	assert.Equal(t, "acme", executions[0].TenantID)
	assert.JSONEq(t, `{"query":"silla"}`, executions[0].InputJSON)
}

func TestCallSkill_ValidationError(t *testing.T) {
	f := setup(t, acme())

	res, env := f.call(t, "top_customers", map[string]any{"limit": 500})

	assert.True(t, res.IsError)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Zero(t, f.conn.Connects())

	f.srv.Recorder().Wait()
	executions, _, err := f.srv.Storage().GetSkillExecutions(context.Background(),
		storage.ExecutionFilter{SkillName: "top_customers"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "VALIDATION_ERROR", executions[0].ErrorCode)
	assert.False(t, executions[0].Success)
}

func TestCallSkill_UnknownTenant(t *testing.T) {
	f := setup(t, map[string]odoo.Credentials{})

	res, env := f.call(t, "sales_summary", map[string]any{})

	assert.True(t, res.IsError)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTH_ERROR", env.Error.Code)
	assert.Zero(t, f.conn.Connects())
	assert.Empty(t, f.q.Calls())
}

func TestRegister_RequiresEngine(t *testing.T) {
	srv := server.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, nil, zerolog.Nop())
	assert.Error(t, New(zerolog.Nop(), nil, nil, "").Register(srv))
}
