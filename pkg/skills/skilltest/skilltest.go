// Package skilltest provides a scripted ERP fake for skill tests.
package skilltest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// Now is the reference time skill tests run at: Thursday 2026-01-15.
var Now = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

// Call is one recorded query.
type Call struct {
	Model  string
	Method string
	Domain domain.Domain
	Search odoo.SearchOptions
	Group  odoo.GroupOptions
	IDs    []int64
	Fields []string
}

// Handler answers a call with []odoo.Record, int64 or an error.
type Handler func(Call) (any, error)

// Querier is an in-memory odoo.Querier. Unscripted calls return no rows.
type Querier struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
}

var _ odoo.Querier = (*Querier)(nil)

// NewQuerier creates an empty fake.
func NewQuerier() *Querier {
	return &Querier{handlers: make(map[string]Handler)}
}

func key(model, method string) string { return model + "/" + method }

// On scripts model.method.
func (q *Querier) On(model, method string, h Handler) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[key(model, method)] = h
	return q
}

// Records converts plain maps into records.
func Records(rows ...map[string]any) []odoo.Record {
	records := make([]odoo.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, odoo.NewRecord(r))
	}
	return records
}

// Rows scripts model.method to return rows.
func (q *Querier) Rows(model, method string, rows ...map[string]any) *Querier {
	records := Records(rows...)
	return q.On(model, method, func(Call) (any, error) { return records, nil })
}

// ByStart answers with the rows keyed by the YYYY-MM-DD start bound of the
// call's first domain clause. Unknown starts return no rows.
func ByStart(rows map[string][]map[string]any) Handler {
	return func(c Call) (any, error) {
		if len(c.Domain) == 0 {
			return []odoo.Record{}, nil
		}
		start, _ := c.Domain[0].Value.(string)
		if len(start) > 10 {
			start = start[:10]
		}
		return Records(rows[start]...), nil
	}
}

// Count scripts model.search_count.
func (q *Querier) Count(model string, n int64) *Querier {
	return q.On(model, "search_count", func(Call) (any, error) { return n, nil })
}

// Fail scripts model.method to fail.
func (q *Querier) Fail(model, method string, err error) *Querier {
	return q.On(model, method, func(Call) (any, error) { return nil, err })
}

// Calls returns every recorded call.
func (q *Querier) Calls() []Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Call(nil), q.calls...)
}

// CallsTo returns the recorded calls to model.method.
func (q *Querier) CallsTo(model, method string) []Call {
	var out []Call
	for _, c := range q.Calls() {
		if c.Model == model && c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (q *Querier) dispatch(c Call) (any, error) {
	q.mu.Lock()
	q.calls = append(q.calls, c)
	h := q.handlers[key(c.Model, c.Method)]
	q.mu.Unlock()
	if h == nil {
		return nil, nil
	}
	return h(c)
}

func (q *Querier) records(c Call) ([]odoo.Record, error) {
	v, err := q.dispatch(c)
	if err != nil {
		return nil, err
	}
	if rows, ok := v.([]odoo.Record); ok {
		return rows, nil
	}
	return []odoo.Record{}, nil
}

// SearchRead implements odoo.Querier.
func (q *Querier) SearchRead(_ context.Context, model string, d domain.Domain, opts odoo.SearchOptions) ([]odoo.Record, error) {
	return q.records(Call{Model: model, Method: "search_read", Domain: d, Search: opts, Fields: opts.Fields})
}

// Read implements odoo.Querier.
func (q *Querier) Read(_ context.Context, model string, ids []int64, fields []string) ([]odoo.Record, error) {
	return q.records(Call{Model: model, Method: "read", IDs: ids, Fields: fields})
}

// SearchCount implements odoo.Querier.
func (q *Querier) SearchCount(_ context.Context, model string, d domain.Domain) (int64, error) {
	v, err := q.dispatch(Call{Model: model, Method: "search_count", Domain: d})
	if err != nil {
		return 0, err
	}
	n, _ := v.(int64)
	return n, nil
}

// ReadGroup implements odoo.Querier.
func (q *Querier) ReadGroup(_ context.Context, model string, d domain.Domain, opts odoo.GroupOptions) ([]odoo.Record, error) {
	return q.records(Call{Model: model, Method: "read_group", Domain: d, Group: opts, Fields: opts.Fields})
}

// FieldsGet implements odoo.Querier.
func (q *Querier) FieldsGet(_ context.Context, model string, _ []string) (map[string]odoo.FieldInfo, error) {
	v, err := q.dispatch(Call{Model: model, Method: "fields_get"})
	if err != nil {
		return nil, err
	}
	fields, _ := v.(map[string]odoo.FieldInfo)
	return fields, nil
}

// Connector hands out one Querier and counts connections.
type Connector struct {
	Querier odoo.Querier
	Err     error

	mu       sync.Mutex
	connects int
}

var _ odoo.Connector = (*Connector)(nil)

// Connect implements odoo.Connector.
func (c *Connector) Connect(_ context.Context, _ odoo.Credentials) (odoo.Querier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Querier, nil
}

// Connects returns how many times Connect was called.
func (c *Connector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// Credentials returns a complete credential set.
func Credentials() *odoo.Credentials {
	return &odoo.Credentials{
		URL:      "https://acme.odoo.test",
		Database: "acme",
		Username: "reader@acme.test",
		APIKey:   "secret",
	}
}

// Context returns a skill context for tenant "acme".
func Context() skills.Context {
	return skills.Context{UserID: "u-1", TenantID: "acme", Credentials: Credentials(), Locale: "es"}
}

// Runtime creates a runtime over q pinned to Now.
func Runtime(q *Querier, opts ...skills.RuntimeOption) (*skills.Runtime, *Connector) {
	conn := &Connector{Querier: q}
	opts = append([]skills.RuntimeOption{skills.WithClock(func() time.Time { return Now })}, opts...)
	return skills.NewRuntime(conn, opts...), conn
}

// Invoke runs s with a JSON input string.
func Invoke(t *testing.T, s skills.Skill, rt *skills.Runtime, input string) skills.Result[any] {
	t.Helper()
	return s.Invoke(context.Background(), rt, Context(), json.RawMessage(input))
}

// Data asserts success and returns the typed payload.
func Data[T any](t *testing.T, res skills.Result[any]) T {
	t.Helper()
	if !res.Success {
		t.Fatalf("expected success, got %s: %s", res.Error.Code, res.Error.Message)
	}
	out, ok := res.Data.(T)
	if !ok {
		t.Fatalf("unexpected payload type %T", res.Data)
	}
	return out
}
