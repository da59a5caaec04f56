package odoo

import (
	"context"
	"encoding/json"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

// SearchOptions shape a search_read call.
type SearchOptions struct {
	Fields []string `json:"fields,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Offset int      `json:"offset,omitempty"`
	Order  string   `json:"order,omitempty"`
}

// GroupOptions shape a read_group call. Fields use Odoo's "field:agg"
// notation, e.g. "price_subtotal:sum".
type GroupOptions struct {
	Fields  []string `json:"fields"`
	GroupBy []string `json:"groupby"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
	Order   string   `json:"orderby,omitempty"`
	Lazy    bool     `json:"lazy"`
}

// FieldInfo describes one model field as reported by fields_get.
type FieldInfo struct {
	Type     string `json:"type"`
	String   string `json:"string"`
	Relation string `json:"relation,omitempty"`
	Required bool   `json:"required,omitempty"`
	Store    bool   `json:"store,omitempty"`
}

// Querier is the read surface skills depend on.
type Querier interface {
	SearchRead(ctx context.Context, model string, d domain.Domain, opts SearchOptions) ([]Record, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	SearchCount(ctx context.Context, model string, d domain.Domain) (int64, error)
	ReadGroup(ctx context.Context, model string, d domain.Domain, opts GroupOptions) ([]Record, error)
	FieldsGet(ctx context.Context, model string, attributes []string) (map[string]FieldInfo, error)
}

var _ Querier = (*Client)(nil)

func nonNil(d domain.Domain) domain.Domain {
	if d == nil {
		return domain.Domain{}
	}
	return d
}

// SearchRead returns the records matching d.
func (c *Client) SearchRead(ctx context.Context, model string, d domain.Domain, opts SearchOptions) ([]Record, error) {
	kwargs := map[string]any{}
	if len(opts.Fields) > 0 {
		kwargs["fields"] = opts.Fields
	}
	if opts.Limit > 0 {
		kwargs["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		kwargs["offset"] = opts.Offset
	}
	if opts.Order != "" {
		kwargs["order"] = opts.Order
	}
	raw, err := c.Call(ctx, model, "search_read", []any{nonNil(d)}, kwargs)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// Read returns the records with the given ids.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	raw, err := c.Call(ctx, model, "read", []any{ids}, kwargs)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// SearchCount returns the number of records matching d.
func (c *Client) SearchCount(ctx context.Context, model string, d domain.Domain) (int64, error) {
	raw, err := c.Call(ctx, model, "search_count", []any{nonNil(d)}, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, qerr.New(qerr.CodeAPI, "unexpected ERP payload: expected a count", err)
	}
	return n, nil
}

// ReadGroup aggregates records matching d.
func (c *Client) ReadGroup(ctx context.Context, model string, d domain.Domain, opts GroupOptions) ([]Record, error) {
	groupBy := opts.GroupBy
	if groupBy == nil {
		groupBy = []string{}
	}
	kwargs := map[string]any{"lazy": opts.Lazy}
	if opts.Limit > 0 {
		kwargs["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		kwargs["offset"] = opts.Offset
	}
	if opts.Order != "" {
		kwargs["orderby"] = opts.Order
	}
	raw, err := c.Call(ctx, model, "read_group", []any{nonNil(d), opts.Fields, groupBy}, kwargs)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// FieldsGet describes the fields of model.
func (c *Client) FieldsGet(ctx context.Context, model string, attributes []string) (map[string]FieldInfo, error) {
	kwargs := map[string]any{}
	if len(attributes) > 0 {
		kwargs["attributes"] = attributes
	}
	raw, err := c.Call(ctx, model, "fields_get", nil, kwargs)
	if err != nil {
		return nil, err
	}
	out := map[string]FieldInfo{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, qerr.New(qerr.CodeAPI, "unexpected ERP payload: expected a field map", err)
	}
	return out, nil
}
