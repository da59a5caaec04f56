package odoo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

func TestRecord_Getters(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 12,
		"name": "Acme",
		"email": false,
		"amount_total": 1234.5,
		"active": true,
		"partner_id": [9, "Acme Corp"],
		"user_id": false,
		"tag_ids": [1, 2, 3],
		"invoice_date": "2026-01-10",
		"create_date": "2026-01-10 08:30:00",
		"stage_id_count": 4
	}`), &r))

	assert.Equal(t, int64(12), r.ID())
	assert.Equal(t, "Acme", r.String("name"))
	assert.Equal(t, "", r.String("email"))
	assert.False(t, r.Has("email"))
	assert.True(t, r.Has("name"))
	assert.InDelta(t, 1234.5, r.Float("amount_total"), 1e-9)
	assert.Zero(t, r.Float("missing"))
	assert.True(t, r.Bool("active"))
	assert.Equal(t, int64(9), r.Int("partner_id"))

	ref, ok := r.Ref("partner_id")
	assert.True(t, ok)
	assert.Equal(t, "Acme Corp", ref.Name)
	_, ok = r.Ref("user_id")
	assert.False(t, ok)

	assert.Equal(t, []int64{1, 2, 3}, r.IDs("tag_ids"))
	assert.Nil(t, r.IDs("user_id"))

	d, ok := r.Date("invoice_date")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), d)
	dt, ok := r.Date("create_date")
	assert.True(t, ok)
	assert.Equal(t, 8, dt.Hour())

	assert.Equal(t, int64(4), r.Count("stage_id"))
}

func TestRecord_CountPrefersNonLazyKey(t *testing.T) {
	r := NewRecord(map[string]any{"__count": 6, "partner_id_count": 2})
	assert.Equal(t, int64(6), r.Count("partner_id"))
}

func TestNewRecord(t *testing.T) {
	r := NewRecord(map[string]any{"product_id": []any{3, "Producto A"}, "price_subtotal": 300000.0})
	ref, ok := r.Ref("product_id")
	require.True(t, ok)
	assert.Equal(t, Ref{ID: 3, Name: "Producto A"}, ref)
	assert.InDelta(t, 300000, r.Float("price_subtotal"), 1e-9)
}

func TestPool_ReusesClients(t *testing.T) {
	pool := NewPool(WithRetryPolicy(testPolicy()))
	creds := Credentials{URL: "https://erp.example.com", Database: "acme", Username: "u", APIKey: "k"}

	a, err := pool.Connect(context.Background(), creds)
	require.NoError(t, err)
	b, err := pool.Connect(context.Background(), creds)
	require.NoError(t, err)
	assert.Same(t, a, b)

	other := creds
	other.Database = "globex"
	c, err := pool.Connect(context.Background(), other)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, pool.Len())

	_, err = pool.Connect(context.Background(), Credentials{})
	assert.Equal(t, qerr.CodeAuth, qerr.CodeOf(err))
	assert.Equal(t, 2, pool.Len())
}

func TestCredentials_Validate(t *testing.T) {
	err := Credentials{URL: "https://erp.example.com", Database: "acme", Username: "u"}.Validate()
	require.Error(t, err)
	assert.Equal(t, qerr.CodeAuth, qerr.CodeOf(err))
	assert.Contains(t, err.Error(), "apiKey")

	assert.NoError(t, Credentials{URL: "https://erp.example.com", Database: "acme", Username: "u", APIKey: "k"}.Validate())
}

func TestGuard(t *testing.T) {
	assert.Equal(t, []string{"fields_get", "read", "read_group", "search_count", "search_read"}, AllowedMethods())
	for _, m := range AllowedMethods() {
		assert.NoError(t, Guard(m))
	}
	for _, m := range []string{"create", "write", "unlink", "copy", "action_confirm", "search"} {
		assert.Equal(t, qerr.CodeReadOnlyViolation, qerr.CodeOf(Guard(m)), m)
	}
}
