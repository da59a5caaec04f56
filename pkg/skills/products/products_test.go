package products_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/products"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/skilltest"
)

func TestProductPrice(t *testing.T) {
	q := skilltest.NewQuerier().Rows(domain.Product, "search_read",
		map[string]any{"id": 7, "name": "Silla de oficina", "default_code": "SIL-01", "list_price": 149.9, "currency_id": []any{1, "EUR"}},
		map[string]any{"id": 8, "name": "Silla plegable", "default_code": false, "list_price": 35.0, "currency_id": false},
	)
	rt, _ := skilltest.Runtime(q)

	out := skilltest.Data[products.PriceOutput](t, skilltest.Invoke(t, products.ProductPrice(), rt, `{"query":"  silla "}`))

	assert.Equal(t, "silla", out.Query)
	assert.Equal(t, 2, out.Matches)
	require.Len(t, out.Products, 2)
	assert.Equal(t, "SIL-01", out.Products[0].Code)
	assert.Equal(t, 149.9, out.Products[0].Price)
	assert.Equal(t, "EUR", out.Products[0].Currency)
	assert.Empty(t, out.Products[1].Currency)

	call := q.CallsTo(domain.Product, "search_read")[0]
	assert.Equal(t, []domain.Clause{domain.C("name", "ilike", "silla")}, call.Domain.Find("name"))
	assert.Equal(t, []domain.Clause{domain.C("active", "=", true)}, call.Domain.Find("active"))
	assert.Equal(t, 10, call.Search.Limit)
	assert.Contains(t, call.Fields, "list_price")
}

func TestProductPrice_QueryRequired(t *testing.T) {
	q := skilltest.NewQuerier()
	rt, conn := skilltest.Runtime(q)

	for _, input := range []string{`{}`, `{"query":"a"}`} {
		res := skilltest.Invoke(t, products.ProductPrice(), rt, input)
		assert.Equal(t, qerr.CodeValidation, res.Code(), input)
	}
	assert.Zero(t, conn.Connects())
}

func TestProductPrice_Schema(t *testing.T) {
	schema := products.ProductPrice().InputSchema()
	assert.Contains(t, schema.Required, "query")
	assert.NotContains(t, schema.Required, "limit")
}
