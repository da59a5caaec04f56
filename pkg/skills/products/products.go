// Package products looks up product sale prices.
package products

import (
	"context"
	"strings"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
)

var priceFields = []string{"id", "name", "default_code", "list_price", "currency_id"}

// PriceInput is the input of product_price.
type PriceInput struct {
	Query string `json:"query" jsonschema:"product name or part of it" validate:"required,min=2,max=100"`
	Code  string `json:"code,omitempty" jsonschema:"internal reference, exact match" validate:"omitempty,max=64"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of matches, default 10, at most 100" validate:"omitempty,min=1,max=100"`
}

// Price is the list price of one product.
type Price struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Code     string  `json:"code,omitempty"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

// PriceOutput is the result of product_price.
type PriceOutput struct {
	Query    string  `json:"query"`
	Matches  int     `json:"matches"`
	Products []Price `json:"products"`
}

// Skills returns the products family.
func Skills() []skills.Skill {
	return []skills.Skill{ProductPrice()}
}

// ProductPrice defines product_price.
func ProductPrice() skills.Skill {
	return skills.Define[PriceInput, PriceOutput](
		"product_price",
		"Look up the current list price of products by name.",
		run,
	)
}

func run(ctx context.Context, x *skills.Exec, in PriceInput) (PriceOutput, error) {
	query := strings.TrimSpace(in.Query)
	opts := []domain.Option{domain.WhereOp("name", "ilike", query)}
	if in.Code != "" {
		opts = append(opts, domain.Where("default_code", in.Code))
	}
	d, err := x.Domain(domain.Product, nil, opts...)
	if err != nil {
		return PriceOutput{}, err
	}
	rows, err := x.SearchRead(ctx, domain.Product, d, odoo.SearchOptions{
		Fields: priceFields,
		Limit:  skills.Limit(in.Limit, types.DefaultRankingLimit, types.MaxRankingLimit),
		Order:  "name asc, id asc",
	})
	if err != nil {
		return PriceOutput{}, err
	}

	out := PriceOutput{Query: query, Matches: len(rows), Products: make([]Price, 0, len(rows))}
	for _, r := range rows {
		pr := Price{
			ID:    r.ID(),
			Name:  r.String("name"),
			Code:  r.String("default_code"),
			Price: skills.Round2(r.Float("list_price")),
		}
		if ref, ok := r.Ref("currency_id"); ok {
			pr.Currency = ref.Name
		}
		out.Products = append(out.Products, pr)
	}
	return out, nil
}
