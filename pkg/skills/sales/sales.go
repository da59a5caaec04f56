// Package sales answers questions about confirmed sales using sale.report.
package sales

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/types"
	"golang.org/x/sync/errgroup"
)

const (
	amountField   = "price_subtotal"
	quantityField = "product_uom_qty"
)

var groupFields = map[string]string{
	"customer":    "partner_id",
	"product":     "product_id",
	"salesperson": "user_id",
	"team":        "team_id",
	"category":    "categ_id",
	"month":       "date:month",
	"week":        "date:week",
}

// Filters narrows sales to one customer, product, salesperson or team.
type Filters struct {
	PartnerID int64 `json:"partner_id,omitempty" jsonschema:"only this customer" validate:"omitempty,min=1"`
	ProductID int64 `json:"product_id,omitempty" jsonschema:"only this product" validate:"omitempty,min=1"`
	UserID    int64 `json:"user_id,omitempty" jsonschema:"only this salesperson" validate:"omitempty,min=1"`
	TeamID    int64 `json:"team_id,omitempty" jsonschema:"only this sales team" validate:"omitempty,min=1"`
}

func (f Filters) options() []domain.Option {
	var opts []domain.Option
	if f.PartnerID > 0 {
		opts = append(opts, domain.Where("partner_id", f.PartnerID))
	}
	if f.ProductID > 0 {
		opts = append(opts, domain.Where("product_id", f.ProductID))
	}
	if f.UserID > 0 {
		opts = append(opts, domain.Where("user_id", f.UserID))
	}
	if f.TeamID > 0 {
		opts = append(opts, domain.Where("team_id", f.TeamID))
	}
	return opts
}

// Skills returns the sales family.
func Skills() []skills.Skill {
	return []skills.Skill{
		Summary(),
		Comparison(),
		TopCustomers(),
		TopProducts(),
		InactiveCustomers(),
	}
}

// totals aggregates sale.report over p.
func totals(ctx context.Context, x *skills.Exec, p period.Period, groupBy string, opts ...domain.Option) (skills.Aggregate, error) {
	d, err := x.Domain(domain.SaleReport, &p, opts...)
	if err != nil {
		return skills.Aggregate{}, err
	}
	return x.Aggregate(ctx, domain.SaleReport, d, skills.AggregateSpec{
		AmountField:   amountField,
		QuantityField: quantityField,
		GroupBy:       groupBy,
	})
}

// pair aggregates two periods concurrently.
func pair(ctx context.Context, x *skills.Exec, current, previous period.Period, groupBy string,
	opts ...domain.Option,
) (skills.Aggregate, skills.Aggregate, error) {
	var cur, prev skills.Aggregate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = totals(gctx, x, current, groupBy, opts...)
		return err
	})
	g.Go(func() error {
		var err error
		prev, err = totals(gctx, x, previous, groupBy, opts...)
		return err
	})
	if err := g.Wait(); err != nil {
		return skills.Aggregate{}, skills.Aggregate{}, err
	}
	return cur, prev, nil
}

func rankingLimit(requested int) int {
	return skills.Limit(requested, types.DefaultRankingLimit, types.MaxRankingLimit)
}
