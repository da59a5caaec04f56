// Package catalog assembles the registry of every shipped skill.
package catalog

import (
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/crm"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/margins"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/payments"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/products"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/purchases"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/receivables"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/sales"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/subscriptions"
)

// All returns every skill, family by family.
func All() []skills.Skill {
	var all []skills.Skill
	for _, family := range [][]skills.Skill{
		sales.Skills(),
		purchases.Skills(),
		payments.Skills(),
		receivables.Skills(),
		crm.Skills(),
		subscriptions.Skills(),
		margins.Skills(),
		products.Skills(),
	} {
		all = append(all, family...)
	}
	return all
}

// Registry builds the immutable registry of every skill.
func Registry() (*skills.Registry, error) {
	return skills.NewRegistry(All()...)
}
