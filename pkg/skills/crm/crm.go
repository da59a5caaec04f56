// Package crm reports on the opportunity pipeline, individual opportunities
// and lost deals.
package crm

import (
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// Skills returns the CRM family.
func Skills() []skills.Skill {
	return []skills.Skill{
		Pipeline(),
		Opportunities(),
		LostReasons(),
	}
}
