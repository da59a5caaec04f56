// Package subscriptions reports recurring revenue, churn and subscription
// details from Odoo subscription orders.
package subscriptions

import (
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// Odoo subscription_state values.
const (
	StateInProgress = "3_progress"
	StatePaused     = "4_paused"
	StateChurned    = "6_churn"
)

const mrrField = "recurring_monthly"

// Skills returns the subscriptions family.
func Skills() []skills.Skill {
	return []skills.Skill{
		MRR(),
		Churn(),
		Detail(),
	}
}
