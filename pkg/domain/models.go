package domain

// Logical model names understood by the builder. Most match the Odoo model;
// a few are filtered views over a shared model (see Spec.Model).
const (
	SaleReport        = "sale.report"
	PurchaseReport    = "purchase.report"
	SaleOrder         = "sale.order"
	SaleOrderLine     = "sale.order.line"
	AccountMove       = "account.move"
	Receivable        = "account.move.receivable"
	Payable           = "account.move.payable"
	AccountPayment    = "account.payment"
	CRMLead           = "crm.lead"
	CRMLeadLost       = "crm.lead.lost"
	CRMTag            = "crm.tag"
	Subscription      = "subscription"
	SubscriptionChurn = "subscription.churned"
	Partner           = "res.partner"
	Product           = "product.product"
)

// Spec is the canonical description of a reportable model.
type Spec struct {
	// Name is the logical name callers pass to Build.
	Name string
	// Model is the Odoo model the domain targets. Defaults to Name.
	Model string
	// DateField is the field period bounds apply to.
	DateField string
	// DateTime marks DateField as a datetime column, bounded by whole days.
	DateTime bool
	// StateField is the field the default state filter applies to.
	StateField string
	// Defaults are appended unless overridden, keeping draft and cancelled
	// records out of totals.
	Defaults Domain
	// Fields lists the fields extra filters may reference.
	Fields []string
}

// ERPModel returns the Odoo model name.
func (s Spec) ERPModel() string {
	if s.Model != "" {
		return s.Model
	}
	return s.Name
}

// Catalog returns the canonical model specs. Every skill resolves date and
// state fields through this table.
func Catalog() []Spec {
	return []Spec{
		{
			Name:       SaleReport,
			DateField:  "date",
			DateTime:   true,
			StateField: "state",
			Defaults:   Domain{C("state", "in", []string{"sale", "done"})},
			Fields: []string{"partner_id", "product_id", "product_tmpl_id", "categ_id", "user_id", "team_id",
				"company_id", "country_id", "order_reference", "price_subtotal", "price_total", "product_uom_qty"},
		},
		{
			Name:       PurchaseReport,
			DateField:  "date_order",
			DateTime:   true,
			StateField: "state",
			Defaults:   Domain{C("state", "in", []string{"purchase", "done"})},
			Fields: []string{"partner_id", "product_id", "category_id", "user_id", "company_id",
				"order_id", "price_total", "qty_ordered"},
		},
		{
			Name:       SaleOrder,
			DateField:  "date_order",
			DateTime:   true,
			StateField: "state",
			Defaults:   Domain{C("state", "in", []string{"sale", "done"})},
			Fields: []string{"id", "name", "partner_id", "user_id", "team_id", "opportunity_id",
				"amount_total", "amount_untaxed", "company_id"},
		},
		{
			Name:       SaleOrderLine,
			DateField:  "order_id.date_order",
			DateTime:   true,
			StateField: "state",
			Defaults:   Domain{C("state", "in", []string{"sale", "done"})},
			Fields:     []string{"id", "order_id", "product_id", "order_partner_id", "price_subtotal", "product_uom_qty"},
		},
		{
			Name:       AccountMove,
			DateField:  "invoice_date",
			StateField: "state",
			Defaults:   Domain{C("state", "=", "posted")},
			Fields: []string{"id", "move_type", "payment_state", "partner_id", "journal_id", "company_id",
				"invoice_date_due", "amount_total", "amount_residual"},
		},
		{
			Name:       Receivable,
			Model:      AccountMove,
			DateField:  "invoice_date",
			StateField: "state",
			Defaults: Domain{
				C("state", "=", "posted"),
				C("move_type", "=", "out_invoice"),
				C("payment_state", "in", []string{"not_paid", "partial"}),
			},
			Fields: []string{"partner_id", "journal_id", "company_id", "invoice_date_due", "amount_residual", "user_id"},
		},
		{
			Name:       Payable,
			Model:      AccountMove,
			DateField:  "invoice_date",
			StateField: "state",
			Defaults: Domain{
				C("state", "=", "posted"),
				C("move_type", "=", "in_invoice"),
				C("payment_state", "in", []string{"not_paid", "partial"}),
			},
			Fields: []string{"partner_id", "journal_id", "company_id", "invoice_date_due", "amount_residual"},
		},
		{
			Name:       AccountPayment,
			DateField:  "date",
			StateField: "state",
			Defaults:   Domain{C("state", "=", "posted")},
			Fields:     []string{"payment_type", "partner_type", "partner_id", "journal_id", "company_id", "amount"},
		},
		{
			Name:      CRMLead,
			DateField: "create_date",
			DateTime:  true,
			// Won opportunities stay active at probability 100.
			Defaults: Domain{
				C("type", "=", "opportunity"),
				C("probability", "<", 100),
			},
			Fields: []string{"id", "stage_id", "user_id", "team_id", "partner_id", "tag_ids", "probability",
				"expected_revenue", "date_deadline", "name"},
		},
		{
			Name:      CRMLeadLost,
			Model:     CRMLead,
			DateField: "date_closed",
			DateTime:  true,
			Defaults: Domain{
				C("type", "=", "opportunity"),
				C("active", "=", false),
				C("probability", "=", 0),
			},
			Fields: []string{"stage_id", "user_id", "team_id", "partner_id", "lost_reason_id"},
		},
		{
			Name:   CRMTag,
			Fields: []string{"id", "name"},
		},
		{
			Name:       Subscription,
			Model:      SaleOrder,
			DateField:  "start_date",
			StateField: "subscription_state",
			Defaults: Domain{
				C("is_subscription", "=", true),
				C("subscription_state", "in", []string{"3_progress", "4_paused"}),
			},
			Fields: []string{"id", "name", "partner_id", "plan_id", "user_id", "team_id", "is_subscription",
				"client_order_ref", "recurring_monthly"},
		},
		{
			Name:       SubscriptionChurn,
			Model:      SaleOrder,
			DateField:  "end_date",
			StateField: "subscription_state",
			Defaults: Domain{
				C("is_subscription", "=", true),
				C("subscription_state", "=", "6_churn"),
			},
			Fields: []string{"partner_id", "plan_id", "user_id", "close_reason_id"},
		},
		{
			Name:      Partner,
			DateField: "create_date",
			DateTime:  true,
			Defaults:  Domain{C("active", "=", true)},
			Fields:    []string{"id", "name", "customer_rank", "supplier_rank", "is_company", "parent_id", "email"},
		},
		{
			Name:      Product,
			DateField: "create_date",
			DateTime:  true,
			Defaults:  Domain{C("active", "=", true)},
			Fields:    []string{"id", "name", "default_code", "barcode", "categ_id", "sale_ok", "purchase_ok"},
		},
	}
}
