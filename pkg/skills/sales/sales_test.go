package sales_test

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/sales"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills/skilltest"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type SalesTestSuite struct {
	suite.Suite
	q  *skilltest.Querier
	rt *skills.Runtime
}

func (s *SalesTestSuite) SetupTest() {
	s.q = skilltest.NewQuerier()
	s.rt, _ = skilltest.Runtime(s.q)
}

func (s *SalesTestSuite) TestSummaryWithBreakdown() {
	s.q.Rows(domain.SaleReport, "read_group",
		map[string]any{"partner_id": []any{1, "Acme"}, "price_subtotal": 1000.0, "product_uom_qty": 10.0, "partner_id_count": 4},
		map[string]any{"partner_id": []any{2, "Beta"}, "price_subtotal": 500.0, "product_uom_qty": 5.0, "partner_id_count": 2},
	).Count(domain.SaleOrder, 3)

	res := skilltest.Invoke(s.T(), sales.Summary(), s.rt, `{"group_by":"customer"}`)
	out := skilltest.Data[sales.SummaryOutput](s.T(), res)

	s.Equal(1500.0, out.Total)
	s.Equal(15.0, out.Quantity)
	s.Equal(int64(6), out.Lines)
	s.Equal(int64(3), out.Orders)
	s.Equal(500.0, out.AverageTicket)
	s.Require().Len(out.Breakdown, 2)
	s.Equal(66.67, out.Breakdown[0].Percent)
	s.Equal("2026-01-01", out.Period.StartISO())

	calls := s.q.CallsTo(domain.SaleReport, "read_group")
	s.Require().Len(calls, 1)
	s.Equal([]string{"partner_id"}, calls[0].Group.GroupBy)
	s.Equal([]string{"price_subtotal:sum", "product_uom_qty:sum"}, calls[0].Group.Fields)
	s.Equal(domain.C("date", ">=", "2026-01-01 00:00:00"), calls[0].Domain[0])
	s.Equal(domain.C("date", "<=", "2026-01-31 23:59:59"), calls[0].Domain[1])
}

func (s *SalesTestSuite) TestSummaryProductFilterSkipsOrderCount() {
	s.q.Rows(domain.SaleReport, "read_group",
		map[string]any{"price_subtotal": 300.0, "product_uom_qty": 3.0, "__count": 2})

	res := skilltest.Invoke(s.T(), sales.Summary(), s.rt, `{"product_id":7,"period":"enero 2026"}`)
	out := skilltest.Data[sales.SummaryOutput](s.T(), res)

	s.Equal(300.0, out.Total)
	s.Zero(out.Orders)
	s.Zero(out.AverageTicket)
	s.Empty(s.q.CallsTo(domain.SaleOrder, "search_count"))
	s.NotEmpty(s.q.CallsTo(domain.SaleReport, "read_group")[0].Domain.Find("product_id"))
}

func (s *SalesTestSuite) TestSummaryRejectsUnknownGrouping() {
	res := skilltest.Invoke(s.T(), sales.Summary(), s.rt, `{"group_by":"region"}`)
	s.Equal(qerr.CodeValidation, res.Code())
	s.Empty(s.q.Calls())
}

func (s *SalesTestSuite) TestComparisonAgainstPreviousMonth() {
	s.q.On(domain.SaleReport, "read_group", skilltest.ByStart(map[string][]map[string]any{
		"2025-12-01": {{"price_subtotal": 1200.0, "product_uom_qty": 12.0, "__count": 6}},
		"2025-11-01": {{"price_subtotal": 1000.0, "product_uom_qty": 12.0, "__count": 5}},
	}))

	res := skilltest.Invoke(s.T(), sales.Comparison(), s.rt, `{}`)
	out := skilltest.Data[sales.ComparisonOutput](s.T(), res)

	s.Equal("2025-12-01", out.Current.Period.StartISO())
	s.Equal("2025-11-30", out.Previous.Period.EndISO())
	s.Equal(200.0, out.Sales.Change)
	s.Equal(20.0, out.Sales.ChangePercent)
	s.Equal(skills.TrendImproving, out.Sales.Trend)
	s.Equal(skills.TrendStable, out.Quantity.Trend)
	s.Equal(int64(5), out.Previous.Lines)
	s.Len(s.q.CallsTo(domain.SaleReport, "read_group"), 2)
}

func (s *SalesTestSuite) TestComparisonExplicitBaseline() {
	s.q.On(domain.SaleReport, "read_group", skilltest.ByStart(map[string][]map[string]any{
		"2026-01-01": {{"price_subtotal": 800.0, "__count": 4}},
		"2025-01-01": {{"price_subtotal": 1000.0, "__count": 5}},
	}))

	res := skilltest.Invoke(s.T(), sales.Comparison(), s.rt, `{"period":"enero 2026","compare_to":"enero 2025"}`)
	out := skilltest.Data[sales.ComparisonOutput](s.T(), res)

	s.Equal("2025-01-31", out.Previous.Period.EndISO())
	s.Equal(-20.0, out.Sales.ChangePercent)
	s.Equal(skills.TrendWorsening, out.Sales.Trend)
}

func (s *SalesTestSuite) TestComparisonPropagatesFailure() {
	s.q.On(domain.SaleReport, "read_group", func(c skilltest.Call) (any, error) {
		if c.Domain[0].Value == "2025-11-01 00:00:00" {
			return nil, qerr.Newf(qerr.CodeConnection, "ERP unreachable")
		}
		return nil, nil
	})

	res := skilltest.Invoke(s.T(), sales.Comparison(), s.rt, `{}`)
	s.Equal(qerr.CodeConnection, res.Code())
}

func (s *SalesTestSuite) TestTopProductsByQuantity() {
	s.q.Rows(domain.SaleReport, "read_group",
		map[string]any{"product_id": []any{1, "Silla"}, "price_subtotal": 900.0, "product_uom_qty": 3.0, "product_id_count": 3},
		map[string]any{"product_id": []any{2, "Mesa"}, "price_subtotal": 400.0, "product_uom_qty": 8.0, "product_id_count": 2},
		map[string]any{"product_id": []any{3, "Lampara"}, "price_subtotal": 100.0, "product_uom_qty": 8.0, "product_id_count": 1},
	)

	res := skilltest.Invoke(s.T(), sales.TopProducts(), s.rt, `{"by":"quantity","limit":2}`)
	out := skilltest.Data[sales.RankingOutput](s.T(), res)

	s.Equal("quantity", out.By)
	s.Equal(1400.0, out.Total)
	s.Require().Len(out.Entries, 2)
	s.Equal("Lampara", out.Entries[0].Name)
	s.Equal("Mesa", out.Entries[1].Name)
	s.Equal(2, out.Entries[1].Rank)
}

func (s *SalesTestSuite) TestTopCustomersDefaults() {
	s.q.Rows(domain.SaleReport, "read_group",
		map[string]any{"partner_id": []any{1, "Acme"}, "price_subtotal": 100.0, "partner_id_count": 1},
		map[string]any{"partner_id": []any{2, "Beta"}, "price_subtotal": 300.0, "partner_id_count": 1},
	)

	res := skilltest.Invoke(s.T(), sales.TopCustomers(), s.rt, `{}`)
	out := skilltest.Data[sales.RankingOutput](s.T(), res)

	s.Equal("amount", out.By)
	s.Require().Len(out.Entries, 2)
	s.Equal("Beta", out.Entries[0].Name)
	s.Equal(75.0, out.Entries[0].Percent)
	s.Equal([]string{"partner_id"}, s.q.CallsTo(domain.SaleReport, "read_group")[0].Group.GroupBy)
}

func (s *SalesTestSuite) TestTopCustomersRejectsLargeLimit() {
	res := skilltest.Invoke(s.T(), sales.TopCustomers(), s.rt, `{"limit":500}`)
	s.Equal(qerr.CodeValidation, res.Code())
}

func (s *SalesTestSuite) TestInactiveCustomers() {
	s.q.On(domain.SaleReport, "read_group", skilltest.ByStart(map[string][]map[string]any{
		"2025-12-01": {
			{"partner_id": []any{1, "Acme"}, "price_subtotal": 500.0, "partner_id_count": 2},
			{"partner_id": []any{3, "Gamma"}, "price_subtotal": 200.0, "partner_id_count": 1},
		},
		"2025-11-01": {
			{"partner_id": []any{1, "Acme"}, "price_subtotal": 400.0, "partner_id_count": 2},
			{"partner_id": []any{2, "Beta"}, "price_subtotal": 300.0, "partner_id_count": 1},
			{"partner_id": []any{4, "Alfa"}, "price_subtotal": 300.0, "partner_id_count": 3},
			{"partner_id": false, "price_subtotal": 50.0, "partner_id_count": 1},
		},
	}))

	res := skilltest.Invoke(s.T(), sales.InactiveCustomers(), s.rt,
		`{"date_from":"2025-12-01","date_to":"2025-12-31"}`)
	out := skilltest.Data[sales.InactiveOutput](s.T(), res)

	s.Equal("2025-11-01", out.PreviousPeriod.StartISO())
	s.Equal(2, out.ActiveCustomers)
	s.Equal(3, out.PreviousActive)
	s.Equal(1, out.Retained)
	s.Equal(33.33, out.RetentionPercent)
	s.Equal(2, out.InactiveCount)
	s.Equal(600.0, out.LostAmount)
	s.Equal(skills.TrendWorsening, out.Customers.Trend)
	s.Require().Len(out.Inactive, 2)
	s.Equal("Alfa", out.Inactive[0].Name)
	s.Equal(int64(3), out.Inactive[0].PreviousLines)
	s.Equal("Beta", out.Inactive[1].Name)
}

func (s *SalesTestSuite) TestInactiveCustomersNoneLost() {
	res := skilltest.Invoke(s.T(), sales.InactiveCustomers(), s.rt, `{}`)
	out := skilltest.Data[sales.InactiveOutput](s.T(), res)
	s.NotNil(out.Inactive)
	s.Empty(out.Inactive)
	s.Zero(out.RetentionPercent)
}

func TestSalesTestSuite(t *testing.T) {
	suite.Run(t, new(SalesTestSuite))
}

func TestSkills(t *testing.T) {
	names := map[string]bool{}
	for _, sk := range sales.Skills() {
		names[sk.Name()] = true
	}
	for _, want := range []string{"sales_summary", "sales_comparison", "top_customers", "top_products", "inactive_customers"} {
		if !names[want] {
			t.Errorf("missing skill %s", want)
		}
	}
}
