// Package telemetry records OpenTelemetry metrics for ERP calls, skill
// executions and cache lookups.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tb0hdan/odoo-query-mcp"

// Metrics holds the engine instruments. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	rpcAttempts   metric.Int64Counter
	rpcFailures   metric.Int64Counter
	skillCalls    metric.Int64Counter
	skillDuration metric.Float64Histogram
	cacheLookups  metric.Int64Counter
}

// NewMetrics creates the instruments on provider, or on the global provider
// when provider is nil.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	rpcAttempts, err := meter.Int64Counter(
		"odoo.rpc.attempts",
		metric.WithDescription("JSON-RPC attempts sent to the ERP, including retries"),
	)
	if err != nil {
		return nil, err
	}

	rpcFailures, err := meter.Int64Counter(
		"odoo.rpc.failures",
		metric.WithDescription("JSON-RPC calls that failed after retries, by error code"),
	)
	if err != nil {
		return nil, err
	}

	skillCalls, err := meter.Int64Counter(
		"skill.invocations",
		metric.WithDescription("Skill invocations by skill and result code"),
	)
	if err != nil {
		return nil, err
	}

	skillDuration, err := meter.Float64Histogram(
		"skill.duration",
		metric.WithDescription("Skill execution time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Result cache lookups by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		rpcAttempts:   rpcAttempts,
		rpcFailures:   rpcFailures,
		skillCalls:    skillCalls,
		skillDuration: skillDuration,
		cacheLookups:  cacheLookups,
	}, nil
}

// RecordRPCAttempt counts one JSON-RPC attempt.
func (m *Metrics) RecordRPCAttempt(ctx context.Context, model, method string, attempt int) {
	if m == nil {
		return
	}
	m.rpcAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("odoo.model", model),
		attribute.String("odoo.method", method),
		attribute.Bool("retry", attempt > 1),
	))
}

// RecordRPCFailure counts a call that failed for good.
func (m *Metrics) RecordRPCFailure(ctx context.Context, model, method, code string) {
	if m == nil {
		return
	}
	m.rpcFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("odoo.model", model),
		attribute.String("odoo.method", method),
		attribute.String("error.code", code),
	))
}

// RecordSkill records one skill invocation outcome. code is empty on success.
func (m *Metrics) RecordSkill(ctx context.Context, skill, code string, duration time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	attrs := metric.WithAttributes(
		attribute.String("skill", skill),
		attribute.String("result", code),
	)
	m.skillCalls.Add(ctx, 1, attrs)
	m.skillDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
