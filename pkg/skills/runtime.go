package skills

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/cache"
	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
	"github.com/tb0hdan/odoo-query-mcp/pkg/telemetry"
)

// CredentialResolver maps a tenant to its ERP credentials. Implementations
// live outside the engine; it only consumes resolved values.
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (*odoo.Credentials, error)
}

// Runtime holds the collaborators shared by every skill call. It is
// immutable after construction.
type Runtime struct {
	connector odoo.Connector
	cache     *cache.Cache
	cacheTTL  time.Duration
	builder   *domain.Builder
	parser    *period.Parser
	validate  *validator.Validate
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
	now       func() time.Time
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithCache enables result caching. ttl <= 0 uses the cache default.
func WithCache(c *cache.Cache, ttl time.Duration) RuntimeOption {
	return func(rt *Runtime) {
		rt.cache = c
		rt.cacheTTL = ttl
	}
}

// WithBuilder replaces the default domain builder.
func WithBuilder(b *domain.Builder) RuntimeOption {
	return func(rt *Runtime) {
		if b != nil {
			rt.builder = b
		}
	}
}

// WithParser replaces the default period parser.
func WithParser(p *period.Parser) RuntimeOption {
	return func(rt *Runtime) {
		if p != nil {
			rt.parser = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithMetrics records skill outcomes and cache lookups.
func WithMetrics(m *telemetry.Metrics) RuntimeOption {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// WithClock replaces time.Now as the reference for relative periods.
func WithClock(now func() time.Time) RuntimeOption {
	return func(rt *Runtime) {
		if now != nil {
			rt.now = now
		}
	}
}

// NewRuntime creates a runtime that reaches the ERP through connector.
func NewRuntime(connector odoo.Connector, opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		connector: connector,
		builder:   domain.DefaultBuilder(),
		parser:    period.NewParser(),
		validate:  newValidator(),
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rt)
		}
	}
	return rt
}

// Validator returns the input validator, which reports JSON field names.
func (rt *Runtime) Validator() *validator.Validate {
	return rt.validate
}

// Parser returns the period parser.
func (rt *Runtime) Parser() *period.Parser {
	return rt.parser
}

// Now returns the runtime clock reading.
func (rt *Runtime) Now() time.Time {
	return rt.now()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
