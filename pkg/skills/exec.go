package skills

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/cache"
	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
)

// PeriodInput is embedded by skills that accept a time range, either as a
// Spanish phrase or as explicit ISO dates.
type PeriodInput struct {
	Period   string `json:"period,omitempty" jsonschema:"time range in Spanish, e.g. 'este mes', 'enero 2026', 'desde julio del año pasado'" validate:"omitempty,max=120"`
	DateFrom string `json:"date_from,omitempty" jsonschema:"explicit start date YYYY-MM-DD, overrides period" validate:"required_with=DateTo,omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to,omitempty" jsonschema:"explicit end date YYYY-MM-DD, overrides period" validate:"required_with=DateFrom,omitempty,datetime=2006-01-02"`
}

// Exec is the per-call handle a skill body works through. Every ERP read
// goes through its cached query methods.
type Exec struct {
	rt     *Runtime
	sc     Context
	q      odoo.Querier
	logger zerolog.Logger
	now    time.Time
}

func newExec(rt *Runtime, sc Context, q odoo.Querier, logger zerolog.Logger) *Exec {
	return &Exec{rt: rt, sc: sc, q: q, logger: logger, now: rt.now()}
}

// Now is the reference time fixed at the start of the call.
func (x *Exec) Now() time.Time { return x.now }

// Context returns the caller context.
func (x *Exec) Context() Context { return x.sc }

// Logger returns the skill-scoped logger.
func (x *Exec) Logger() zerolog.Logger { return x.logger }

// ResolvePeriod turns in into a Period, falling back to the fallback phrase
// when neither a phrase nor explicit dates are given.
func (x *Exec) ResolvePeriod(in PeriodInput, fallback string) (period.Period, error) {
	if in.DateFrom != "" || in.DateTo != "" {
		p, err := period.FromISO(in.DateFrom, in.DateTo, strings.TrimSpace(in.Period))
		if err != nil {
			return period.Period{}, qerr.New(qerr.CodeValidation, "invalid date range", err)
		}
		return p, nil
	}
	phrase := in.Period
	if strings.TrimSpace(phrase) == "" {
		phrase = fallback
	}
	return x.ParsePeriod(phrase)
}

// OptionalPeriod resolves in only when the caller gave a phrase or dates.
func (x *Exec) OptionalPeriod(in PeriodInput) (*period.Period, error) {
	if strings.TrimSpace(in.Period) == "" && in.DateFrom == "" && in.DateTo == "" {
		return nil, nil
	}
	p, err := x.ResolvePeriod(in, "")
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParsePeriod parses phrase against the call's reference time.
func (x *Exec) ParsePeriod(phrase string) (period.Period, error) {
	p, err := x.rt.parser.Parse(phrase, x.now)
	if err == nil {
		return p, nil
	}
	var amb *period.AmbiguousError
	if errors.As(err, &amb) {
		candidates := make([]string, 0, len(amb.Candidates))
		for _, c := range amb.Candidates {
			candidates = append(candidates, c.String())
		}
		return period.Period{}, qerr.New(qerr.CodeValidation, "ambiguous period, please specify the year", err).
			WithContext("candidates", candidates)
	}
	return period.Period{}, qerr.New(qerr.CodeValidation, "could not understand period", err).
		WithContext("phrase", phrase)
}

// Domain builds a domain for a logical model. Builder errors are input
// errors.
func (x *Exec) Domain(model string, p *period.Period, opts ...domain.Option) (domain.Domain, error) {
	d, err := x.rt.builder.Build(model, p, opts...)
	if err != nil {
		return nil, qerr.New(qerr.CodeValidation, "invalid filter", err)
	}
	return d, nil
}

// erpModel resolves logical names; unknown names pass through unchanged.
func (x *Exec) erpModel(model string) string {
	if spec, ok := x.rt.builder.Spec(model); ok {
		return spec.ERPModel()
	}
	return model
}

func (x *Exec) cacheKey(method, model string, parts ...any) string {
	var url, db string
	if x.sc.Credentials != nil {
		url, db = x.sc.Credentials.URL, x.sc.Credentials.Database
	}
	return cache.Key(append([]any{x.sc.TenantID, url, db, method, model}, parts...)...)
}

// cached serves key from the cache or runs fetch. Only successful calls whose
// context is still live are stored.
func cached[T any](ctx context.Context, x *Exec, key string, fetch func() (T, error)) (T, error) {
	c := x.rt.cache
	if c != nil {
		if v, ok := c.Get(key); ok {
			if t, ok := v.(T); ok {
				x.rt.metrics.RecordCacheLookup(ctx, true)
				return t, nil
			}
		}
		x.rt.metrics.RecordCacheLookup(ctx, false)
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if c != nil && ctx.Err() == nil {
		c.Set(key, v, x.rt.cacheTTL)
	}
	return v, nil
}

// SearchRead reads records of a logical model.
func (x *Exec) SearchRead(ctx context.Context, model string, d domain.Domain, opts odoo.SearchOptions) ([]odoo.Record, error) {
	erp := x.erpModel(model)
	key := x.cacheKey("search_read", erp, d, opts)
	return cached(ctx, x, key, func() ([]odoo.Record, error) {
		return x.q.SearchRead(ctx, erp, d, opts)
	})
}

// Read reads records by id.
func (x *Exec) Read(ctx context.Context, model string, ids []int64, fields []string) ([]odoo.Record, error) {
	if len(ids) == 0 {
		return []odoo.Record{}, nil
	}
	erp := x.erpModel(model)
	key := x.cacheKey("read", erp, ids, fields)
	return cached(ctx, x, key, func() ([]odoo.Record, error) {
		return x.q.Read(ctx, erp, ids, fields)
	})
}

// SearchCount counts records of a logical model.
func (x *Exec) SearchCount(ctx context.Context, model string, d domain.Domain) (int64, error) {
	erp := x.erpModel(model)
	key := x.cacheKey("search_count", erp, d)
	return cached(ctx, x, key, func() (int64, error) {
		return x.q.SearchCount(ctx, erp, d)
	})
}

// ReadGroup aggregates records of a logical model.
func (x *Exec) ReadGroup(ctx context.Context, model string, d domain.Domain, opts odoo.GroupOptions) ([]odoo.Record, error) {
	erp := x.erpModel(model)
	key := x.cacheKey("read_group", erp, d, opts)
	return cached(ctx, x, key, func() ([]odoo.Record, error) {
		return x.q.ReadGroup(ctx, erp, d, opts)
	})
}
