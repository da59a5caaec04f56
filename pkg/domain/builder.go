package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/tb0hdan/odoo-query-mcp/pkg/period"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Builder compiles periods and filters into domains for known models.
// It is immutable after construction and safe for concurrent use.
type Builder struct {
	specs map[string]Spec
}

// NewBuilder creates a builder from specs. Later specs replace earlier ones
// with the same name.
func NewBuilder(specs ...Spec) *Builder {
	b := &Builder{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		b.specs[s.Name] = s
	}
	return b
}

// DefaultBuilder returns a builder over Catalog().
func DefaultBuilder() *Builder {
	return NewBuilder(Catalog()...)
}

// Spec returns the spec for a logical model name.
func (b *Builder) Spec(model string) (Spec, bool) {
	s, ok := b.specs[model]
	return s, ok
}

// Model resolves a logical model name to the Odoo model name.
func (b *Builder) Model(model string) (string, error) {
	s, ok := b.specs[model]
	if !ok {
		return "", fmt.Errorf("unknown model %q", model)
	}
	return s.ERPModel(), nil
}

// DateField returns the canonical date field for model.
func (b *Builder) DateField(model string) (string, error) {
	s, ok := b.specs[model]
	if !ok {
		return "", fmt.Errorf("unknown model %q", model)
	}
	return s.DateField, nil
}

type buildOptions struct {
	states     []string
	noDefaults bool
	without    []string
	extra      Domain
}

// Option adjusts a single Build call.
type Option func(*buildOptions)

// Where adds an equality filter, or an "in" filter for slice values.
func Where(field string, value any) Option {
	return func(o *buildOptions) {
		o.extra = append(o.extra, C(field, operatorFor(value), value))
	}
}

// WhereOp adds a filter with an explicit operator.
func WhereOp(field, operator string, value any) Option {
	return func(o *buildOptions) {
		o.extra = append(o.extra, C(field, operator, value))
	}
}

// States replaces the model's default state filter.
func States(states ...string) Option {
	return func(o *buildOptions) {
		o.states = states
	}
}

// Without drops the model's default clauses on fields.
func Without(fields ...string) Option {
	return func(o *buildOptions) {
		o.without = append(o.without, fields...)
	}
}

// NoDefaults drops every default clause of the model.
func NoDefaults() Option {
	return func(o *buildOptions) {
		o.noDefaults = true
	}
}

// Build compiles a domain for model: period bounds on the canonical date
// field, then default filters, then validated extra filters. A nil period
// adds no date clauses.
func (b *Builder) Build(model string, p *period.Period, opts ...Option) (Domain, error) {
	spec, ok := b.specs[model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	out := Domain{}
	if p != nil {
		if spec.DateField == "" {
			return nil, fmt.Errorf("model %q has no date field for period filters", model)
		}
		start, end := p.Start.Format(dateLayout), p.End.Format(dateLayout)
		if spec.DateTime {
			start = p.Start.Format(dateTimeLayout)
			end = p.End.Add(24*time.Hour - time.Second).Format(dateTimeLayout)
		}
		out = append(out, C(spec.DateField, ">=", start), C(spec.DateField, "<=", end))
	}

	if !o.noDefaults {
		for _, c := range spec.Defaults {
			if o.states != nil && c.Field == spec.StateField {
				continue
			}
			if slices.Contains(o.without, c.Field) {
				continue
			}
			out = append(out, c)
		}
	}
	if o.states != nil {
		if spec.StateField == "" {
			return nil, fmt.Errorf("model %q has no state field", model)
		}
		out = append(out, C(spec.StateField, "in", o.states))
	}

	for _, c := range o.extra {
		if err := spec.check(c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s Spec) check(c Clause) error {
	if !ValidOperator(c.Operator) {
		return fmt.Errorf("operator %q is not allowed", c.Operator)
	}
	if c.Field == s.DateField || c.Field == s.StateField {
		return nil
	}
	for _, f := range s.Fields {
		if f == c.Field {
			return nil
		}
	}
	return fmt.Errorf("field %q is not filterable on %s", c.Field, s.Name)
}
