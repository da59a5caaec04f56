// Package domain compiles periods and business filters into Odoo domain
// filter lists using a canonical per-model field map.
package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Clause is a single (field, operator, value) triple.
type Clause struct {
	Field    string
	Operator string
	Value    any
}

// Domain is an ordered list of clauses, implicitly AND-combined by Odoo.
type Domain []Clause

// C is shorthand for building a Clause.
func C(field, operator string, value any) Clause {
	return Clause{Field: field, Operator: operator, Value: value}
}

// MarshalJSON renders the clause as Odoo's [field, operator, value] triple.
func (c Clause) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Operator, c.Value})
}

// UnmarshalJSON parses a [field, operator, value] triple.
func (c *Clause) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("domain clause must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.Field); err != nil {
		return fmt.Errorf("domain clause field: %w", err)
	}
	if err := json.Unmarshal(raw[1], &c.Operator); err != nil {
		return fmt.Errorf("domain clause operator: %w", err)
	}
	return json.Unmarshal(raw[2], &c.Value)
}

// MarshalJSON renders an empty domain as [] rather than null.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Clause(d))
}

// Fields returns the field names referenced by d, in order.
func (d Domain) Fields() []string {
	out := make([]string, 0, len(d))
	for _, c := range d {
		out = append(out, c.Field)
	}
	return out
}

// Find returns the clauses on field.
func (d Domain) Find(field string) []Clause {
	var out []Clause
	for _, c := range d {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

func (d Domain) String() string {
	parts := make([]string, 0, len(d))
	for _, c := range d {
		parts = append(parts, fmt.Sprintf("(%s %s %v)", c.Field, c.Operator, c.Value))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var operators = map[string]bool{
	"=": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
	"in": true, "not in": true, "like": true, "ilike": true, "not ilike": true,
	"=like": true, "=ilike": true, "child_of": true, "parent_of": true,
}

// ValidOperator reports whether op is an allowed domain operator.
func ValidOperator(op string) bool {
	return operators[op]
}

// operatorFor picks "in" for slice values and "=" otherwise.
func operatorFor(value any) string {
	if value == nil {
		return "="
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return "in"
	default:
		return "="
	}
}
