package odoo

import (
	"bytes"
	"encoding/json"
	"time"

	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Record is one row returned by the ERP. Values stay as raw JSON and are read
// through typed getters; Odoo's false for empty fields reads as the zero value.
type Record map[string]json.RawMessage

// Ref is a many2one value: [id, display name].
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewRecord builds a Record from plain values.
func NewRecord(fields map[string]any) Record {
	r := make(Record, len(fields))
	for k, v := range fields {
		data, err := json.Marshal(v)
		if err != nil {
			data = []byte("null")
		}
		r[k] = data
	}
	return r
}

func decodeRecords(raw json.RawMessage) ([]Record, error) {
	var out []Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, qerr.New(qerr.CodeAPI, "unexpected ERP payload: expected a list of records", err)
	}
	return out, nil
}

func empty(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("false")) || bytes.Equal(v, []byte("null"))
}

// Has reports whether field is present and not empty.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && !empty(v)
}

// ID returns the record id.
func (r Record) ID() int64 {
	return r.Int("id")
}

// Float returns a numeric field.
func (r Record) Float(field string) float64 {
	v, ok := r[field]
	if !ok || empty(v) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0
	}
	return f
}

// Int returns an integer field. A many2one field yields its id.
func (r Record) Int(field string) int64 {
	if ref, ok := r.Ref(field); ok {
		return ref.ID
	}
	return int64(r.Float(field))
}

// String returns a text or selection field.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || empty(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// Bool returns a boolean field.
func (r Record) Bool(field string) bool {
	v, ok := r[field]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false
	}
	return b
}

// Ref returns a many2one field. ok is false for empty or non-relational
// values.
func (r Record) Ref(field string) (Ref, bool) {
	v, ok := r[field]
	if !ok || empty(v) {
		return Ref{}, false
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(v, &pair); err != nil || len(pair) == 0 {
		return Ref{}, false
	}
	var ref Ref
	if err := json.Unmarshal(pair[0], &ref.ID); err != nil {
		return Ref{}, false
	}
	if len(pair) > 1 {
		_ = json.Unmarshal(pair[1], &ref.Name)
	}
	return ref, true
}

// IDs returns a one2many or many2many field.
func (r Record) IDs(field string) []int64 {
	v, ok := r[field]
	if !ok || empty(v) {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(v, &ids); err != nil {
		return nil
	}
	return ids
}

// Date returns a date or datetime field in UTC.
func (r Record) Date(field string) (time.Time, bool) {
	s := r.String(field)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{dateLayout, dateTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Count returns the row count of a read_group row. Odoo reports it as
// __count for non-lazy grouping and <groupBy>_count for lazy grouping.
func (r Record) Count(groupBy string) int64 {
	if _, ok := r["__count"]; ok {
		return int64(r.Float("__count"))
	}
	return int64(r.Float(groupBy + "_count"))
}
