package odoo

import (
	"sort"

	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

// readMethods is the complete set of ERP methods the client may dispatch.
var readMethods = map[string]struct{}{
	"search_read":  {},
	"read":         {},
	"search_count": {},
	"fields_get":   {},
	"read_group":   {},
}

// IsReadOnly reports whether method is on the allow-list.
func IsReadOnly(method string) bool {
	_, ok := readMethods[method]
	return ok
}

// Guard rejects any method outside the allow-list with READ_ONLY_VIOLATION.
func Guard(method string) error {
	if IsReadOnly(method) {
		return nil
	}
	return qerr.Newf(qerr.CodeReadOnlyViolation, "method %q is not allowed on a read-only connection", method).
		WithContext("method", method)
}

// AllowedMethods returns the allow-list in sorted order.
func AllowedMethods() []string {
	out := make([]string, 0, len(readMethods))
	for m := range readMethods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
