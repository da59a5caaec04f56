package skills

import (
	"encoding/json"

	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
)

// Context is the request-scoped identity of a skill call.
type Context struct {
	UserID      string            `json:"userId"`
	TenantID    string            `json:"tenantId"`
	Credentials *odoo.Credentials `json:"-"`
	Locale      string            `json:"locale,omitempty"`
}

// ErrorInfo is the failure half of a Result.
type ErrorInfo struct {
	Code    qerr.Code `json:"code"`
	Message string    `json:"message"`
}

// Result is either {success: true, data} or {success: false, error}.
type Result[T any] struct {
	Success bool
	Data    T
	Error   *ErrorInfo
}

// OK wraps data in a successful Result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail converts err into a failed Result. Errors without a code become
// API_ERROR.
func Fail[T any](err error) Result[T] {
	qe := qerr.Normalize(err)
	if qe == nil {
		qe = qerr.Newf(qerr.CodeAPI, "unknown failure")
	}
	msg := qe.Message
	if qe.Err != nil {
		msg += ": " + qe.Err.Error()
	}
	return Result[T]{Error: &ErrorInfo{Code: qe.Code, Message: msg}}
}

// Code returns the error code, or "" on success.
func (r Result[T]) Code() qerr.Code {
	if r.Success || r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// MarshalJSON emits only the active variant.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		Success bool       `json:"success"`
		Error   *ErrorInfo `json:"error"`
	}{false, r.Error})
}
