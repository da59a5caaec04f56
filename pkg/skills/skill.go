// Package skills defines the typed, validated, read-only query operations
// exposed to callers and the runtime they execute in.
package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/jsonschema-go/jsonschema"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

// Skill is one named business query.
type Skill interface {
	Name() string
	Description() string
	// InputSchema describes the JSON input object.
	InputSchema() *jsonschema.Schema
	// Invoke never panics and never returns a Go error: every failure is a
	// failed Result.
	Invoke(ctx context.Context, rt *Runtime, sc Context, input json.RawMessage) Result[any]
}

// RunFunc is the body of a skill. It receives validated input.
type RunFunc[In, Out any] func(ctx context.Context, x *Exec, in In) (Out, error)

// Definition is a Skill with typed input and output.
type Definition[In, Out any] struct {
	name        string
	description string
	schema      *jsonschema.Schema
	run         RunFunc[In, Out]
}

var _ Skill = (*Definition[struct{}, struct{}])(nil)

// Define creates a skill. The input schema is inferred from In; it panics
// if In cannot be described, which is a programming error caught at startup.
func Define[In, Out any](name, description string, run RunFunc[In, Out]) *Definition[In, Out] {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("skill %s: %v", name, err))
	}
	return &Definition[In, Out]{
		name:        name,
		description: description,
		schema:      schema,
		run:         run,
	}
}

// Name returns the registry name.
func (d *Definition[In, Out]) Name() string { return d.name }

// Description returns the human description.
func (d *Definition[In, Out]) Description() string { return d.description }

// InputSchema returns the inferred input schema.
func (d *Definition[In, Out]) InputSchema() *jsonschema.Schema { return d.schema }

// Invoke validates input, checks credentials, runs the skill and normalizes
// every failure into a Result.
func (d *Definition[In, Out]) Invoke(ctx context.Context, rt *Runtime, sc Context, input json.RawMessage) (res Result[any]) {
	start := time.Now()
	logger := rt.logger.With().Str("skill", d.name).Str("tenant", sc.TenantID).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Skill panicked")
			res = Fail[any](qerr.Newf(qerr.CodeAPI, "internal error while running %s", d.name))
		}
		rt.metrics.RecordSkill(ctx, d.name, string(res.Code()), time.Since(start))
		logger.Debug().
			Bool("success", res.Success).
			Str("code", string(res.Code())).
			Dur("duration", time.Since(start)).
			Msg("Skill finished")
	}()

	in, err := decodeInput[In](input, rt.validate)
	if err != nil {
		return Fail[any](err)
	}

	if sc.Credentials == nil {
		return Fail[any](qerr.Newf(qerr.CodeAuth, "no ERP credentials for tenant %q", sc.TenantID))
	}
	if err := sc.Credentials.Validate(); err != nil {
		return Fail[any](err)
	}

	q, err := rt.connector.Connect(ctx, *sc.Credentials)
	if err != nil {
		return Fail[any](err)
	}

	x := newExec(rt, sc, q, logger)
	out, err := d.run(ctx, x, in)
	if err != nil {
		logger.Warn().Err(err).Msg("Skill failed")
		return Fail[any](err)
	}
	return OK[any](out)
}

func decodeInput[In any](raw json.RawMessage, v *validator.Validate) (In, error) {
	var in In
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, qerr.New(qerr.CodeValidation, "invalid input", err)
	}
	if err := v.Struct(in); err != nil {
		return in, qerr.New(qerr.CodeValidation, describeValidation(err), nil)
	}
	return in, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid input: " + err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
