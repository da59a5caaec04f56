package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

// Registry is an immutable name to Skill map built once at startup.
type Registry struct {
	skills map[string]Skill
	names  []string
}

// NewRegistry indexes skills by name. Duplicate or empty names are an error.
func NewRegistry(skills ...Skill) (*Registry, error) {
	r := &Registry{skills: make(map[string]Skill, len(skills))}
	for _, s := range skills {
		if s == nil || s.Name() == "" {
			return nil, fmt.Errorf("skill without a name")
		}
		if _, dup := r.skills[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate skill %q", s.Name())
		}
		r.skills[s.Name()] = s
		r.names = append(r.names, s.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the skill registered under name.
func (r *Registry) Lookup(name string) (Skill, bool) {
	s, ok := r.skills[name]
	return s, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// All returns every skill sorted by name.
func (r *Registry) All() []Skill {
	out := make([]Skill, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.skills[n])
	}
	return out
}

// Len returns the number of skills.
func (r *Registry) Len() int {
	return len(r.names)
}

// Engine dispatches skill invocations by name.
type Engine struct {
	registry *Registry
	runtime  *Runtime
}

// NewEngine binds a registry to a runtime.
func NewEngine(registry *Registry, runtime *Runtime) *Engine {
	return &Engine{registry: registry, runtime: runtime}
}

// Registry returns the skill registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Runtime returns the shared runtime.
func (e *Engine) Runtime() *Runtime {
	return e.runtime
}

// Invoke runs the named skill. Unknown names fail with UNKNOWN_SKILL.
func (e *Engine) Invoke(ctx context.Context, name string, sc Context, input json.RawMessage) Result[any] {
	s, ok := e.registry.Lookup(name)
	if !ok {
		return Fail[any](qerr.Newf(qerr.CodeUnknownSkill, "unknown skill %q", name))
	}
	return s.Invoke(ctx, e.runtime, sc, input)
}
