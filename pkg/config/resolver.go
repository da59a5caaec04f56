package config

import (
	"context"
	"sort"

	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
	"github.com/tb0hdan/odoo-query-mcp/pkg/odoo"
	"github.com/tb0hdan/odoo-query-mcp/pkg/skills"
)

// StaticResolver serves credentials loaded at startup.
type StaticResolver struct {
	fallback string
	tenants  map[string]odoo.Credentials
}

var _ skills.CredentialResolver = (*StaticResolver)(nil)

// NewStaticResolver creates a resolver. An empty tenant id resolves to
// fallback.
func NewStaticResolver(fallback string, tenants map[string]odoo.Credentials) *StaticResolver {
	copied := make(map[string]odoo.Credentials, len(tenants))
	for name, creds := range tenants {
		copied[name] = creds
	}
	return &StaticResolver{fallback: fallback, tenants: copied}
}

// Resolver builds a StaticResolver from c.
func (c *Config) Resolver() *StaticResolver {
	return NewStaticResolver(c.Odoo.Tenant, c.Credentials())
}

// Resolve implements skills.CredentialResolver. Each call returns a fresh copy.
func (r *StaticResolver) Resolve(_ context.Context, tenantID string) (*odoo.Credentials, error) {
	if tenantID == "" {
		tenantID = r.fallback
	}
	creds, ok := r.tenants[tenantID]
	if !ok {
		return nil, qerr.Newf(qerr.CodeAuth, "no ERP credentials configured for tenant %q", tenantID)
	}
	return &creds, nil
}

// Fallback returns the tenant used when none is given.
func (r *StaticResolver) Fallback() string { return r.fallback }

// Tenants lists the configured tenant ids.
func (r *StaticResolver) Tenants() []string {
	out := make([]string, 0, len(r.tenants))
	for name := range r.tenants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
