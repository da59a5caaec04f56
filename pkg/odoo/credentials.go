// Package odoo is a read-only JSON-RPC client for the Odoo ERP.
package odoo

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

// Credentials identify one ERP database and the account used to read it.
// They are supplied per call and never persisted.
type Credentials struct {
	URL      string `json:"url" koanf:"url"`
	Database string `json:"db" koanf:"database"`
	Username string `json:"username" koanf:"username"`
	APIKey   string `json:"-" koanf:"api_key"`
}

// Validate reports an AUTH_ERROR naming every missing field.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.Database) == "" {
		missing = append(missing, "db")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "apiKey")
	}
	if len(missing) > 0 {
		return qerr.Newf(qerr.CodeAuth, "incomplete ERP credentials: missing %s", strings.Join(missing, ", ")).
			WithContext("missing", missing)
	}
	return nil
}

// fingerprint identifies a credential set without exposing the key.
func (c Credentials) fingerprint() string {
	h := sha256.New()
	for _, part := range []string{c.URL, c.Database, c.Username, c.APIKey} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
