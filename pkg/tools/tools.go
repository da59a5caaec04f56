package tools

import (
	"github.com/tb0hdan/odoo-query-mcp/pkg/server"
)

type Tool interface {
	Register(srv *server.Server) error
}
