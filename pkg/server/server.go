package server

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/odoo-query-mcp/pkg/storage"
)

// Request headers identifying the caller on the streamable HTTP transport.
const (
	TenantHeader = "X-Odoo-Tenant"
	UserHeader   = "X-User-ID"
)

type Server struct {
	mcp.Server
	storage  storage.Storage
	recorder *storage.Recorder
}

func NewServer(impl *mcp.Implementation, store storage.Storage, logger zerolog.Logger) *Server {
	return &Server{
		Server:   *mcp.NewServer(impl, nil),
		storage:  store,
		recorder: storage.NewRecorder(store, logger),
	}
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

// Recorder returns the asynchronous execution writer.
func (s *Server) Recorder() *storage.Recorder {
	return s.recorder
}

// Shutdown flushes pending audit writes and closes storage. Records arriving
// after Shutdown starts are dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.recorder.Close(ctx); err != nil {
		return err
	}

	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

// Identity returns the tenant and user named by the request headers. Both are
// empty for transports without HTTP headers.
func Identity(req *mcp.CallToolRequest) (tenantID, userID string) {
	if req == nil || req.Extra == nil || req.Extra.Header == nil {
		return "", ""
	}
	return strings.TrimSpace(req.Extra.Header.Get(TenantHeader)),
		strings.TrimSpace(req.Extra.Header.Get(UserHeader))
}
