package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tb0hdan/odoo-query-mcp/pkg/domain"
	qerr "github.com/tb0hdan/odoo-query-mcp/pkg/errors"
)

type rpcCall struct {
	Service string
	Method  string
	Args    []json.RawMessage
}

// fakeOdoo is a scripted JSON-RPC endpoint. statuses lists the HTTP status
// of successive object calls; calls past the end succeed.
type fakeOdoo struct {
	mu         sync.Mutex
	authResult any
	statuses   []int
	result     any
	rpcError   map[string]any
	authHits   int
	objectHits int
	calls      []rpcCall
}

func (f *fakeOdoo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  struct {
			Service string            `json:"service"`
			Method  string            `json:"method"`
			Args    []json.RawMessage `json:"args"`
		} `json:"params"`
		ID string `json:"id"`
	}
	if r.URL.Path != "/jsonrpc" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JSONRPC != "2.0" || req.Method != "call" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if req.Params.Service == "common" {
		f.authHits++
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": f.authResult})
		return
	}

	f.objectHits++
	f.calls = append(f.calls, rpcCall{Service: req.Params.Service, Method: req.Params.Method, Args: req.Params.Args})
	if i := f.objectHits - 1; i < len(f.statuses) && f.statuses[i] != http.StatusOK {
		w.WriteHeader(f.statuses[i])
		_, _ = w.Write([]byte("upstream failure"))
		return
	}
	if f.rpcError != nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": f.rpcError})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": f.result})
}

func (f *fakeOdoo) hits() (auth, object int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authHits, f.objectHits
}

type ClientTestSuite struct {
	suite.Suite
	fake   *fakeOdoo
	server *httptest.Server
	client *Client
}

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		Multiplier:      2,
		MaxInterval:     5 * time.Millisecond,
	}
}

func (s *ClientTestSuite) SetupTest() {
	s.fake = &fakeOdoo{authResult: 7, result: []any{}}
	s.server = httptest.NewServer(s.fake)

	client, err := NewClient(Credentials{
		URL:      s.server.URL + "/",
		Database: "acme",
		Username: "reader@acme.test",
		APIKey:   "secret",
	}, WithRetryPolicy(testPolicy()))
	s.Require().NoError(err)
	s.client = client
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientTestSuite) TestGuardRejectsWritesWithoutNetwork() {
	for _, method := range []string{"create", "write", "unlink", "copy", "action_confirm", "action_cancel", "message_post"} {
		_, err := s.client.Call(context.Background(), "sale.order", method, []any{[]int64{1}}, nil)
		s.Require().Error(err, method)
		s.Equal(qerr.CodeReadOnlyViolation, qerr.CodeOf(err), method)
	}
	auth, object := s.fake.hits()
	s.Zero(auth)
	s.Zero(object)
}

func (s *ClientTestSuite) TestGuardPassesReadMethods() {
	for _, method := range []string{"search_read", "read", "search_count", "fields_get", "read_group"} {
		s.fake.result = 0
		_, err := s.client.Call(context.Background(), "sale.report", method, nil, nil)
		s.NoError(err, method)
	}
	_, object := s.fake.hits()
	s.Equal(5, object)
}

func (s *ClientTestSuite) TestEnvelope() {
	s.fake.result = []map[string]any{{"id": 1, "name": "SO001"}}

	_, err := s.client.SearchRead(context.Background(), "sale.order",
		domain.Domain{domain.C("state", "=", "sale")},
		SearchOptions{Fields: []string{"name"}, Limit: 5})
	s.Require().NoError(err)

	s.Require().Len(s.fake.calls, 1)
	call := s.fake.calls[0]
	s.Equal("object", call.Service)
	s.Equal("execute_kw", call.Method)
	s.Require().Len(call.Args, 7)
	s.JSONEq(`"acme"`, string(call.Args[0]))
	s.JSONEq(`7`, string(call.Args[1]))
	s.JSONEq(`"secret"`, string(call.Args[2]))
	s.JSONEq(`"sale.order"`, string(call.Args[3]))
	s.JSONEq(`"search_read"`, string(call.Args[4]))
	s.JSONEq(`[[["state","=","sale"]]]`, string(call.Args[5]))
	s.JSONEq(`{"fields":["name"],"limit":5}`, string(call.Args[6]))
}

func (s *ClientTestSuite) TestRetriesTransientFailures() {
	s.fake.statuses = []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusOK}
	s.fake.result = 42

	n, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Require().NoError(err)
	s.Equal(int64(42), n)

	_, object := s.fake.hits()
	s.Equal(3, object)
}

func (s *ClientTestSuite) TestDoesNotRetryClientErrors() {
	s.fake.statuses = []int{http.StatusBadRequest}

	_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Require().Error(err)
	s.Equal(qerr.CodeAPI, qerr.CodeOf(err))

	_, object := s.fake.hits()
	s.Equal(1, object)
}

func (s *ClientTestSuite) TestExhaustedRetriesSurfaceAPIError() {
	s.fake.statuses = []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable,
		http.StatusServiceUnavailable, http.StatusServiceUnavailable}

	_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Require().Error(err)

	qe, ok := qerr.As(err)
	s.Require().True(ok)
	s.Equal(qerr.CodeAPI, qe.Code)
	s.Equal(3, qe.Context["attempts"])
	s.Contains(qe.Message, "503")

	_, object := s.fake.hits()
	s.Equal(3, object)
}

func (s *ClientTestSuite) TestUnauthorizedStatusIsAuthError() {
	s.fake.statuses = []int{http.StatusForbidden}

	_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Equal(qerr.CodeAuth, qerr.CodeOf(err))

	_, object := s.fake.hits()
	s.Equal(1, object)
}

func (s *ClientTestSuite) TestRPCErrors() {
	s.fake.rpcError = map[string]any{
		"code":    200,
		"message": "Odoo Server Error",
		"data":    map[string]any{"name": "odoo.exceptions.AccessError", "message": "not allowed"},
	}
	_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Equal(qerr.CodeAuth, qerr.CodeOf(err))

	s.fake.rpcError = map[string]any{
		"code":    200,
		"message": "Odoo Server Error",
		"data":    map[string]any{"name": "builtins.ValueError", "message": "Invalid field"},
	}
	_, err = s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Equal(qerr.CodeAPI, qerr.CodeOf(err))
	s.Contains(err.Error(), "Invalid field")

	_, object := s.fake.hits()
	s.Equal(2, object)
}

func (s *ClientTestSuite) TestAuthenticatesOnce() {
	s.fake.result = 1
	for range 3 {
		_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
		s.Require().NoError(err)
	}
	auth, object := s.fake.hits()
	s.Equal(1, auth)
	s.Equal(3, object)
	s.Equal(int64(7), s.client.UID())
}

func (s *ClientTestSuite) TestRejectedCredentials() {
	s.fake.authResult = false

	_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Equal(qerr.CodeAuth, qerr.CodeOf(err))

	_, object := s.fake.hits()
	s.Zero(object)
}

func (s *ClientTestSuite) TestCancelledCallIsNotRetried() {
	// Authenticate first so the cancelled call is the object call.
	s.fake.result = 0
	_, err := s.client.SearchCount(context.Background(), "res.partner", nil)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.client.SearchCount(ctx, "res.partner", nil)
	s.Require().Error(err)
	s.ErrorIs(err, context.Canceled)

	_, object := s.fake.hits()
	s.Equal(1, object)
}

func (s *ClientTestSuite) TestReadGroupDecodesRecords() {
	s.fake.result = []map[string]any{
		{"partner_id": []any{9, "Acme"}, "price_subtotal": 1500.5, "__count": 3},
		{"partner_id": false, "price_subtotal": 10, "__count": 1},
	}
	rows, err := s.client.ReadGroup(context.Background(), "sale.report", nil, GroupOptions{
		Fields:  []string{"price_subtotal:sum"},
		GroupBy: []string{"partner_id"},
	})
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	ref, ok := rows[0].Ref("partner_id")
	s.True(ok)
	s.Equal(Ref{ID: 9, Name: "Acme"}, ref)
	s.InDelta(1500.5, rows[0].Float("price_subtotal"), 1e-9)
	s.Equal(int64(3), rows[0].Count("partner_id"))

	_, ok = rows[1].Ref("partner_id")
	s.False(ok)

	call := s.fake.calls[0]
	s.Equal(`"read_group"`, string(call.Args[4]))
	s.JSONEq(`[[],["price_subtotal:sum"],["partner_id"]]`, string(call.Args[5]))
	s.JSONEq(`{"lazy":false}`, string(call.Args[6]))
}

func (s *ClientTestSuite) TestMalformedPayload() {
	s.fake.result = map[string]any{"unexpected": true}
	_, err := s.client.SearchRead(context.Background(), "res.partner", nil, SearchOptions{})
	s.Equal(qerr.CodeAPI, qerr.CodeOf(err))
}

func (s *ClientTestSuite) TestReadWithoutIDsSkipsNetwork() {
	rows, err := s.client.Read(context.Background(), "res.partner", nil, []string{"name"})
	s.Require().NoError(err)
	s.Empty(rows)

	auth, object := s.fake.hits()
	s.Zero(auth)
	s.Zero(object)
}

func (s *ClientTestSuite) TestFieldsGet() {
	s.fake.result = map[string]any{
		"date_order": map[string]any{"type": "datetime", "string": "Order Date", "store": true},
	}
	fields, err := s.client.FieldsGet(context.Background(), "purchase.report", []string{"type", "string"})
	s.Require().NoError(err)
	s.Equal("datetime", fields["date_order"].Type)
	s.True(fields["date_order"].Store)
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Credentials{URL: url, Database: "acme", Username: "u", APIKey: "k"},
		WithRetryPolicy(testPolicy()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.SearchCount(context.Background(), "res.partner", nil)
	if got := qerr.CodeOf(err); got != qerr.CodeConnection {
		t.Fatalf("expected %s, got %s (%v)", qerr.CodeConnection, got, err)
	}
	qe, _ := qerr.As(err)
	if qe.Context["attempts"] != 3 {
		t.Fatalf("expected 3 attempts, got %v", qe.Context["attempts"])
	}
}

func TestNewClient_InvalidCredentials(t *testing.T) {
	_, err := NewClient(Credentials{URL: "https://erp.example.com", Database: "acme"})
	if got := qerr.CodeOf(err); got != qerr.CodeAuth {
		t.Fatalf("expected %s, got %s", qerr.CodeAuth, got)
	}
}
