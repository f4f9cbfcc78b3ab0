package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
	"github.com/matiasleandrokruk/toolhost/internal/infra/config"
	"github.com/matiasleandrokruk/toolhost/internal/infra/eventbus"
	"github.com/matiasleandrokruk/toolhost/internal/infra/logging"
	"github.com/matiasleandrokruk/toolhost/internal/infra/sqlite"
	"github.com/matiasleandrokruk/toolhost/internal/transport/mcpserver"
	pkgauth "github.com/matiasleandrokruk/toolhost/pkg/auth"
)

const testJWTSecret = "test-secret-key-32-chars-min!!!"

func newTestDeps(t *testing.T) Deps {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := tool.NewToolRegistry()
	require.NoError(t, tool.RegisterBuiltins(registry, tool.BuiltinServices{}))
	registry.Seal()

	return Deps{
		Dispatcher:  tool.NewDispatcher(registry),
		Invocations: audit.NewAuditService(db),
		Logger:      logging.Discard(),
	}
}

func withAuth(t *testing.T, deps Deps) Deps {
	t.Helper()

	hash, err := pkgauth.HashSecret("agent-secret")
	require.NoError(t, err)
	issuer, err := pkgauth.NewIssuer(testJWTSecret, time.Hour)
	require.NoError(t, err)

	deps.Issuer = issuer
	deps.Auth = config.AuthConfig{
		Enabled:   true,
		JWTSecret: testJWTSecret,
		Clients: []config.ClientConfig{
			{ID: "agent", SecretHash: hash, Permissions: []string{"tools:get_info_about"}},
		},
	}
	return deps
}

func serve(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewRouter_Health(t *testing.T) {
	t.Parallel()

	rr := serve(NewRouter(newTestDeps(t)), http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestNewRouter_OpenAccess(t *testing.T) {
	t.Parallel()

	router := NewRouter(newTestDeps(t))

	rr := serve(router, http.MethodGet, "/api/v1/tools", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), tool.BuiltinGetInfoAbout)

	rr = serve(router, http.MethodPost, "/api/v1/tools/get_info_about/invoke", `{"name":"Ada"}`, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"first_name":"Ada"`)

	rr = serve(router, http.MethodPost, "/auth/token", `{}`, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewRouter_TokenFlow(t *testing.T) {
	t.Parallel()

	router := NewRouter(withAuth(t, newTestDeps(t)))

	rr := serve(router, http.MethodGet, "/api/v1/tools", "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(router, http.MethodPost, "/auth/token", `{"client_id":"agent","client_secret":"agent-secret"}`, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.Token)

	rr = serve(router, http.MethodGet, "/api/v1/tools", "", tok.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(router, http.MethodPost, "/api/v1/invoke", `{"tool":"get_info_about","arguments":{"name":"Ada"}}`, tok.Token)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestNewRouter_PermissionDenied(t *testing.T) {
	t.Parallel()

	deps := withAuth(t, newTestDeps(t))
	token, err := deps.Issuer.Generate("reader", []string{"tools:get_all_companies"})
	require.NoError(t, err)

	rr := serve(NewRouter(deps), http.MethodPost, "/api/v1/tools/get_info_about/invoke", `{"name":"Ada"}`, token)
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), string(tool.KindPermissionDenied))
}

func TestNewRouter_MCPMountedBehindAuth(t *testing.T) {
	t.Parallel()

	deps := withAuth(t, newTestDeps(t))
	deps.MCP = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(deps)

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/mcp", `{}`, "").Code)

	token, err := deps.Issuer.Generate("agent", []string{pkgauth.PermissionAll})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, serve(router, http.MethodPost, "/mcp", `{}`, token).Code)
}

func TestNewRouter_Invocations(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t)
	store := deps.Invocations.(*audit.AuditService)
	require.NoError(t, store.Record(context.Background(), &audit.InvocationRecord{
		Tool:      tool.BuiltinGetInfoAbout,
		Transport: audit.TransportREST,
		Outcome:   audit.OutcomeSuccess,
	}))

	rr := serve(NewRouter(deps), http.MethodGet, "/api/v1/invocations?tool=get_info_about", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Data []audit.InvocationRecord `json:"data"`
		Meta map[string]int           `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.Meta["total"])
}

// newAuditedDeps wires the dispatcher to the audit store through the event
// bus. flush stops the recorder after it has written every published record.
func newAuditedDeps(t *testing.T) (deps Deps, flush func()) {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := tool.NewToolRegistry()
	require.NoError(t, tool.RegisterBuiltins(registry, tool.BuiltinServices{}))
	registry.Seal()

	bus := eventbus.New()
	store := audit.NewAuditService(db)
	recorder := audit.NewRecorder(store, bus, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		recorder.Run(ctx)
	}()
	var once sync.Once
	flush = func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	t.Cleanup(flush)

	return Deps{
		Dispatcher:  tool.NewDispatcher(registry, tool.WithObserver(audit.NewPublisher(bus))),
		Invocations: store,
		Logger:      logging.Discard(),
	}, flush
}

func TestNewRouter_PermissionDenialIsAudited(t *testing.T) {
	t.Parallel()

	deps, flush := newAuditedDeps(t)
	deps = withAuth(t, deps)
	router := NewRouter(deps)

	token, err := deps.Issuer.Generate("reader", []string{"tools:get_all_companies"})
	require.NoError(t, err)
	rr := serve(router, http.MethodPost, "/api/v1/tools/get_info_about/invoke", `{"name":"Ada"}`, token)
	require.Equal(t, http.StatusForbidden, rr.Code)
	flush()

	rr = serve(router, http.MethodGet, "/api/v1/invocations?outcome=error", "", token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Data []audit.InvocationRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, tool.BuiltinGetInfoAbout, resp.Data[0].Tool)
	assert.Equal(t, string(tool.KindPermissionDenied), resp.Data[0].ErrorKind)
	assert.Equal(t, "reader", resp.Data[0].Caller)
	assert.Equal(t, audit.TransportREST, resp.Data[0].Transport)
}

// bearerRoundTripper adds a bearer token to every request.
type bearerRoundTripper struct {
	token string
}

func (b bearerRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(r)
}

func connectMCP(t *testing.T, url, token string) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{
		Endpoint:   url + "/mcp",
		HTTPClient: &http.Client{Transport: bearerRoundTripper{token: token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestNewRouter_MCPChecksToolPermissions(t *testing.T) {
	t.Parallel()

	deps, flush := newAuditedDeps(t)
	deps = withAuth(t, deps)
	deps.MCP = mcpserver.New(deps.Dispatcher, mcpserver.Options{
		Version: "test",
		Tokens:  deps.Issuer,
		Logger:  logging.Discard(),
	}).HTTPHandler()
	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)

	reader, err := deps.Issuer.Generate("reader", []string{"tools:get_all_companies"})
	require.NoError(t, err)
	admin, err := deps.Issuer.Generate("admin", []string{pkgauth.PermissionAll})
	require.NoError(t, err)

	call := &mcp.CallToolParams{Name: tool.BuiltinGetInfoAbout, Arguments: map[string]any{"name": "Ada"}}

	res, err := connectMCP(t, srv.URL, reader).CallTool(context.Background(), call)
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"kind":"permission_denied"`)

	res, err = connectMCP(t, srv.URL, admin).CallTool(context.Background(), call)
	require.NoError(t, err)
	assert.False(t, res.IsError)

	flush()
	records, total, err := deps.Invocations.List(context.Background(), audit.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	callers := map[string]audit.Outcome{}
	for _, rec := range records {
		assert.Equal(t, audit.TransportMCP, rec.Transport)
		callers[rec.Caller] = rec.Outcome
	}
	assert.Equal(t, map[string]audit.Outcome{"reader": audit.OutcomeError, "admin": audit.OutcomeSuccess}, callers)
}
