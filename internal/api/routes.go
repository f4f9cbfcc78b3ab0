// Package api assembles the REST router: public health and token routes,
// bearer-protected tool routes under /api/v1 and the MCP endpoint.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/toolhost/internal/api/handlers"
	apimiddleware "github.com/matiasleandrokruk/toolhost/internal/api/middleware"
	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
	"github.com/matiasleandrokruk/toolhost/internal/infra/config"
	pkgauth "github.com/matiasleandrokruk/toolhost/pkg/auth"
)

type invocationLister interface {
	List(ctx context.Context, filter audit.ListFilter) ([]*audit.InvocationRecord, int, error)
}

// Deps are the collaborators NewRouter wires into handlers.
type Deps struct {
	Dispatcher  *tool.Dispatcher
	Invocations invocationLister
	// Issuer is required when Auth.Enabled is set.
	Issuer *pkgauth.Issuer
	Auth   config.AuthConfig
	// MCP is mounted at /mcp when non-nil.
	MCP    http.Handler
	Logger *slog.Logger
}

// configClients looks up API clients in the loaded auth config.
type configClients config.AuthConfig

func (c configClients) LookupClient(id string) (handlers.Client, bool) {
	cc, ok := config.AuthConfig(c).Client(id)
	if !ok {
		return handlers.Client{}, false
	}
	return handlers.Client{ID: cc.ID, SecretHash: cc.SecretHash, Permissions: cc.Permissions}, true
}

// NewRouter creates the chi router with every route registered.
func NewRouter(deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authEnabled := deps.Auth.Enabled && deps.Issuer != nil

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	if authEnabled {
		authHandler := handlers.NewAuthHandler(configClients(deps.Auth), deps.Issuer)
		r.Post("/auth/token", authHandler.Token)
	}

	protect := func(r chi.Router) {
		if authEnabled {
			r.Use(apimiddleware.Auth(deps.Issuer))
		}
	}

	toolHandler := handlers.NewToolHandler(deps.Dispatcher, authEnabled)
	r.Route("/api/v1", func(r chi.Router) {
		protect(r)

		r.Get("/tools", toolHandler.ListTools)
		r.Post("/tools/{name}/invoke", toolHandler.InvokeTool)
		r.Post("/invoke", toolHandler.Invoke)

		if deps.Invocations != nil {
			invocationHandler := handlers.NewInvocationHandler(deps.Invocations)
			r.Get("/invocations", invocationHandler.ListInvocations)
		}
	})

	if deps.MCP != nil {
		r.Group(func(r chi.Router) {
			protect(r)
			r.Handle("/mcp", deps.MCP)
			r.Handle("/mcp/*", deps.MCP)
		})
	}

	return r
}
