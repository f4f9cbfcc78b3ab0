// Package mcpserver exposes the tool registry over the Model Context Protocol.
// Every registered tool becomes an MCP tool whose calls go through the
// dispatcher, so validation and error mapping match the REST API.
package mcpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
	pkgauth "github.com/matiasleandrokruk/toolhost/pkg/auth"
)

const DefaultName = "toolhost"

// TokenParser validates a bearer token. *pkgauth.Issuer satisfies it.
type TokenParser interface {
	Parse(token string) (*pkgauth.Claims, error)
}

type Options struct {
	Name    string
	Version string
	// Transport is recorded on every invocation served by this server.
	Transport audit.Transport
	// Tokens enables per-tool permission checks over HTTP: each call is
	// granted the permissions of the request's bearer token. Calls without a
	// valid token are granted nothing.
	Tokens TokenParser
	Logger *slog.Logger
}

type Server struct {
	mcp        *mcp.Server
	dispatcher *tool.Dispatcher
	transport  audit.Transport
	tokens     TokenParser
	logger     *slog.Logger
}

// New builds an MCP server advertising every tool in the dispatcher's registry.
func New(dispatcher *tool.Dispatcher, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Transport == "" {
		opts.Transport = audit.TransportMCP
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		mcp:        mcp.NewServer(&mcp.Implementation{Name: opts.Name, Version: opts.Version}, nil),
		dispatcher: dispatcher,
		transport:  opts.Transport,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
	}
	for _, desc := range dispatcher.Registry().Descriptors() {
		s.mcp.AddTool(&mcp.Tool{
			Name:         desc.Name,
			Description:  desc.Description,
			InputSchema:  tool.InputSchema(desc),
			OutputSchema: tool.OutputSchema(desc),
		}, s.handler(desc.Name))
	}
	return s
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// RunStdio serves a single session over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving mcp over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var res tool.InvocationResult

		args, err := tool.DecodeArguments(req.Params.Arguments)
		if err != nil {
			res = tool.Failure(name, err)
		} else {
			res = s.dispatcher.Dispatch(s.authorize(ctx, req.Extra), tool.InvocationRequest{Tool: name, Arguments: args})
		}

		if !res.OK {
			s.logger.Debug("mcp tool call failed", "tool", name, "kind", res.Error.Kind, "error", res.Error.Message)
		}
		return toCallToolResult(res), nil
	}
}

// authorize attaches the caller and, when tokens are checked, the permissions
// granted by the bearer token in the request headers.
func (s *Server) authorize(ctx context.Context, extra *mcp.RequestExtra) context.Context {
	caller := audit.Caller{Transport: s.transport}
	if s.tokens == nil {
		return audit.WithCaller(ctx, caller)
	}

	var granted []string
	if extra != nil {
		if token := bearerToken(extra.Header); token != "" {
			if claims, err := s.tokens.Parse(token); err == nil {
				caller.ID = claims.ClientID
				granted = claims.Permissions
			} else {
				s.logger.Debug("mcp bearer token rejected", "error", err)
			}
		}
	}
	ctx = tool.WithGrantedPermissions(ctx, granted)
	return audit.WithCaller(ctx, caller)
}

func bearerToken(h http.Header) string {
	const prefix = "Bearer "
	header := h.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// toCallToolResult carries the JSON payload as text content. Successful calls
// also set structured content; failures set IsError.
func toCallToolResult(res tool.InvocationResult) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(res.JSON())}},
	}
	if res.OK {
		out.StructuredContent = res.Result
		if res.Result == nil {
			out.StructuredContent = map[string]any{}
		}
	} else {
		out.IsError = true
	}
	return out
}
