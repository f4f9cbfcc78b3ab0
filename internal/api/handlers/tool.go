package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/toolhost/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
)

// ToolHandler lists tools and invokes them through the dispatcher.
type ToolHandler struct {
	dispatcher *tool.Dispatcher
	// enforcePermissions checks the token's permissions against each
	// tool's RequiredPermissions.
	enforcePermissions bool
}

func NewToolHandler(dispatcher *tool.Dispatcher, enforcePermissions bool) *ToolHandler {
	return &ToolHandler{dispatcher: dispatcher, enforcePermissions: enforcePermissions}
}

type toolResponse struct {
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	InputSchema         any      `json:"inputSchema"`
	OutputSchema        any      `json:"outputSchema"`
	RequiredPermissions []string `json:"requiredPermissions"`
}

// ListTools handles GET /api/v1/tools.
func (h *ToolHandler) ListTools(w http.ResponseWriter, _ *http.Request) {
	descriptors := h.dispatcher.Registry().Descriptors()
	out := make([]toolResponse, 0, len(descriptors))
	for _, desc := range descriptors {
		perms := desc.RequiredPermissions
		if perms == nil {
			perms = []string{}
		}
		out = append(out, toolResponse{
			Name:                desc.Name,
			Description:         desc.Description,
			InputSchema:         tool.InputSchema(desc),
			OutputSchema:        tool.OutputSchema(desc),
			RequiredPermissions: perms,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "meta": map[string]int{"total": len(out)}})
}

// InvokeTool handles POST /api/v1/tools/{name}/invoke. The body is the
// arguments object; an empty body means no arguments.
func (h *ToolHandler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		h.writeResult(w, tool.Failure(name, &tool.Error{Kind: tool.KindArgumentValidation, Tool: name, Message: "request body too large or unreadable"}))
		return
	}
	args, err := tool.DecodeArguments(body)
	if err != nil {
		h.writeResult(w, tool.Failure(name, err))
		return
	}
	h.dispatch(w, r, tool.InvocationRequest{Tool: name, Arguments: args})
}

// Invoke handles POST /api/v1/invoke with a {"tool", "arguments"} envelope.
func (h *ToolHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		h.writeResult(w, tool.Failure("", &tool.Error{Kind: tool.KindArgumentValidation, Message: "request body too large or unreadable"}))
		return
	}
	req, err := tool.DecodeInvocationRequest(body)
	if err != nil {
		h.writeResult(w, tool.Failure("", err))
		return
	}
	h.dispatch(w, r, req)
}

// dispatch runs req with the caller recorded for audit. With permissions
// enforced, the dispatcher denies tools the token does not grant; denials are
// audited like any other failure.
func (h *ToolHandler) dispatch(w http.ResponseWriter, r *http.Request, req tool.InvocationRequest) {
	ctx := r.Context()
	if h.enforcePermissions {
		granted, _ := ctxkeys.PermissionsFrom(ctx)
		ctx = tool.WithGrantedPermissions(ctx, granted)
	}

	ctx = audit.WithCaller(ctx, audit.Caller{
		ID:        ctxkeys.ClientIDFrom(r.Context()),
		Transport: audit.TransportREST,
	})
	h.writeResult(w, h.dispatcher.Dispatch(ctx, req))
}

func (h *ToolHandler) writeResult(w http.ResponseWriter, res tool.InvocationResult) {
	body, err := json.Marshal(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode result")
		return
	}
	writeRawJSON(w, statusForResult(res), body)
}

// statusForResult maps an invocation outcome to its HTTP status.
func statusForResult(res tool.InvocationResult) int {
	if res.OK {
		return http.StatusOK
	}
	switch res.Error.Kind {
	case tool.KindUnknownTool:
		return http.StatusNotFound
	case tool.KindArgumentValidation:
		return http.StatusBadRequest
	case tool.KindPermissionDenied:
		return http.StatusForbidden
	case tool.KindImplementation, tool.KindReturnShape:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
