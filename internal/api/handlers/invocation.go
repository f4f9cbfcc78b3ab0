package handlers

import (
	"context"
	"net/http"

	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
)

type invocationLister interface {
	List(ctx context.Context, filter audit.ListFilter) ([]*audit.InvocationRecord, int, error)
}

// InvocationHandler serves the invocation log.
type InvocationHandler struct {
	records invocationLister
}

func NewInvocationHandler(records invocationLister) *InvocationHandler {
	return &InvocationHandler{records: records}
}

// ListInvocations handles GET /api/v1/invocations?tool=&outcome=&limit=&offset=.
func (h *InvocationHandler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	page := parsePaginationParams(r)
	filter := audit.ListFilter{
		Tool:   r.URL.Query().Get("tool"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	switch outcome := audit.Outcome(r.URL.Query().Get("outcome")); outcome {
	case "", audit.OutcomeSuccess, audit.OutcomeError:
		filter.Outcome = outcome
	default:
		writeError(w, http.StatusBadRequest, "outcome must be success or error")
		return
	}

	records, total, err := h.records.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invocations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": records,
		"meta": map[string]int{"total": total, "limit": page.Limit, "offset": page.Offset},
	})
}
