package audit

import "time"

// Outcome is the result of an audited invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Transport names the surface an invocation arrived on.
type Transport string

const (
	TransportREST  Transport = "rest"
	TransportMCP   Transport = "mcp"
	TransportStdio Transport = "stdio"
	TransportCLI   Transport = "cli"
)

// InvocationRecord is one row of the invocation log. Records are append-only.
type InvocationRecord struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Caller     string    `json:"caller,omitempty"`
	Transport  Transport `json:"transport,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListFilter narrows List. Zero values mean no filter; Limit defaults to
// DefaultListLimit and is capped at MaxListLimit.
type ListFilter struct {
	Tool    string
	Outcome Outcome
	Limit   int
	Offset  int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
