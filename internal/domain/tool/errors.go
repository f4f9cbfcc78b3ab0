package tool

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTool      = errors.New("tool already registered")
	ErrUnknownTool        = errors.New("tool not registered")
	ErrArgumentValidation = errors.New("tool arguments validation failed")
	ErrImplementation     = errors.New("tool implementation failed")
	ErrReturnShape        = errors.New("tool result does not match declared return shape")
	ErrPermissionDenied   = errors.New("tool permission denied")

	ErrRegistrySealed    = errors.New("tool registry is sealed")
	ErrInvalidDescriptor = errors.New("invalid tool descriptor")
)

// Kind is the machine-readable error code carried in an error payload.
type Kind string

const (
	KindDuplicateTool      Kind = "duplicate_tool"
	KindUnknownTool        Kind = "unknown_tool"
	KindArgumentValidation Kind = "argument_validation"
	KindImplementation     Kind = "implementation_error"
	KindReturnShape        Kind = "return_shape"
	KindPermissionDenied   Kind = "permission_denied"
	KindInternal           Kind = "internal"
)

var kindSentinels = map[Kind]error{
	KindDuplicateTool:      ErrDuplicateTool,
	KindUnknownTool:        ErrUnknownTool,
	KindArgumentValidation: ErrArgumentValidation,
	KindImplementation:     ErrImplementation,
	KindReturnShape:        ErrReturnShape,
	KindPermissionDenied:   ErrPermissionDenied,
}

// Error is the single structured error type produced by the registry and the
// dispatcher. errors.Is matches it against the sentinel of its Kind.
type Error struct {
	Kind    Kind
	Tool    string
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	sentinel := kindSentinels[e.Kind]
	prefix := string(e.Kind)
	if sentinel != nil {
		prefix = sentinel.Error()
	}
	switch {
	case e.Tool != "" && e.Message != "":
		return fmt.Sprintf("%s: %s: %s", prefix, e.Tool, e.Message)
	case e.Tool != "":
		return fmt.Sprintf("%s: %s", prefix, e.Tool)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	default:
		return prefix
	}
}

func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Unwrap returns the failure raised by a tool implementation, if any.
func (e *Error) Unwrap() error { return e.cause }

func duplicateToolError(name string) *Error {
	return &Error{Kind: KindDuplicateTool, Tool: name}
}

func unknownToolError(name string) *Error {
	return &Error{Kind: KindUnknownTool, Tool: name}
}

func argumentError(name, field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindArgumentValidation,
		Tool:    name,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func implementationError(name string, cause error) *Error {
	return &Error{Kind: KindImplementation, Tool: name, Message: cause.Error(), cause: cause}
}

func returnShapeError(name, field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindReturnShape,
		Tool:    name,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf reports the error kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}
