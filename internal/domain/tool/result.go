package tool

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InvocationRequest is one incoming call: a tool name and its raw arguments.
type InvocationRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// DecodeInvocationRequest parses a JSON envelope {"tool": ..., "arguments": {...}}.
// Numbers are kept as json.Number so integer arguments survive decoding exactly.
func DecodeInvocationRequest(data []byte) (InvocationRequest, error) {
	var req InvocationRequest
	if err := decodeJSONObject(data, &req); err != nil {
		return InvocationRequest{}, &Error{Kind: KindArgumentValidation, Message: fmt.Sprintf("invalid request body: %v", err)}
	}
	return req, nil
}

// DecodeArguments parses a JSON object of arguments. Empty input means no arguments.
func DecodeArguments(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := decodeJSONObject(data, &args); err != nil {
		return nil, &Error{Kind: KindArgumentValidation, Message: "arguments must be a json object"}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ErrorPayload is the structured error returned to callers.
type ErrorPayload struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// InvocationResult is either a success payload or an error descriptor.
type InvocationResult struct {
	OK     bool           `json:"ok"`
	Tool   string         `json:"tool"`
	Result map[string]any `json:"result,omitempty"`
	Error  *ErrorPayload  `json:"error,omitempty"`
}

// Err returns the result's failure as an error, or nil on success.
func (r InvocationResult) Err() error {
	if r.OK || r.Error == nil {
		return nil
	}
	return &Error{Kind: r.Error.Kind, Tool: r.Tool, Field: r.Error.Field, Message: r.Error.Message}
}

// MarshalJSON always carries "result" on success, even for tools that
// declare no return fields.
func (r InvocationResult) MarshalJSON() ([]byte, error) {
	type envelope InvocationResult
	if !r.OK {
		return json.Marshal(envelope(r))
	}
	payload := r.Result
	if payload == nil {
		payload = map[string]any{}
	}
	return json.Marshal(struct {
		OK     bool           `json:"ok"`
		Tool   string         `json:"tool"`
		Result map[string]any `json:"result"`
	}{OK: true, Tool: r.Tool, Result: payload})
}

// Success builds a successful result.
func Success(toolName string, payload map[string]any) InvocationResult {
	return InvocationResult{OK: true, Tool: toolName, Result: payload}
}

// Failure converts err into a structured result. Foreign errors map to KindInternal.
func Failure(toolName string, err error) InvocationResult {
	payload := &ErrorPayload{Kind: KindInternal, Message: err.Error()}
	var te *Error
	if errors.As(err, &te) {
		payload.Kind = te.Kind
		payload.Field = te.Field
		payload.Message = te.Message
		if payload.Message == "" {
			payload.Message = te.Error()
		}
	}
	return InvocationResult{OK: false, Tool: toolName, Error: payload}
}

// JSON renders the result's payload: the success object or the error object.
func (r InvocationResult) JSON() []byte {
	var body any = r.Result
	switch {
	case !r.OK:
		body = r.Error
	case r.Result == nil:
		body = map[string]any{}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		raw, _ = json.Marshal(ErrorPayload{Kind: KindInternal, Message: err.Error()})
	}
	return raw
}
