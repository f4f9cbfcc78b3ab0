package tool

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Validator is implemented by request types with checks beyond the schema.
type Validator interface {
	Validate() error
}

// TypedFunc is a tool body with typed request and response.
type TypedFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Typed adapts a TypedFunc to Implementation. Arguments are decoded into Req
// and Resp is flattened back into a payload, both through json tags.
type Typed[Req, Resp any] struct {
	fn TypedFunc[Req, Resp]
}

func NewTyped[Req, Resp any](fn TypedFunc[Req, Resp]) *Typed[Req, Resp] {
	return &Typed[Req, Resp]{fn: fn}
}

func (t *Typed[Req, Resp]) Invoke(ctx context.Context, args Arguments) (map[string]any, error) {
	var req Req
	if err := decodeInto(map[string]any(args), &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	resp, err := t.fn(ctx, req)
	if err != nil {
		return nil, err
	}
	return EncodePayload(resp)
}

// EncodePayload flattens a struct (or pointer to struct) into a payload map
// keyed by json tag names. Maps are returned as-is.
func EncodePayload(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	out := map[string]any{}
	if err := decodeInto(v, &out); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}

func decodeInto(input, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  result,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
