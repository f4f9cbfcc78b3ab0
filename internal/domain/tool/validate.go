package tool

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
)

// validateArguments checks args against the descriptor's parameter schema and
// returns a normalized copy. Parameters are checked in declared order, then
// unknown fields in sorted order; the first offence is reported.
func validateArguments(desc Descriptor, args map[string]any) (Arguments, error) {
	out := make(Arguments, len(args))

	for _, p := range desc.Params {
		v, present := args[p.Name]
		if !present {
			if p.Optional {
				continue
			}
			return nil, argumentError(desc.Name, p.Name, "missing required field %q", p.Name)
		}
		normalized, ok := coerceArgument(p.Type, v)
		if !ok {
			return nil, argumentError(desc.Name, p.Name, "field %q must be %s, got %s", p.Name, p.Type, describeValue(v))
		}
		out[p.Name] = normalized
	}

	if len(out) != len(args) {
		unknown := make([]string, 0, len(args)-len(out))
		for key := range args {
			if _, ok := desc.Param(key); !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		if len(unknown) > 0 {
			return nil, argumentError(desc.Name, unknown[0], "unknown field %q", unknown[0])
		}
	}

	return out, nil
}

// checkReturnShape verifies an implementation's output against the declared
// return shape and returns the coerced payload.
func checkReturnShape(desc Descriptor, payload map[string]any) (map[string]any, error) {
	if payload == nil {
		if len(desc.Returns) == 0 {
			return map[string]any{}, nil
		}
		return nil, returnShapeError(desc.Name, "", "implementation returned no payload")
	}

	out := make(map[string]any, len(payload))
	for _, f := range desc.Returns {
		v, present := payload[f.Name]
		if !present {
			return nil, returnShapeError(desc.Name, f.Name, "missing field %q", f.Name)
		}
		coerced, ok := coerceResult(f.Type, v)
		if !ok {
			return nil, returnShapeError(desc.Name, f.Name, "field %q must be %s, got %s", f.Name, f.Type, describeValue(v))
		}
		out[f.Name] = coerced
	}

	if len(out) != len(payload) {
		extra := make([]string, 0, len(payload)-len(out))
		for key := range payload {
			if _, ok := out[key]; !ok {
				extra = append(extra, key)
			}
		}
		sort.Strings(extra)
		return nil, returnShapeError(desc.Name, extra[0], "undeclared field %q", extra[0])
	}

	return out, nil
}

// coerceArgument normalizes every integer argument to int64 and json.Number
// values to their numeric form.
func coerceArgument(t Type, v any) (any, bool) {
	switch t {
	case TypeInteger:
		return asInt64(v)
	case TypeNumber:
		if n, ok := v.(json.Number); ok {
			f, err := n.Float64()
			return f, err == nil
		}
		return v, isNumeric(v)
	default:
		return v, matches(t, v)
	}
}

// coerceResult only rewrites values that need it: integral floats and
// json.Number for integer fields. Everything else passes through untouched.
func coerceResult(t Type, v any) (any, bool) {
	if t != TypeInteger {
		return v, matches(t, v)
	}
	switch v.(type) {
	case float32, float64, json.Number:
		return asInt64(v)
	}
	return v, isInteger(v)
}

func matches(t Type, v any) bool {
	if t == TypeAny {
		return true
	}
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch t {
	case TypeString:
		// json.Number has string kind but is a JSON number on the wire.
		if _, isNumber := v.(json.Number); isNumber {
			return false
		}
		return rv.Kind() == reflect.String
	case TypeBoolean:
		return rv.Kind() == reflect.Bool
	case TypeInteger:
		return isInteger(v)
	case TypeNumber:
		return isNumeric(v)
	case TypeArray:
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	case TypeObject:
		if rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv = rv.Elem()
		}
		return (rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String) || rv.Kind() == reflect.Struct
	}
	return false
}

func asInt64(v any) (any, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return nil, false
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, false
		}
		return int64(u), true
	}
	return nil, false
}

func floatToInt64(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, false
	}
	return int64(f), true
}

func isInteger(v any) bool {
	_, ok := asInt64(v)
	return ok
}

func isNumeric(v any) bool {
	if _, ok := v.(json.Number); ok {
		return true
	}
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func describeValue(v any) string {
	if v == nil {
		return "null"
	}
	if _, ok := v.(json.Number); ok {
		return "number"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return "object"
	}
	return reflect.TypeOf(v).String()
}
