package tool

import (
	"context"
	"slices"
)

// Type is the declared type of a parameter or a result field.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeAny     Type = "any"
)

func (t Type) valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeAny:
		return true
	}
	return false
}

// Param is one entry of a tool's ordered parameter schema.
type Param struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

// Field is one entry of a tool's declared return shape.
type Field struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Description string `json:"description,omitempty"`
}

// Descriptor is the registered signature of a tool, without its implementation.
type Descriptor struct {
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	Params              []Param  `json:"params"`
	Returns             []Field  `json:"returns"`
	RequiredPermissions []string `json:"requiredPermissions,omitempty"`
}

func (d Descriptor) clone() Descriptor {
	d.Params = slices.Clone(d.Params)
	d.Returns = slices.Clone(d.Returns)
	d.RequiredPermissions = slices.Clone(d.RequiredPermissions)
	return d
}

// Param returns the declared parameter called name.
func (d Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Arguments are validated invocation arguments keyed by parameter name.
type Arguments map[string]any

// String returns the string argument called name, or "" when absent.
func (a Arguments) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Implementation is the body of a tool. It receives arguments that already
// match the descriptor's parameter schema.
type Implementation interface {
	Invoke(ctx context.Context, args Arguments) (map[string]any, error)
}

// ImplementationFunc adapts a plain function to Implementation.
type ImplementationFunc func(ctx context.Context, args Arguments) (map[string]any, error)

func (f ImplementationFunc) Invoke(ctx context.Context, args Arguments) (map[string]any, error) {
	return f(ctx, args)
}
