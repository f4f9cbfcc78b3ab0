package tool

import "github.com/google/jsonschema-go/jsonschema"

// InputSchema renders the descriptor's parameters as a JSON Schema object that
// rejects unknown properties.
func InputSchema(desc Descriptor) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:                 string(TypeObject),
		Description:          desc.Description,
		Properties:           make(map[string]*jsonschema.Schema, len(desc.Params)),
		AdditionalProperties: falseSchema(),
	}
	for _, p := range desc.Params {
		schema.Properties[p.Name] = typeSchema(p.Type, p.Description)
		if !p.Optional {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

// OutputSchema renders the declared return shape as a JSON Schema object.
func OutputSchema(desc Descriptor) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       string(TypeObject),
		Properties: make(map[string]*jsonschema.Schema, len(desc.Returns)),
	}
	for _, f := range desc.Returns {
		schema.Properties[f.Name] = typeSchema(f.Type, f.Description)
		schema.Required = append(schema.Required, f.Name)
	}
	return schema
}

func typeSchema(t Type, description string) *jsonschema.Schema {
	s := &jsonschema.Schema{Description: description}
	if t != TypeAny {
		s.Type = string(t)
	}
	return s
}

func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
