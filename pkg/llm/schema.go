package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema is a provider-neutral subset of JSON schema used for structured output.
type Schema struct {
	Type        SchemaType         `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int64             `json:"minItems,omitempty"`
	MaxItems    *int64             `json:"maxItems,omitempty"`
}

// ArrayOf builds an array schema with optional bounds (0 means unbounded).
func ArrayOf(items *Schema, min, max int64) *Schema {
	s := &Schema{Type: TypeArray, Items: items}
	if min > 0 {
		s.MinItems = &min
	}
	if max > 0 {
		s.MaxItems = &max
	}
	return s
}

var compiled sync.Map // schema JSON -> *jsonschema.Schema

// compile turns s into a validator. Compiled schemas are reused across calls.
func compile(s *Schema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	if v, ok := compiled.Load(string(raw)); ok {
		return v.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("structured.json", doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	sch, err := c.Compile("structured.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiled.Store(string(raw), sch)
	return sch, nil
}

// DecodeStructured parses raw model output, validates it against schema and decodes it into out.
func DecodeStructured(raw string, schema *Schema, out any) error {
	raw = stripCodeFence(raw)
	if raw == "" {
		return ErrEmptyReply
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("structured output is not valid JSON: %w", err)
	}
	if schema != nil {
		sch, err := compile(schema)
		if err != nil {
			return err
		}
		if err := sch.Validate(doc); err != nil {
			return fmt.Errorf("schema violation: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite instructions.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimPrefix(raw, "json")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
