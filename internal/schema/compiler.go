package schema

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"formcraft/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// Compiler turns form definitions into JSON Schemas describing the shape
// of the values each field accepts, and checks submissions against them.
type Compiler struct {
	mu       sync.Mutex
	compiler *js.Compiler
	cache    *expirable.LRU[string, *js.Schema]
}

// NewCompilerWithCache creates a new compiler with cache
func NewCompilerWithCache(maxSize int) *Compiler {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &Compiler{
		compiler: js.NewCompiler(),
		cache:    expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

// FormSchema describes the accepted value shape of every field in form
func FormSchema(form model.Form) map[string]interface{} {
	props := make(map[string]interface{}, len(form.Fields))
	for _, field := range form.Fields {
		props[field.ID] = fieldSchema(field)
	}
	return map[string]interface{}{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": props,
	}
}

func fieldSchema(field model.FormField) map[string]interface{} {
	s := map[string]interface{}{"title": field.Label}
	switch field.Type {
	case model.FieldTypeCheckbox:
		s["type"] = []interface{}{"array", "boolean", "null"}
		s["items"] = map[string]interface{}{"type": "string"}
	case model.FieldTypeNumber:
		s["type"] = []interface{}{"number", "string", "null"}
	default:
		s["type"] = []interface{}{"string", "null"}
	}
	return s
}

func (c *Compiler) key(schema map[string]interface{}) (string, []byte, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum[:]), b, nil
}

// Prepare compiles and caches a schema
func (c *Compiler) Prepare(ctx context.Context, schema map[string]interface{}) error {
	_, err := c.compiled(schema)
	return err
}

func (c *Compiler) compiled(schema map[string]interface{}) (*js.Schema, error) {
	key, schemaBytes, err := c.key(schema)
	if err != nil {
		return nil, err
	}
	if compiled, ok := c.cache.Get(key); ok {
		return compiled, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resourceURL := fmt.Sprintf("mem://schema/%s.json", key[:16])
	if err := c.compiler.AddResource(resourceURL, bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	compiled, err := c.compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	c.cache.Add(key, compiled)
	return compiled, nil
}

// Validate validates a value against a schema
func (c *Compiler) Validate(ctx context.Context, schema map[string]interface{}, value map[string]interface{}) error {
	compiled, err := c.compiled(schema)
	if err != nil {
		return err
	}

	// Round-trip through JSON so the validator sees plain decoded values
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(valueBytes))
	dec.UseNumber()
	var valueRaw interface{}
	if err := dec.Decode(&valueRaw); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	if err := compiled.Validate(valueRaw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidSubmission, err)
	}
	return nil
}

// ValidateShape checks that every submitted value has the shape its
// field type expects, e.g. a list of strings for checkbox fields.
func (c *Compiler) ValidateShape(ctx context.Context, form model.Form, data map[string]model.Value) error {
	value := make(map[string]interface{}, len(data))
	for id, v := range data {
		value[id] = v.Interface()
	}
	return c.Validate(ctx, FormSchema(form), value)
}
