package snippet

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// metadataSchema constrains the fenced ```metadata JSON block. Every
// known key is a string; unknown keys are allowed but must be scalar so
// they can be folded into the Metadata map.
const metadataSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "expand": {"type": "string"},
    "keyword": {"type": "string"},
    "description": {"type": "string"},
    "shortcut": {"type": "string"},
    "tool": {"type": "string"}
  },
  "additionalProperties": {
    "type": ["string", "number", "boolean"]
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compileMetadataSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("metadata.schema.json", strings.NewReader(metadataSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("metadata.schema.json")
	})
	return compiledSchema, schemaErr
}

// parseMetadataBlock validates and decodes a ```metadata JSON block
// into string key/value pairs.
func parseMetadataBlock(raw string) (map[string]string, error) {
	var instance any
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return nil, fmt.Errorf("metadata block is not valid JSON: %w", err)
	}

	schema, err := compileMetadataSchema()
	if err != nil {
		return nil, fmt.Errorf("compile metadata schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("metadata block rejected by schema: %w", err)
	}

	obj, ok := instance.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("metadata block must be a JSON object")
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = fmt.Sprintf("%t", val)
		case float64:
			out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
		}
	}
	return out, nil
}
