package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model output crosses a trust boundary; every completion is schema
// validated before anything downstream touches it.

const headerListSchema = `{
	"type": "object",
	"properties": {
		"headers": {
			"type": "array",
			"items": {"type": "string"}
		}
	},
	"required": ["headers"]
}`

const castBatchSchema = `{
	"type": "object",
	"properties": {
		"rows": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"values": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"original_value": {"type": "string"},
								"processed_value": {},
								"value_type": {"type": "string", "enum": ["currency", "percentage", "date", "number", "boolean", "text"]},
								"confidence": {"type": "number", "minimum": 0, "maximum": 1},
								"conversion_note": {"type": "string"}
							},
							"required": ["original_value", "processed_value", "value_type", "confidence"]
						}
					}
				},
				"required": ["values"]
			}
		}
	},
	"required": ["rows"]
}`

const fieldMappingSchema = `{
	"type": "object",
	"properties": {
		"mappings": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"original_header": {"type": "string"},
					"subsidy_field": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"value_type": {"type": "string", "enum": ["currency", "percentage", "date", "number", "boolean", "text"]}
				},
				"required": ["original_header", "subsidy_field", "confidence"]
			}
		}
	},
	"required": ["mappings"]
}`

var (
	compiledHeaderList   = mustCompile("headers.json", headerListSchema)
	compiledCastBatch    = mustCompile("cast.json", castBatchSchema)
	compiledFieldMapping = mustCompile("mapping.json", fieldMappingSchema)
)

func mustCompile(name, schemaJSON string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(schemaJSON))); err != nil {
		panic(fmt.Sprintf("ai: add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("ai: compile schema %s: %v", name, err))
	}
	return schema
}

func validateAgainst(schema *jsonschema.Schema, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model output does not match schema: %w", err)
	}
	return nil
}
