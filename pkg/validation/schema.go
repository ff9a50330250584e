package validation

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// cassetteSchema is the JSON Schema for the cassette file format: a
// top-level array of transactions, each carrying a request (method and
// url required) and a response (statusCode required). Bodies are
// strings after generic decoding, base64 in JSON files and plain or
// !!binary scalars in YAML files.
const cassetteSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "replayd cassette",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["request", "response"],
    "properties": {
      "id": {"type": "string"},
      "recordedAt": {"type": "string"},
      "duration": {"type": ["integer", "string"]},
      "request": {
        "type": "object",
        "required": ["method", "url"],
        "properties": {
          "method": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "headers": {"$ref": "#/$defs/headers"},
          "body": {"type": "string"}
        }
      },
      "response": {
        "type": "object",
        "required": ["statusCode"],
        "properties": {
          "statusCode": {"type": "integer", "minimum": 100, "maximum": 599},
          "status": {"type": "string"},
          "headers": {"$ref": "#/$defs/headers"},
          "body": {"type": "string"}
        }
      }
    }
  },
  "$defs": {
    "headers": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// compiledSchema compiles the cassette schema on first use.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("cassette.schema.json", strings.NewReader(cassetteSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("cassette.schema.json")
	})
	return schema, schemaErr
}
