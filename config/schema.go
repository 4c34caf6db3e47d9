package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/semledger/errors"
)

// configSchema constrains the shape of a configuration document before
// it merges: known sections and keys only, correct scalar types,
// duration fields as Go duration strings or raw nanoseconds. Value
// semantics such as level names or rate bounds are left to Validate.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "semledger run configuration",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "input": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "path": {"type": "string"},
        "delimiter": {"type": "string"},
        "max_rows": {"type": "integer"}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "dir": {"type": "string"},
        "persist": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "sample_size": {"type": "integer"},
            "partition_threshold": {"type": "integer"},
            "max_file_size": {"type": "integer"},
            "partition_size": {"type": "integer"}
          }
        }
      }
    },
    "writer": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "chunk_size": {"type": "integer"},
        "workers": {"type": "integer"},
        "queue_size": {"type": "integer"},
        "buffer_size": {"type": "integer"},
        "max_retries": {"type": "integer"},
        "retry_unit": {"$ref": "#/definitions/duration"},
        "stop_timeout": {"$ref": "#/definitions/duration"}
      }
    },
    "publish": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "url": {"type": "string"},
        "username": {"type": "string"},
        "password": {"type": "string"},
        "token": {"type": "string"},
        "max_reconnects": {"type": "integer"},
        "reconnect_wait": {"$ref": "#/definitions/duration"},
        "stream": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "subject_prefix": {"type": "string"},
            "stream_name": {"type": "string"},
            "max_attempts": {"type": "integer"},
            "retry_delay": {"$ref": "#/definitions/duration"}
          }
        },
        "rate_per_second": {"type": "number"},
        "burst": {"type": "integer"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string"},
        "format": {"type": "string"}
      }
    },
    "mappings": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "agency": {
          "type": "object",
          "propertyNames": {"enum": ["department", "agency", "office"]},
          "additionalProperties": {"$ref": "#/definitions/mappingList"}
        },
        "contract": {"$ref": "#/definitions/mappingList"},
        "recipient": {"$ref": "#/definitions/mappingList"},
        "transaction": {"$ref": "#/definitions/mappingList"}
      }
    }
  },
  "definitions": {
    "duration": {"type": ["string", "integer"]},
    "mappingList": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["source", "target"],
        "properties": {
          "source": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string"}
          },
          "target": {"type": "string"},
          "transforms": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

// validateDocument checks one decoded layer against configSchema and
// folds any violations into a single error naming each offending field.
func validateDocument(raw map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewGoLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.Wrap(err, "Loader", "validateDocument", "run schema")
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.WrapInvalid(errors.ErrInvalidConfig, "Loader", "validateDocument",
		strings.Join(details, "; "))
}
