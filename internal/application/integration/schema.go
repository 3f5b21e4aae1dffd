package integration

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

const schemaBaseURL = "https://schemas.commerce-sync.local/"

const envelopeSchemaDoc = `{
	"type": "object",
	"required": ["data"],
	"properties": {
		"id": {"type": "string"},
		"type": {"type": "string"},
		"source": {"type": "string"},
		"data": {
			"type": "object",
			"required": ["value"],
			"properties": {
				"value": {"type": "object"},
				"_metadata": {"type": "object"}
			}
		}
	}
}`

// payloadSchemaDocs constrain the shape of values the pipelines index into.
// Presence is checked separately so that missing inputs are reported by name.
var payloadSchemaDocs = map[integration.Entity]string{
	integration.EntityCustomer: `{
		"type": "object",
		"properties": {
			"email": {"type": "string"},
			"lists": {"type": "array"},
			"extension_attributes": {"type": ["object", "null"]}
		}
	}`,
	integration.EntityOrder: `{
		"type": "object",
		"properties": {
			"customer_email": {"type": "string"},
			"increment_id": {"type": ["string", "number"]},
			"addresses": {"type": "array", "items": {"type": "object"}},
			"payment": {"type": "object"}
		}
	}`,
	integration.EntityProduct: `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"sku": {"type": "string"},
			"type_id": {"type": "string"},
			"url_key": {"type": "string"},
			"image": {"type": "string"},
			"stock_data": {"type": "object"},
			"store_ids": {"type": "array", "minItems": 1}
		}
	}`,
	integration.EntitySubscriber: `{
		"type": "object",
		"properties": {
			"subscriber_email": {"type": "string"}
		}
	}`,
}

var (
	envelopeSchema = mustCompile("envelope.json", envelopeSchemaDoc)
	payloadSchemas = compilePayloadSchemas()
)

func mustCompile(name, doc string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := schemaBaseURL + name
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	schema, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return schema
}

func compilePayloadSchemas() map[integration.Entity]*jsonschema.Schema {
	out := make(map[integration.Entity]*jsonschema.Schema, len(payloadSchemaDocs))
	for entity, doc := range payloadSchemaDocs {
		out[entity] = mustCompile(entity.String()+".json", doc)
	}
	return out
}

// ValidatePayload checks the shape of an entity payload.
func ValidatePayload(entity integration.Entity, value integration.Record) error {
	schema, ok := payloadSchemas[entity]
	if !ok {
		return fmt.Errorf("%w: %s", integration.ErrUnknownEntity, entity)
	}
	if err := schema.Validate(plain(value)); err != nil {
		return integration.NewValidationError(fmt.Sprintf("invalid %s payload: %v", entity, err))
	}
	return nil
}

// plain converts records to the map and slice types the validator expects.
func plain(v any) any {
	switch t := v.(type) {
	case integration.Record:
		return plain(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}
