package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/etkecc/baibot/internal/baibot/agent"
)

// capabilitySections is shared by both schemas below.
const capabilitySections = `
	"text_generation": {
		"type": ["object", "null"],
		"properties": {
			"model_id": {"type": "string", "minLength": 1},
			"prompt": {"type": "string"},
			"temperature": {"type": "number", "minimum": 0, "maximum": 2},
			"max_response_tokens": {"type": "integer", "minimum": 0},
			"max_context_tokens": {"type": "integer", "minimum": 0}
		},
		"required": ["model_id"]
	},
	"speech_to_text": {
		"type": ["object", "null"],
		"properties": {
			"model_id": {"type": "string", "minLength": 1}
		},
		"required": ["model_id"]
	},
	"text_to_speech": {
		"type": ["object", "null"],
		"properties": {
			"model_id": {"type": "string", "minLength": 1},
			"voice": {"type": "string"},
			"speed": {"type": "number", "minimum": 0.25, "maximum": 4}
		},
		"required": ["model_id"]
	},
	"image_generation": {
		"type": ["object", "null"],
		"properties": {
			"model_id": {"type": "string", "minLength": 1},
			"size": {"type": "string", "pattern": "^[0-9]+x[0-9]+$"},
			"quality": {"type": "string"}
		},
		"required": ["model_id"]
	}`

const commonSchema = `{
	"type": "object",
	"properties": {
		"base_url": {"type": "string"},
		"api_key": {"type": "string"},` + capabilitySections + `
	},
	"required": ["api_key"],
	"additionalProperties": false
}`

// The permissive family serves arbitrary OpenAI-compatible vendors, so the
// endpoint must be spelled out.
const compatSchema = `{
	"type": "object",
	"properties": {
		"base_url": {"type": "string", "minLength": 1},
		"api_key": {"type": "string"},` + capabilitySections + `
	},
	"required": ["base_url", "api_key"],
	"additionalProperties": false
}`

var familySchemas = map[agent.AdapterFamily]*jsonschema.Schema{
	agent.FamilyStrict:     jsonschema.MustCompileString("baibot://schema/strict.json", commonSchema),
	agent.FamilyAnthropic:  jsonschema.MustCompileString("baibot://schema/anthropic.json", commonSchema),
	agent.FamilyPermissive: jsonschema.MustCompileString("baibot://schema/permissive.json", compatSchema),
}

// ValidateConfigMapping checks a raw configuration mapping against the
// provider family's schema.
func ValidateConfigMapping(provider agent.Provider, mapping map[string]any) error {
	schema, ok := familySchemas[provider.Family()]
	if !ok {
		return fmt.Errorf("no schema for provider %q", provider)
	}

	// The schema library validates values produced by encoding/json, so
	// round-trip the YAML-decoded mapping through JSON first.
	raw, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("serialize config for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("reload config for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("configuration fails validation: %w", err)
	}
	return nil
}
