package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// defaultOptionsSchema constrains the free-form options document of a
// definition. Deployments can replace it through configuration.
const defaultOptionsSchema = `{
	"type": "object",
	"properties": {
		"method": {
			"type": "string",
			"enum": ["GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"]
		},
		"params": {"type": "object"},
		"headers": {"type": "object"},
		"response": {},
		"delay": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": true
}`

// OptionsValidator validates a definition's options against a JSON
// Schema compiled once at construction.
type OptionsValidator struct {
	schema *santhosh.Schema
}

// NewOptionsValidator compiles schemaJSON; an empty document falls back
// to the built-in default schema.
func NewOptionsValidator(schemaJSON []byte) (*OptionsValidator, error) {
	if len(schemaJSON) == 0 {
		schemaJSON = []byte(defaultOptionsSchema)
	}

	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("options.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add options schema: %w", err)
	}
	schema, err := compiler.Compile("options.json")
	if err != nil {
		return nil, fmt.Errorf("compile options schema: %w", err)
	}
	return &OptionsValidator{schema: schema}, nil
}

// Validate checks an options document. Empty options pass; invalid JSON
// is an invalid definition; schema failures return *domain.ErrOptionsViolation.
func (v *OptionsValidator) Validate(options []byte) error {
	if len(options) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(options, &decoded); err != nil {
		return domain.ErrInvalidDefinition
	}

	if err := v.schema.Validate(decoded); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrOptionsViolation{Errors: collectCauses(ve)}
		}
		return &domain.ErrOptionsViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func collectCauses(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectCauses(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
