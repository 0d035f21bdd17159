// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"fmt"

	"cycle/connectors/base"
)

// ConfigValidator validates connector configuration
type ConfigValidator interface {
	// Validate checks if the configuration is valid
	Validate(config *base.ConnectorConfig) error
}

// DefaultConfigValidator checks required fields and fills optional ones.
type DefaultConfigValidator struct {
	required []string
	optional map[string]interface{}
}

// NewDefaultConfigValidator creates a new default config validator.
// "connection_url" in required refers to ConnectorConfig.ConnectionURL;
// any other name must be present in Options or Credentials.
func NewDefaultConfigValidator(required []string, optional map[string]interface{}) *DefaultConfigValidator {
	if optional == nil {
		optional = make(map[string]interface{})
	}
	return &DefaultConfigValidator{
		required: required,
		optional: optional,
	}
}

// Validate checks required fields are present
func (v *DefaultConfigValidator) Validate(config *base.ConnectorConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	for _, field := range v.required {
		if field == "connection_url" {
			if config.ConnectionURL == "" {
				return fmt.Errorf("connector %q: connection_url is required", config.ID)
			}
			continue
		}
		if _, ok := config.Options[field]; ok {
			continue
		}
		if _, ok := config.Credentials[field]; ok {
			continue
		}
		return fmt.Errorf("connector %q: required field '%s' is missing", config.ID, field)
	}

	return nil
}

// ApplyDefaults applies default values from the optional fields to config
func (v *DefaultConfigValidator) ApplyDefaults(config *base.ConnectorConfig) {
	if config.Options == nil {
		config.Options = make(map[string]interface{})
	}
	for field, defaultValue := range v.optional {
		if _, exists := config.Options[field]; !exists {
			config.Options[field] = defaultValue
		}
	}
}

// Prepare validates cfg and returns a copy with defaults applied.
func (v *DefaultConfigValidator) Prepare(cfg *base.ConnectorConfig) (*base.ConnectorConfig, error) {
	if err := v.Validate(cfg); err != nil {
		return nil, err
	}
	out := cfg.Clone()
	v.ApplyDefaults(out)
	return out, nil
}
