package domain

import (
	"fmt"
	"time"
)

// Business rules over Config live here so adapters only move bytes around.

// GetDefaultModel retrieves the default model definition from configuration.
// Returns an error if the default model is not found.
func (c *Config) GetDefaultModel() (ModelDefinition, error) {
	if c.Preferences.DefaultModel == "" {
		return ModelDefinition{}, fmt.Errorf("no default model configured")
	}

	for _, model := range c.Models {
		if model.Name == c.Preferences.DefaultModel {
			return model, nil
		}
	}

	return ModelDefinition{}, fmt.Errorf("default model %s not found in configuration", c.Preferences.DefaultModel)
}

// FindModelByName searches for a model by its tier name or model id.
func (c *Config) FindModelByName(name string) (ModelDefinition, bool) {
	for _, model := range c.Models {
		if model.Name == name {
			return model, true
		}
	}
	for _, model := range c.Models {
		if model.ModelID == name {
			return model, true
		}
	}
	return ModelDefinition{}, false
}

// ResolveModel picks the model for name, falling back to the default and then the first model.
func (c *Config) ResolveModel(name string) (ModelDefinition, error) {
	if name != "" {
		if model, ok := c.FindModelByName(name); ok {
			return model, nil
		}
		return ModelDefinition{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	if model, err := c.GetDefaultModel(); err == nil {
		return model, nil
	}
	if len(c.Models) > 0 {
		return c.Models[0], nil
	}
	return ModelDefinition{}, fmt.Errorf("%w: no models configured", ErrUnknownModel)
}

// HasModel checks if a model with the given name exists in the configuration.
func (c *Config) HasModel(name string) bool {
	_, exists := c.FindModelByName(name)
	return exists
}

// ModelNames returns the configured tier names in declaration order.
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.Models))
	for _, model := range c.Models {
		names = append(names, model.Name)
	}
	return names
}

// AddModel adds a new model to the configuration.
// Returns an error if a model with the same name already exists.
func (c *Config) AddModel(model ModelDefinition) error {
	if c.HasModel(model.Name) {
		return fmt.Errorf("model with name %s already exists", model.Name)
	}

	c.Models = append(c.Models, model)
	return nil
}

// RemoveModel removes a model from the configuration by name.
// The default model moves to the first remaining model when it is removed.
func (c *Config) RemoveModel(name string) error {
	indexToRemove := -1
	for i, model := range c.Models {
		if model.Name == name {
			indexToRemove = i
			break
		}
	}

	if indexToRemove == -1 {
		return fmt.Errorf("model %s not found", name)
	}

	c.Models = append(c.Models[:indexToRemove], c.Models[indexToRemove+1:]...)

	if c.Preferences.DefaultModel == name {
		if len(c.Models) > 0 {
			c.Preferences.DefaultModel = c.Models[0].Name
		} else {
			c.Preferences.DefaultModel = ""
		}
	}

	return nil
}

// SetDefaultModel changes the default model to the specified name.
func (c *Config) SetDefaultModel(name string) error {
	model, ok := c.FindModelByName(name)
	if !ok {
		return fmt.Errorf("cannot set default model: model %s does not exist", name)
	}

	c.Preferences.DefaultModel = model.Name
	return nil
}

// GetOutputStyle returns the configured style, defaulting to paragraphs.
func (c *Config) GetOutputStyle() OutputStyle {
	if c.Preferences.OutputStyle == "" {
		return StyleParagraph
	}
	return c.Preferences.OutputStyle
}

// GetHistoryCapacity returns how many records each session ledger keeps.
func (c *Config) GetHistoryCapacity() int {
	if c.Preferences.HistoryCapacity <= 0 {
		return DefaultHistoryCapacity
	}
	return c.Preferences.HistoryCapacity
}

// GetMaxFields returns the per-session field limit.
func (c *Config) GetMaxFields() int {
	if c.Preferences.MaxFields <= 0 {
		return DefaultMaxFields
	}
	return c.Preferences.MaxFields
}

// GetTimeout returns the provider call timeout.
func (c *Config) GetTimeout() time.Duration {
	if c.Preferences.TimeoutSeconds <= 0 {
		return DefaultProviderTimeout
	}
	return time.Duration(c.Preferences.TimeoutSeconds) * time.Second
}

// GetMaxDocumentBytes returns the upload size cap.
func (c *Config) GetMaxDocumentBytes() int64 {
	if c.Documents.MaxBytes <= 0 {
		return DefaultMaxDocumentBytes
	}
	return c.Documents.MaxBytes
}

// GetSessionTTL parses server.session_ttl, falling back to DefaultSessionTTL.
func (c *Config) GetSessionTTL() time.Duration {
	if c.Server.SessionTTL == "" {
		return DefaultSessionTTL
	}
	ttl, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || ttl <= 0 {
		return DefaultSessionTTL
	}
	return ttl
}

// ValidateConsistency checks the internal consistency of the configuration.
func (c *Config) ValidateConsistency() error {
	if c.Preferences.DefaultModel != "" && len(c.Models) == 0 {
		return fmt.Errorf("default model is set but no models are configured")
	}

	if c.Preferences.DefaultModel != "" && !c.HasModel(c.Preferences.DefaultModel) {
		return fmt.Errorf("default model %s does not exist in models list", c.Preferences.DefaultModel)
	}

	return nil
}
