package agent

import "fmt"

// Definition is the persisted description of an agent: its scope-free name,
// the provider backing it, and the provider-specific configuration mapping.
// Two definitions are considered the same agent when their names match.
type Definition struct {
	ID       string         `yaml:"id" json:"id"`
	Provider Provider       `yaml:"provider" json:"provider"`
	Config   map[string]any `yaml:"config" json:"config"`
}

// Validate checks the definition shape. The provider-specific configuration
// is validated separately against the provider's schema at instantiation.
func (d *Definition) Validate() error {
	if err := ValidateName(d.ID); err != nil {
		return err
	}
	if _, err := ParseProvider(string(d.Provider)); err != nil {
		return err
	}
	if d.Config == nil {
		return fmt.Errorf("agent %q: configuration must be a mapping", d.ID)
	}
	return nil
}
