package machine

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefinitionSet is a collection of machine definitions loaded from config.
type DefinitionSet struct {
	Version  int            `json:"version,omitempty" yaml:"version,omitempty"`
	Machines []Definition   `json:"machines" yaml:"machines"`
	Meta     map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Validate performs structural validation of every machine.
func (s DefinitionSet) Validate() error {
	seen := make(map[string]bool, len(s.Machines))
	for idx, def := range s.Machines {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("machine[%d]: %w", idx, err)
		}
		id := normalizeState(def.ID)
		if seen[id] {
			return fmt.Errorf("machine[%d]: duplicate machine id %q", idx, def.ID)
		}
		seen[id] = true
	}
	return nil
}

// ParseDefinitions parses JSON or YAML machine definitions.
func ParseDefinitions(data []byte) (DefinitionSet, error) {
	var set DefinitionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		// yaml can handle JSON too, so a single attempt is fine
		return set, err
	}
	return set, set.Validate()
}
