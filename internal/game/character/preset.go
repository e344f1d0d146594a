package character

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPreset reads a player preset from a YAML file and builds the player.
//
// Precondition: path names a readable YAML file whose fields match Params.
// Postcondition: Returns a built Player or a non-nil error.
func LoadPreset(path string) (*Player, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadPreset: cannot read file %q: %w", path, err)
	}
	var params Params
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("LoadPreset: cannot parse file %q: %w", path, err)
	}
	p, err := Build(params)
	if err != nil {
		return nil, fmt.Errorf("LoadPreset: %q: %w", path, err)
	}
	return p, nil
}
