package relationship

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Character is a named member of the story's cast.
type Character struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Title       string   `yaml:"title"`
	Portrait    string   `yaml:"portrait"`
	Personality []string `yaml:"personality"`
	Romanceable bool     `yaml:"romanceable"`
}

// Validate checks that the character has an id and a name.
func (c *Character) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("cast member: id must not be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("cast member %q: name must not be empty", c.ID)
	}
	return nil
}

// Cast indexes characters by id.
type Cast map[string]*Character

// IDs returns the character ids in sorted order.
func (c Cast) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Name returns the display name for id, or id itself when it is not in the cast.
func (c Cast) Name(id string) string {
	if ch, ok := c[id]; ok {
		return ch.Name
	}
	return id
}

// LoadCast reads every *.yaml file in dir. Each file holds one character or a
// list of characters.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the cast, or an error on the first parse, validation,
// or duplicate-id failure.
func LoadCast(dir string) (Cast, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading cast dir %q: %w", dir, err)
	}
	cast := Cast{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		chars, err := parseCast(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		for _, ch := range chars {
			if _, dup := cast[ch.ID]; dup {
				return nil, fmt.Errorf("loading %q: duplicate cast member %q", path, ch.ID)
			}
			cast[ch.ID] = ch
		}
	}
	return cast, nil
}

func parseCast(data []byte) ([]*Character, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing cast YAML: %w", err)
	}
	var chars []*Character
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Decode(&chars); err != nil {
			return nil, fmt.Errorf("parsing cast YAML: %w", err)
		}
	} else {
		var ch Character
		if err := node.Decode(&ch); err != nil {
			return nil, fmt.Errorf("parsing cast YAML: %w", err)
		}
		chars = append(chars, &ch)
	}
	for _, ch := range chars {
		if err := ch.Validate(); err != nil {
			return nil, err
		}
	}
	return chars, nil
}
