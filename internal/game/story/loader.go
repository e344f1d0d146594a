package story

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlChapter is the YAML representation of a chapter file.
type yamlChapter struct {
	ID            string     `yaml:"id"`
	Title         string     `yaml:"title"`
	Description   string     `yaml:"description"`
	Start         string     `yaml:"start"`
	RequiredFlags []string   `yaml:"required_flags"`
	Nodes         []yamlNode `yaml:"nodes"`
}

// yamlNode is the flat YAML representation of every node variant.
type yamlNode struct {
	ID   string `yaml:"id"`
	Type Kind   `yaml:"type"`
	Next string `yaml:"next"`

	Text    string `yaml:"text"`
	Mood    string `yaml:"mood"`
	Speaker string `yaml:"speaker"`
	Emotion string `yaml:"emotion"`

	Prompt  string       `yaml:"prompt"`
	Options []yamlOption `yaml:"options"`

	Enemy        string `yaml:"enemy"`
	NameOverride string `yaml:"name_override"`
	Boss         bool   `yaml:"boss"`
	Intro        string `yaml:"intro"`
	Win          string `yaml:"win"`
	Lose         string `yaml:"lose"`

	ChapterComplete *bool  `yaml:"chapter_complete"`
	NextChapter     string `yaml:"next_chapter"`
	Summary         string `yaml:"summary"`
}

// yamlOption is the YAML representation of a choice option.
type yamlOption struct {
	ID         string      `yaml:"id"`
	Label      string      `yaml:"label"`
	Next       string      `yaml:"next"`
	Conditions []Condition `yaml:"conditions"`
	Effects    []Effect    `yaml:"effects"`
	Tooltip    string      `yaml:"tooltip"`
}

// LoadChapterFromBytes parses a chapter from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the chapter schema.
// Postcondition: Returns a structurally valid Chapter or a non-nil error.
func LoadChapterFromBytes(data []byte) (*Chapter, error) {
	var yc yamlChapter
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parsing chapter YAML: %w", err)
	}
	spec := ChapterSpec{
		ID:            yc.ID,
		Title:         yc.Title,
		Description:   strings.TrimSpace(yc.Description),
		Start:         yc.Start,
		RequiredFlags: yc.RequiredFlags,
	}
	for i, yn := range yc.Nodes {
		n, err := convertYAMLNode(yn)
		if err != nil {
			return nil, fmt.Errorf("chapter %q: node %d: %w", yc.ID, i, err)
		}
		spec.Nodes = append(spec.Nodes, n)
	}
	return NewChapter(spec)
}

// LoadChapterFromFile reads and parses a single chapter file.
func LoadChapterFromFile(path string) (*Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chapter file %s: %w", path, err)
	}
	return LoadChapterFromBytes(data)
}

// LoadChapters loads every YAML file in dir as a chapter.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all chapters or the first error encountered.
func LoadChapters(dir string) ([]*Chapter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading chapter directory %s: %w", dir, err)
	}
	var chapters []*Chapter
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		c, err := LoadChapterFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading chapter from %s: %w", name, err)
		}
		chapters = append(chapters, c)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no chapter files found in %s", dir)
	}
	return chapters, nil
}

func convertYAMLNode(yn yamlNode) (Node, error) {
	text := strings.TrimSpace(yn.Text)
	switch yn.Type {
	case KindNarration:
		return Narration{ID: yn.ID, Text: text, Mood: yn.Mood, Next: yn.Next}, nil
	case KindDialogue:
		return Dialogue{ID: yn.ID, Speaker: yn.Speaker, Text: text, Emotion: yn.Emotion, Next: yn.Next}, nil
	case KindChoice:
		ch := Choice{ID: yn.ID, Prompt: strings.TrimSpace(yn.Prompt)}
		for _, yo := range yn.Options {
			ch.Options = append(ch.Options, Option{
				ID:         yo.ID,
				Label:      yo.Label,
				Next:       yo.Next,
				Conditions: yo.Conditions,
				Effects:    yo.Effects,
				Tooltip:    yo.Tooltip,
			})
		}
		return ch, nil
	case KindCombat:
		return Combat{
			ID:           yn.ID,
			EnemyType:    yn.Enemy,
			NameOverride: yn.NameOverride,
			Boss:         yn.Boss,
			Intro:        strings.TrimSpace(yn.Intro),
			Win:          yn.Win,
			Lose:         yn.Lose,
		}, nil
	case KindCheckpoint:
		complete := true
		if yn.ChapterComplete != nil {
			complete = *yn.ChapterComplete
		}
		return Checkpoint{
			ID:              yn.ID,
			ChapterComplete: complete,
			NextChapter:     yn.NextChapter,
			Summary:         strings.TrimSpace(yn.Summary),
			Next:            yn.Next,
		}, nil
	default:
		return nil, fmt.Errorf("node %q: unknown type %q", yn.ID, yn.Type)
	}
}
