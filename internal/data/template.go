package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tier is the closed power classification driving stat scaling. Plain-text
// tier strings from YAML are validated into this enum at load time and
// never cross the core boundary as strings.
type Tier int

const (
	TierBasic Tier = iota
	TierElite
	TierBoss
)

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierElite:
		return "elite"
	case TierBoss:
		return "boss"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier validates a tier tag from config data.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "basic":
		return TierBasic, nil
	case "elite":
		return TierElite, nil
	case "boss":
		return TierBoss, nil
	}
	return TierBasic, configErrorf("unknown tier %q", s)
}

// Stats holds the combat-relevant base stats of a template, and the scaled
// stats of a live entity.
type Stats struct {
	Health float64 `yaml:"health"`
	Speed  float64 `yaml:"speed"`
	Damage float64 `yaml:"damage"`
}

// EnemyTemplate holds static data for one enemy type. Immutable once
// loaded. Gfx is an opaque visual hint passed through to presentation.
type EnemyTemplate struct {
	ID          string   `yaml:"id"`
	TierTag     string   `yaml:"tier"`
	Stats       Stats    `yaml:"stats"`
	SpawnWeight float64  `yaml:"spawn_weight"`
	Tags        []string `yaml:"tags"`
	Gfx         string   `yaml:"gfx"`

	Tier Tier `yaml:"-"` // parsed from TierTag at load
}

// HasTag reports whether the template carries the given tag.
func (t *EnemyTemplate) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

type templateListFile struct {
	Templates []EnemyTemplate `yaml:"templates"`
}

// TemplateTable holds all enemy templates indexed by ID.
type TemplateTable struct {
	templates map[string]*EnemyTemplate
	order     []string // load order, for stable iteration
}

// LoadTemplateTable loads enemy templates from a YAML file and validates
// them. Any failure is a configuration error.
func LoadTemplateTable(path string) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var f templateListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return NewTemplateTable(f.Templates)
}

// NewTemplateTable builds a table from already-decoded templates.
func NewTemplateTable(templates []EnemyTemplate) (*TemplateTable, error) {
	t := &TemplateTable{
		templates: make(map[string]*EnemyTemplate, len(templates)),
		order:     make([]string, 0, len(templates)),
	}
	for i := range templates {
		tmpl := &templates[i]
		if tmpl.ID == "" {
			return nil, configErrorf("template %d: empty id", i)
		}
		if _, dup := t.templates[tmpl.ID]; dup {
			return nil, configErrorf("template %q: duplicate id", tmpl.ID)
		}
		tier, err := ParseTier(tmpl.TierTag)
		if err != nil {
			return nil, configErrorf("template %q: %v", tmpl.ID, err)
		}
		tmpl.Tier = tier
		if tmpl.Stats.Health <= 0 {
			return nil, configErrorf("template %q: health must be positive", tmpl.ID)
		}
		if tmpl.SpawnWeight < 0 {
			return nil, configErrorf("template %q: negative spawn weight", tmpl.ID)
		}
		if tmpl.SpawnWeight == 0 {
			tmpl.SpawnWeight = 1.0
		}
		t.templates[tmpl.ID] = tmpl
		t.order = append(t.order, tmpl.ID)
	}
	return t, nil
}

// Get returns a template by ID, or nil if not found.
func (t *TemplateTable) Get(id string) *EnemyTemplate {
	return t.templates[id]
}

// IDs returns all template IDs in load order.
func (t *TemplateTable) IDs() []string {
	return t.order
}

// Count returns the number of loaded templates.
func (t *TemplateTable) Count() int {
	return len(t.templates)
}
