package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SpawnPool groups templates eligible to spawn together, with per-template
// weights and a cap on concurrently alive members.
type SpawnPool struct {
	ID            string             `yaml:"id"`
	TemplateIDs   []string           `yaml:"templates"`
	Tags          []string           `yaml:"tags"`
	Weights       map[string]float64 `yaml:"weights"`
	MaxConcurrent int                `yaml:"max_concurrent"`

	// Resolved at validation: member template id → selection weight.
	members map[string]float64
}

// Members returns the resolved template id → weight map. Only valid after
// the owning plan has been validated.
func (p *SpawnPool) Members() map[string]float64 { return p.members }

// SpawnPhase is a time window during which a set of pools is eligible.
// Phases may overlap. End <= 0 means the phase never ends.
type SpawnPhase struct {
	Name  string   `yaml:"name"`
	Start float64  `yaml:"start"`
	End   float64  `yaml:"end"`
	Pools []string `yaml:"pools"`
}

// ActiveAt reports whether the phase covers the given elapsed time.
// The window is [start, end).
func (p *SpawnPhase) ActiveAt(elapsed float64) bool {
	if elapsed < p.Start {
		return false
	}
	return p.End <= 0 || elapsed < p.End
}

// ZoneDef describes a named spawn region. Region is an opaque reference to
// an externally-owned area; the core only uses center/radius for position
// jitter.
type ZoneDef struct {
	ID       string  `yaml:"id"`
	Region   string  `yaml:"region"`
	Weight   float64 `yaml:"weight"`
	Cooldown float64 `yaml:"cooldown"` // seconds
	Center   struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

// BossEvent triggers a boss spawn at a fixed time or when a Lua condition
// holds. TriggerTime <= 0 means condition-driven.
type BossEvent struct {
	ID          string  `yaml:"id"`
	TriggerTime float64 `yaml:"trigger_time"`
	Condition   string  `yaml:"condition"` // Lua condition name, see scripts/arena
	Template    string  `yaml:"template"`
	Zone        string  `yaml:"zone"` // optional override; empty = weighted pick
	Cooldown    float64 `yaml:"cooldown"`
	Repeatable  bool    `yaml:"repeatable"`
}

// ScalingStep is one entry of the stepwise time-multiplier ladder.
type ScalingStep struct {
	At   float64 `yaml:"at"`   // threshold in elapsed seconds
	Mult float64 `yaml:"mult"` // multiplier applied from At onward
}

// ScalingConfig holds the stat-scaling tuning for a plan.
type ScalingConfig struct {
	Time  []ScalingStep      `yaml:"time"`
	Tiers map[string]float64 `yaml:"tiers"`

	// Resolved at validation.
	TierMults map[Tier]float64 `yaml:"-"`
}

// SpawnPlan is the full per-arena spawn configuration. Loaded once per
// session; replaced only through a validate-then-swap reload so the
// scheduler never observes a partial update.
type SpawnPlan struct {
	Pools      []SpawnPool   `yaml:"pools"`
	Phases     []SpawnPhase  `yaml:"phases"`
	Zones      []ZoneDef     `yaml:"zones"`
	BossEvents []BossEvent   `yaml:"boss_events"`
	Scaling    ScalingConfig `yaml:"scaling"`

	pools map[string]*SpawnPool
}

// Pool returns a pool by id, or nil. Only valid after validation.
func (p *SpawnPlan) Pool(id string) *SpawnPool { return p.pools[id] }

// LoadSpawnPlan loads and validates a spawn plan from a YAML file.
func LoadSpawnPlan(path string, templates *TemplateTable) (*SpawnPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn plan: %w", err)
	}
	var plan SpawnPlan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("parse spawn plan: %w", err)
	}
	if err := plan.Validate(templates); err != nil {
		return nil, fmt.Errorf("spawn plan %s: %w", path, err)
	}
	return &plan, nil
}

// Validate checks the plan against the template table and resolves pool
// membership, weights and tier multipliers. A plan must validate before
// the scheduler may observe it.
func (p *SpawnPlan) Validate(templates *TemplateTable) error {
	p.pools = make(map[string]*SpawnPool, len(p.Pools))
	for i := range p.Pools {
		pool := &p.Pools[i]
		if pool.ID == "" {
			return configErrorf("pool %d: empty id", i)
		}
		if _, dup := p.pools[pool.ID]; dup {
			return configErrorf("pool %q: duplicate id", pool.ID)
		}
		if pool.MaxConcurrent <= 0 {
			return configErrorf("pool %q: max_concurrent must be positive", pool.ID)
		}
		if err := pool.resolve(templates); err != nil {
			return err
		}
		p.pools[pool.ID] = pool
	}

	if len(p.Phases) == 0 {
		return configErrorf("plan has no phases")
	}
	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.Name == "" {
			ph.Name = fmt.Sprintf("phase_%d", i)
		}
		if ph.End > 0 && ph.End <= ph.Start {
			return configErrorf("phase %q: end %g must exceed start %g", ph.Name, ph.End, ph.Start)
		}
		if len(ph.Pools) == 0 {
			return configErrorf("phase %q: no pools", ph.Name)
		}
		for _, poolID := range ph.Pools {
			if _, ok := p.pools[poolID]; !ok {
				return configErrorf("phase %q: unknown pool %q", ph.Name, poolID)
			}
		}
	}

	if len(p.Zones) == 0 {
		return configErrorf("plan has no zones")
	}
	zoneIDs := make(map[string]bool, len(p.Zones))
	for i := range p.Zones {
		z := &p.Zones[i]
		if z.ID == "" {
			return configErrorf("zone %d: empty id", i)
		}
		if zoneIDs[z.ID] {
			return configErrorf("zone %q: duplicate id", z.ID)
		}
		zoneIDs[z.ID] = true
		if z.Weight <= 0 {
			z.Weight = 1.0
		}
		if z.Cooldown < 0 {
			return configErrorf("zone %q: negative cooldown", z.ID)
		}
	}

	for i := range p.BossEvents {
		ev := &p.BossEvents[i]
		if ev.ID == "" {
			return configErrorf("boss event %d: empty id", i)
		}
		if ev.TriggerTime <= 0 && ev.Condition == "" {
			return configErrorf("boss event %q: needs trigger_time or condition", ev.ID)
		}
		if templates.Get(ev.Template) == nil {
			return configErrorf("boss event %q: unknown template %q", ev.ID, ev.Template)
		}
		if ev.Zone != "" && !zoneIDs[ev.Zone] {
			return configErrorf("boss event %q: unknown zone %q", ev.ID, ev.Zone)
		}
		if ev.Repeatable && ev.Cooldown <= 0 {
			return configErrorf("boss event %q: repeatable events need a cooldown", ev.ID)
		}
	}

	return p.Scaling.resolve()
}

// resolve builds the member → weight map from explicit template ids plus
// tag matches. Explicit weights override template spawn weights.
func (pool *SpawnPool) resolve(templates *TemplateTable) error {
	pool.members = make(map[string]float64)
	for _, id := range pool.TemplateIDs {
		tmpl := templates.Get(id)
		if tmpl == nil {
			return configErrorf("pool %q: unknown template %q", pool.ID, id)
		}
		pool.members[id] = tmpl.SpawnWeight
	}
	for _, tag := range pool.Tags {
		for _, id := range templates.IDs() {
			if tmpl := templates.Get(id); tmpl.HasTag(tag) {
				pool.members[id] = tmpl.SpawnWeight
			}
		}
	}
	for id, w := range pool.Weights {
		if _, ok := pool.members[id]; !ok {
			return configErrorf("pool %q: weight for non-member %q", pool.ID, id)
		}
		if w <= 0 {
			return configErrorf("pool %q: weight for %q must be positive", pool.ID, id)
		}
		pool.members[id] = w
	}
	if len(pool.members) == 0 {
		return configErrorf("pool %q: no member templates", pool.ID)
	}
	return nil
}

func (c *ScalingConfig) resolve() error {
	sort.SliceStable(c.Time, func(i, j int) bool { return c.Time[i].At < c.Time[j].At })
	for _, step := range c.Time {
		if step.At < 0 {
			return configErrorf("scaling: negative time threshold %g", step.At)
		}
		if step.Mult <= 0 {
			return configErrorf("scaling: multiplier at %g must be positive", step.At)
		}
	}
	c.TierMults = make(map[Tier]float64, len(c.Tiers))
	for tag, mult := range c.Tiers {
		tier, err := ParseTier(tag)
		if err != nil {
			return err
		}
		if mult <= 0 {
			return configErrorf("scaling: tier %q multiplier must be positive", tag)
		}
		c.TierMults[tier] = mult
	}
	return nil
}

// DefaultPlan builds the built-in fallback plan: one open-ended phase over
// one pool holding every loaded template, one central zone. Used when the
// configured plan is missing or malformed, so the tick loop keeps running
// with fewer frills instead of crashing.
func DefaultPlan(templates *TemplateTable) *SpawnPlan {
	plan := &SpawnPlan{
		Pools: []SpawnPool{{
			ID:            "fallback",
			TemplateIDs:   templates.IDs(),
			MaxConcurrent: 8,
		}},
		Phases: []SpawnPhase{{
			Name:  "fallback",
			Start: 0,
			End:   0, // open-ended
			Pools: []string{"fallback"},
		}},
		Zones: []ZoneDef{{
			ID:     "arena_center",
			Weight: 1.0,
			Radius: 8,
		}},
		Scaling: ScalingConfig{
			Tiers: map[string]float64{"basic": 1.0, "elite": 2.0, "boss": 4.0},
		},
	}
	// A plan built from a validated table cannot fail validation.
	if err := plan.Validate(templates); err != nil {
		panic(fmt.Sprintf("default plan invalid: %v", err))
	}
	return plan
}
