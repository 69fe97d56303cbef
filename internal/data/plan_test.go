package data

import "testing"

func testTemplates(t *testing.T) *TemplateTable {
	t.Helper()
	tbl, err := NewTemplateTable([]EnemyTemplate{
		{ID: "goblin", TierTag: "basic", SpawnWeight: 1.0, Tags: []string{"swarm"},
			Stats: Stats{Health: 30, Speed: 1.4, Damage: 4}},
		{ID: "wolf", TierTag: "basic", SpawnWeight: 0.8, Tags: []string{"swarm"},
			Stats: Stats{Health: 22, Speed: 2.2, Damage: 5}},
		{ID: "ogre", TierTag: "boss", SpawnWeight: 1.0,
			Stats: Stats{Health: 600, Speed: 0.8, Damage: 30}},
	})
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	return tbl
}

func validPlan() *SpawnPlan {
	return &SpawnPlan{
		Pools: []SpawnPool{
			{ID: "swarm", Tags: []string{"swarm"}, MaxConcurrent: 5},
		},
		Phases: []SpawnPhase{
			{Name: "opening", Start: 0, End: 60, Pools: []string{"swarm"}},
		},
		Zones: []ZoneDef{
			{ID: "north", Weight: 1, Cooldown: 10},
		},
	}
}

func TestParseTier(t *testing.T) {
	cases := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{"basic", TierBasic, true},
		{"elite", TierElite, true},
		{"boss", TierBoss, true},
		{"legendary", TierBasic, false},
		{"", TierBasic, false},
	}
	for _, c := range cases {
		got, err := ParseTier(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseTier(%q) = %v, %v", c.in, got, err)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseTier(%q): expected error", c.in)
		}
	}
}

func TestTemplateValidation(t *testing.T) {
	if _, err := NewTemplateTable([]EnemyTemplate{
		{ID: "bad", TierTag: "legendary", Stats: Stats{Health: 10}},
	}); err == nil {
		t.Error("unknown tier accepted")
	}
	if _, err := NewTemplateTable([]EnemyTemplate{
		{ID: "bad", TierTag: "basic", Stats: Stats{Health: 0}},
	}); err == nil {
		t.Error("zero health accepted")
	}
	if _, err := NewTemplateTable([]EnemyTemplate{
		{ID: "dup", TierTag: "basic", Stats: Stats{Health: 1}},
		{ID: "dup", TierTag: "basic", Stats: Stats{Health: 1}},
	}); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestPlanValidateResolvesPools(t *testing.T) {
	tbl := testTemplates(t)
	plan := validPlan()
	plan.Pools[0].Weights = map[string]float64{"goblin": 2.5}

	if err := plan.Validate(tbl); err != nil {
		t.Fatalf("validate: %v", err)
	}

	pool := plan.Pool("swarm")
	if pool == nil {
		t.Fatal("pool not indexed")
	}
	members := pool.Members()
	if len(members) != 2 {
		t.Fatalf("tag resolution found %d members, want 2", len(members))
	}
	if members["goblin"] != 2.5 {
		t.Errorf("explicit weight not applied: %v", members["goblin"])
	}
	if members["wolf"] != 0.8 {
		t.Errorf("template spawn weight not used: %v", members["wolf"])
	}
}

func TestPlanValidateRejections(t *testing.T) {
	tbl := testTemplates(t)

	cases := []struct {
		name   string
		mutate func(*SpawnPlan)
	}{
		{"unknown template in pool", func(p *SpawnPlan) {
			p.Pools[0].TemplateIDs = []string{"dragon"}
		}},
		{"zero max_concurrent", func(p *SpawnPlan) {
			p.Pools[0].MaxConcurrent = 0
		}},
		{"phase references unknown pool", func(p *SpawnPlan) {
			p.Phases[0].Pools = []string{"nope"}
		}},
		{"phase end before start", func(p *SpawnPlan) {
			p.Phases[0].Start = 60
			p.Phases[0].End = 30
		}},
		{"no zones", func(p *SpawnPlan) {
			p.Zones = nil
		}},
		{"weight for non-member", func(p *SpawnPlan) {
			p.Pools[0].Weights = map[string]float64{"ogre": 1}
		}},
		{"boss event without trigger", func(p *SpawnPlan) {
			p.BossEvents = []BossEvent{{ID: "x", Template: "ogre"}}
		}},
		{"boss event unknown template", func(p *SpawnPlan) {
			p.BossEvents = []BossEvent{{ID: "x", TriggerTime: 10, Template: "dragon"}}
		}},
		{"repeatable without cooldown", func(p *SpawnPlan) {
			p.BossEvents = []BossEvent{{ID: "x", TriggerTime: 10, Template: "ogre", Repeatable: true}}
		}},
		{"unknown scaling tier", func(p *SpawnPlan) {
			p.Scaling.Tiers = map[string]float64{"mythic": 2}
		}},
	}
	for _, c := range cases {
		plan := validPlan()
		c.mutate(plan)
		if err := plan.Validate(tbl); err == nil {
			t.Errorf("%s: validation passed", c.name)
		}
	}
}

func TestPhaseActiveAt(t *testing.T) {
	bounded := SpawnPhase{Start: 10, End: 20}
	open := SpawnPhase{Start: 30, End: 0}

	cases := []struct {
		phase   *SpawnPhase
		elapsed float64
		want    bool
	}{
		{&bounded, 9.9, false},
		{&bounded, 10, true},
		{&bounded, 19.99, true},
		{&bounded, 20, false}, // window is [start, end)
		{&open, 29, false},
		{&open, 30, true},
		{&open, 100000, true},
	}
	for _, c := range cases {
		if got := c.phase.ActiveAt(c.elapsed); got != c.want {
			t.Errorf("ActiveAt(%v) = %v, want %v", c.elapsed, got, c.want)
		}
	}
}

func TestDefaultPlanIsValid(t *testing.T) {
	tbl := testTemplates(t)
	plan := DefaultPlan(tbl)

	pool := plan.Pool("fallback")
	if pool == nil {
		t.Fatal("default plan has no fallback pool")
	}
	if len(pool.Members()) != tbl.Count() {
		t.Errorf("fallback pool has %d members, want %d", len(pool.Members()), tbl.Count())
	}
	if !plan.Phases[0].ActiveAt(1e9) {
		t.Error("fallback phase is not open-ended")
	}
}

func TestScalingConfigResolve(t *testing.T) {
	cfg := ScalingConfig{
		Time:  []ScalingStep{{At: 120, Mult: 1.5}, {At: 60, Mult: 1.2}},
		Tiers: map[string]float64{"elite": 2.0},
	}
	if err := cfg.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Time[0].At != 60 {
		t.Error("steps not sorted by threshold")
	}
	if cfg.TierMults[TierElite] != 2.0 {
		t.Error("tier multiplier not resolved")
	}
}
