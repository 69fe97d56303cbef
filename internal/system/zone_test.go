package system

import (
	"testing"
	"time"

	"github.com/arenad/server/internal/data"
	"github.com/arenad/server/internal/rng"
	"go.uber.org/zap"
)

func testZones(t *testing.T, defs ...data.ZoneDef) *ZoneManager {
	t.Helper()
	m := NewZoneManager(0.05, zap.NewNop())
	m.SyncPlan(defs)
	return m
}

func testStream(t *testing.T, seed int64) *rng.Stream {
	t.Helper()
	p := rng.NewProvider()
	p.SetRunSeed(seed)
	s, err := p.Stream("test")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCooldownExcludesZone(t *testing.T) {
	m := testZones(t,
		data.ZoneDef{ID: "A", Weight: 1, Cooldown: 10},
		data.ZoneDef{ID: "B", Weight: 1, Cooldown: 10},
	)
	stream := testStream(t, 42)
	candidates := []string{"A", "B"}

	first, err := m.SelectZone(candidates, stream)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	m.SetCooldown(first)

	// Until the 10s cooldown elapses, reselection must avoid the zone.
	for i := 0; i < 50; i++ {
		got, err := m.SelectZone(candidates, stream)
		if err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if got == first {
			t.Fatalf("zone %s selected while on cooldown", first)
		}
		m.Update(100 * time.Millisecond) // total 5s < cooldown
	}

	// Finish the cooldown.
	m.Update(6 * time.Second)
	if m.OnCooldown(first) {
		t.Fatalf("zone %s still cooling after 11s", first)
	}
}

func TestAllZonesCoolingReturnsError(t *testing.T) {
	m := testZones(t,
		data.ZoneDef{ID: "A", Weight: 1, Cooldown: 10},
		data.ZoneDef{ID: "B", Weight: 1, Cooldown: 10},
	)
	m.SetCooldown("A")
	m.SetCooldown("B")

	if _, err := m.SelectZone([]string{"A", "B"}, testStream(t, 1)); err != ErrNoZoneAvailable {
		t.Fatalf("expected ErrNoZoneAvailable, got %v", err)
	}
}

func TestThreatConsumedOnSelection(t *testing.T) {
	m := testZones(t, data.ZoneDef{ID: "A", Weight: 1})
	m.EscalateThreat("A", 3)
	if got := m.Threat("A"); got != 3 {
		t.Fatalf("threat = %v, want 3", got)
	}

	if _, err := m.SelectZone([]string{"A"}, testStream(t, 1)); err != nil {
		t.Fatal(err)
	}
	if got := m.Threat("A"); got != 0 {
		t.Fatalf("threat after selection = %v, want 0", got)
	}
}

func TestThreatDecaysPerTick(t *testing.T) {
	m := NewZoneManager(0.5, zap.NewNop())
	m.SyncPlan([]data.ZoneDef{{ID: "A", Weight: 1}})
	m.EscalateThreat("A", 1)

	m.Update(time.Second)
	if got := m.Threat("A"); got != 0.5 {
		t.Fatalf("threat after 1s = %v, want 0.5", got)
	}
	m.Update(10 * time.Second)
	if got := m.Threat("A"); got != 0 {
		t.Fatalf("threat floor broken: %v", got)
	}
}

func TestThreatBiasesSelection(t *testing.T) {
	m := testZones(t,
		data.ZoneDef{ID: "A", Weight: 1},
		data.ZoneDef{ID: "B", Weight: 1},
	)
	m.EscalateThreat("B", 50) // weight 1 vs 51

	stream := testStream(t, 42)
	picks := map[string]int{}
	for i := 0; i < 100; i++ {
		got, err := m.SelectZone([]string{"A", "B"}, stream)
		if err != nil {
			t.Fatal(err)
		}
		picks[got]++
		m.EscalateThreat("B", 50) // restore after consumption
	}
	if picks["B"] < 90 {
		t.Fatalf("escalated zone picked only %d/100 times", picks["B"])
	}
}

func TestSyncPlanKeepsSurvivorState(t *testing.T) {
	m := testZones(t,
		data.ZoneDef{ID: "A", Weight: 1, Cooldown: 10},
		data.ZoneDef{ID: "B", Weight: 1, Cooldown: 10},
	)
	m.SetCooldown("A")
	m.EscalateThreat("B", 2)

	m.SyncPlan([]data.ZoneDef{
		{ID: "A", Weight: 2, Cooldown: 5},
		{ID: "C", Weight: 1},
	})

	if !m.OnCooldown("A") {
		t.Error("surviving zone lost its cooldown on reload")
	}
	if m.Threat("B") != 0 {
		t.Error("removed zone still tracked")
	}
	if m.OnCooldown("C") {
		t.Error("new zone started on cooldown")
	}
}

func TestSpawnPositionInsideRadius(t *testing.T) {
	def := data.ZoneDef{ID: "A", Weight: 1, Radius: 5}
	def.Center.X, def.Center.Y = 10, -20
	m := testZones(t, def)

	stream := testStream(t, 7)
	for i := 0; i < 50; i++ {
		pos := m.SpawnPosition("A", stream)
		dx, dy := pos.X-10, pos.Y+20
		if dx*dx+dy*dy > 5*5+1e-9 {
			t.Fatalf("position (%v, %v) outside radius", pos.X, pos.Y)
		}
	}
}
