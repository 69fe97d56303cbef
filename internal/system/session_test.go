package system

import (
	"testing"
	"time"

	"github.com/arenad/server/internal/core/event"
	"github.com/arenad/server/internal/data"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T, seed int64) *Session {
	t.Helper()
	tbl := spawnTemplates(t)
	plan := &data.SpawnPlan{
		Pools: []data.SpawnPool{
			{ID: "mixed", TemplateIDs: []string{"goblin", "wolf"}, MaxConcurrent: 40},
		},
		Phases: []data.SpawnPhase{
			{Name: "all", Start: 0, End: 0, Pools: []string{"mixed"}},
		},
		Zones: []data.ZoneDef{
			{ID: "north", Weight: 1},
			{ID: "south", Weight: 1},
		},
	}
	if err := plan.Validate(tbl); err != nil {
		t.Fatal(err)
	}
	sess, err := NewSession(SessionParams{
		RunSeed:       seed,
		PoolCapacity:  64,
		SpawnInterval: 100 * time.Millisecond,
		Templates:     tbl,
		Plan:          plan,
		Log:           zap.NewNop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestSessionEventsArriveNextTick(t *testing.T) {
	sess := newTestSession(t, 42)

	// Tick 1 spawns and queues events; the first dispatch happens at the
	// start of tick 2.
	sess.Tick(100 * time.Millisecond)
	if n := len(sess.Bus().Drain()); n != 0 {
		t.Fatalf("tick 1 drained %d events, want 0", n)
	}
	if sess.Bus().Pending() == 0 {
		t.Fatal("tick 1 queued no events")
	}

	sess.Tick(100 * time.Millisecond)
	var registered int
	for _, ev := range sess.Bus().Drain() {
		if _, ok := ev.(event.EntityRegistered); ok {
			registered++
		}
	}
	if registered == 0 {
		t.Fatal("no spawn events delivered on tick 2")
	}
}

func runTemplateSequence(sess *Session, ticks int) []string {
	var out []string
	for i := 0; i < ticks; i++ {
		sess.Tick(100 * time.Millisecond)
		for _, ev := range sess.Bus().Drain() {
			if e, ok := ev.(event.EntityRegistered); ok {
				out = append(out, e.Type)
			}
		}
	}
	return out
}

func TestSessionResetReplaysRun(t *testing.T) {
	sess := newTestSession(t, 42)

	first := runTemplateSequence(sess, 30)
	if len(first) == 0 {
		t.Fatal("first run spawned nothing")
	}

	sess.Reset()
	if sess.Registry().Len() != 0 {
		t.Fatalf("registry holds %d entities after reset", sess.Registry().Len())
	}
	if sess.Elapsed() != 0 {
		t.Fatalf("elapsed = %v after reset", sess.Elapsed())
	}
	// Discard the teardown events queued by the reset so they do not
	// bleed into the replay's first tick.
	sess.Bus().SwapBuffers()
	sess.Bus().Drain()

	second := runTemplateSequence(sess, 30)

	if len(first) != len(second) {
		t.Fatalf("replay lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay diverged at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSessionSwapPlanRejectsInvalid(t *testing.T) {
	sess := newTestSession(t, 42)
	sess.Tick(100 * time.Millisecond)

	bad := &data.SpawnPlan{
		Pools: []data.SpawnPool{
			{ID: "broken", TemplateIDs: []string{"no_such_template"}},
		},
		Phases: []data.SpawnPhase{
			{Name: "all", Start: 0, Pools: []string{"broken"}},
		},
		Zones: []data.ZoneDef{{ID: "north", Weight: 1}},
	}
	if err := sess.SwapPlan(bad, spawnTemplates(t)); err == nil {
		t.Fatal("invalid plan accepted")
	}

	// The active plan survives: spawning keeps working.
	before := sess.Registry().Len()
	for i := 0; i < 5; i++ {
		sess.Tick(100 * time.Millisecond)
	}
	if sess.Registry().Len() <= before {
		t.Fatal("spawning stopped after rejected reload")
	}
}

func TestSessionClearAll(t *testing.T) {
	sess := newTestSession(t, 42)
	for i := 0; i < 10; i++ {
		sess.Tick(100 * time.Millisecond)
	}
	if sess.Registry().Len() == 0 {
		t.Fatal("nothing spawned")
	}

	sess.ClearAll("debug")
	if sess.Registry().Len() != 0 {
		t.Fatalf("registry holds %d entities after clear", sess.Registry().Len())
	}

	// The clear goes through the pipeline, so every death is observable
	// as a kill event on the next tick.
	sess.Tick(100 * time.Millisecond)
	killed := 0
	for _, ev := range sess.Bus().Drain() {
		if e, ok := ev.(event.EntityKilled); ok && e.Source == "debug" {
			killed++
		}
	}
	if killed == 0 {
		t.Fatal("clear produced no kill events")
	}
}

func TestSessionUpdateEntityPosition(t *testing.T) {
	sess := newTestSession(t, 42)
	for i := 0; i < 4; i++ {
		sess.Tick(100 * time.Millisecond)
	}
	ids := sess.Registry().AliveIDs()
	if len(ids) == 0 {
		t.Fatal("nothing spawned")
	}

	sess.UpdateEntityPosition(ids[0], 12.5, -3.25)
	rec, ok := sess.Registry().Get(ids[0])
	if !ok {
		t.Fatal("entity vanished")
	}
	if rec.Pos.X != 12.5 || rec.Pos.Y != -3.25 {
		t.Fatalf("position not synced: %+v", rec.Pos)
	}
}
