package system

import (
	"fmt"
	"time"

	"github.com/arenad/server/internal/core/ecs"
	"github.com/arenad/server/internal/core/event"
	coresys "github.com/arenad/server/internal/core/system"
	"github.com/arenad/server/internal/data"
	"github.com/arenad/server/internal/rng"
	"github.com/arenad/server/internal/scripting"
	"github.com/arenad/server/internal/world"
	"go.uber.org/zap"
)

// eventSystem rotates and dispatches the outcome bus at tick start, so
// events emitted in tick N are delivered in tick N+1.
type eventSystem struct {
	bus *event.Bus
}

func (e *eventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (e *eventSystem) Update(_ time.Duration) {
	e.bus.SwapBuffers()
	e.bus.DispatchAll()
}

// SessionParams configures a simulation session. Templates are required;
// a nil Plan selects the built-in fallback. Script is optional.
type SessionParams struct {
	RunSeed       int64
	PoolCapacity  int
	SpawnInterval time.Duration
	AttemptBudget int
	ThreatDecay   float64 // threat units decayed per second

	Templates *data.TemplateTable
	Plan      *data.SpawnPlan
	Script    *scripting.Engine
	Log       *zap.Logger
}

// Session owns one arena run: the stream provider, pool, registry, boss
// table, outcome bus, and the systems that drive them. Everything is
// constructed here and passed by reference; no ambient global state, so
// concurrent sessions (including tests) never interfere. All methods run
// on a single simulation goroutine.
type Session struct {
	log      *zap.Logger
	provider *rng.Provider
	pool     *ecs.SlotPool[world.MobState]
	registry *world.Registry
	bosses   *world.BossTable
	bus      *event.Bus
	zones    *ZoneManager
	spawn    *SpawnSystem
	pipeline *Pipeline
	runner   *coresys.Runner
}

func NewSession(p SessionParams) (*Session, error) {
	if p.Templates == nil || p.Templates.Count() == 0 {
		return nil, fmt.Errorf("session: no enemy templates loaded")
	}
	if p.PoolCapacity <= 0 {
		p.PoolCapacity = 512
	}
	if p.PoolCapacity >= world.BossIndexBase {
		return nil, fmt.Errorf("session: pool capacity %d exceeds boss index base", p.PoolCapacity)
	}
	if p.ThreatDecay <= 0 {
		p.ThreatDecay = 0.05
	}

	provider := rng.NewProvider()
	provider.SetRunSeed(p.RunSeed)

	s := &Session{
		log:      p.Log,
		provider: provider,
		pool:     ecs.NewSlotPool[world.MobState](p.PoolCapacity),
		registry: world.NewRegistry(p.Log),
		bosses:   world.NewBossTable(),
		bus:      event.NewBus(),
		zones:    NewZoneManager(p.ThreatDecay, p.Log),
		runner:   coresys.NewRunner(),
	}

	s.spawn = NewSpawnSystem(SpawnParams{
		Provider:      provider,
		Pool:          s.pool,
		Registry:      s.registry,
		Bosses:        s.bosses,
		Zones:         s.zones,
		Bus:           s.bus,
		Script:        p.Script,
		Templates:     p.Templates,
		Plan:          p.Plan,
		SpawnInterval: p.SpawnInterval,
		AttemptBudget: p.AttemptBudget,
		Log:           p.Log,
	})
	s.pipeline = NewPipeline(s.registry, s.pool, s.bosses, s.bus, p.Script, s.spawn.Elapsed, p.Log)

	s.runner.Register(&eventSystem{bus: s.bus})
	s.runner.Register(s.spawn)
	s.runner.Register(s.zones)

	return s, nil
}

// Tick advances the simulation by one fixed-rate step. All core work for
// the tick happens synchronously inside this call, in stable phase order.
func (s *Session) Tick(dt time.Duration) {
	s.runner.Tick(dt)
}

// Pipeline returns the sole damage entry point for external combat code.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// Registry exposes read-only entity queries.
func (s *Session) Registry() *world.Registry { return s.registry }

// Bus returns the outcome bus; collaborators drain it between ticks.
func (s *Session) Bus() *event.Bus { return s.bus }

// Zones returns the zone manager, for external threat escalation.
func (s *Session) Zones() *ZoneManager { return s.zones }

// Elapsed returns the run clock in seconds.
func (s *Session) Elapsed() float64 { return s.spawn.Elapsed() }

// SwapPlan validates and installs a hot-reloaded spawn plan between
// ticks. On validation failure the active plan is kept and the error
// surfaced as a warning: a bad reload never interrupts the run.
func (s *Session) SwapPlan(plan *data.SpawnPlan, templates *data.TemplateTable) error {
	if err := plan.Validate(templates); err != nil {
		s.log.Warn("spawn plan reload rejected, keeping active plan", zap.Error(err))
		return err
	}
	s.spawn.SwapPlan(plan)
	return nil
}

// UpdateEntityPosition is the per-tick position sync path for external
// movement code. Unknown or just-killed ids are absorbed by the registry.
func (s *Session) UpdateEntityPosition(id ecs.EntityID, x, y float64) {
	pos := world.Position{X: x, Y: y}
	if mob, ok := s.pool.Get(id); ok {
		mob.Pos = pos
	} else if boss, ok := s.bosses.Get(id); ok {
		boss.Pos = pos
	}
	s.registry.UpdatePosition(id, pos)
	event.Emit(s.bus, event.EntityPositionUpdated{ID: id, X: x, Y: y})
}

// ClearAll routes a debug clear through the damage pipeline, so it is
// behaviorally identical to every entity dying in combat.
func (s *Session) ClearAll(source string) {
	s.pipeline.ClearAll(source)
}

// Reset returns the session to fresh-run state: every entity is killed
// through the pipeline (emitting the usual unregister events), then
// phase/zone timers and rng stream call counters start over. The run seed
// is kept, so the next run replays the same spawn sequence.
func (s *Session) Reset() {
	s.pipeline.ClearAll("reset")
	s.zones.Reset()
	s.provider.Reset()
	s.spawn.Reset()
	s.log.Info("session reset")
}
