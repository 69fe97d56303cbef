package system

import (
	"sort"
	"strconv"
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

// Stream names for gameplay randomness. Template selection and zone
// placement draw from distinct streams so one never perturbs the other.
const (
	streamWaves = "waves"
	streamZones = "zones"
	streamBoss  = "boss"
)

type bossEventState struct {
	triggered bool
	readyAt   float64 // elapsed seconds when re-trigger is allowed
	count     uint64
}

// SpawnSystem orchestrates the per-tick spawn flow: phase resolution,
// weighted template and zone selection, stat scaling, and the atomic
// pool-allocate + registry-register step. It also checks the boss event
// schedule. All decisions draw deterministic randomness from the stream
// provider, so a fixed run seed reproduces the identical spawn sequence.
type SpawnSystem struct {
	log       *zap.Logger
	provider  *rng.Provider
	pool      *ecs.SlotPool[world.MobState]
	registry  *world.Registry
	bosses    *world.BossTable
	zones     *ZoneManager
	scaling   *ScalingResolver
	bus       *event.Bus
	script    *scripting.Engine // optional
	templates *data.TemplateTable

	plan *data.SpawnPlan

	elapsed       float64
	spawnAccum    float64
	spawnInterval float64 // seconds between spawn attempts
	attemptBudget int     // max attempts per tick so one tick never floods the pool

	spawnCounter uint64
	bossStates   map[string]*bossEventState
	activeBosses map[ecs.EntityID]string // boss entity → event id

	// Scratch buffers reused every attempt.
	poolOrder  []string
	candidates []weightedEntry
}

// SpawnParams wires a SpawnSystem. Plan must be pre-validated.
type SpawnParams struct {
	Provider  *rng.Provider
	Pool      *ecs.SlotPool[world.MobState]
	Registry  *world.Registry
	Bosses    *world.BossTable
	Zones     *ZoneManager
	Bus       *event.Bus
	Script    *scripting.Engine
	Templates *data.TemplateTable
	Plan      *data.SpawnPlan

	SpawnInterval time.Duration
	AttemptBudget int

	Log *zap.Logger
}

func NewSpawnSystem(p SpawnParams) *SpawnSystem {
	if p.AttemptBudget <= 0 {
		p.AttemptBudget = 4
	}
	if p.SpawnInterval <= 0 {
		p.SpawnInterval = time.Second
	}
	s := &SpawnSystem{
		log:           p.Log,
		provider:      p.Provider,
		pool:          p.Pool,
		registry:      p.Registry,
		bosses:        p.Bosses,
		zones:         p.Zones,
		bus:           p.Bus,
		script:        p.Script,
		templates:     p.Templates,
		spawnInterval: p.SpawnInterval.Seconds(),
		attemptBudget: p.AttemptBudget,
		bossStates:    make(map[string]*bossEventState, 4),
		activeBosses:  make(map[ecs.EntityID]string, 4),
	}
	s.installPlan(p.Plan)

	// Boss completion is detected purely through the ordinary death path:
	// the kill event on a boss id marks its event complete.
	event.Subscribe(p.Bus, s.onEntityKilled)
	return s
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SpawnSystem) Update(dt time.Duration) {
	s.elapsed += dt.Seconds()

	s.spawnAccum += dt.Seconds()
	attempts := 0
	for s.spawnAccum >= s.spawnInterval && attempts < s.attemptBudget {
		s.spawnAccum -= s.spawnInterval
		s.Attempt()
		attempts++
	}

	s.checkBossEvents()
}

// Elapsed returns the run clock in seconds.
func (s *SpawnSystem) Elapsed() float64 { return s.elapsed }

// SwapPlan atomically replaces the active spawn plan. The plan must
// already be validated; the scheduler reads it once per tick on the
// simulation goroutine, so it never observes a partial update. Boss event
// cooldowns carry over for events that survive the reload.
func (s *SpawnSystem) SwapPlan(plan *data.SpawnPlan) {
	s.installPlan(plan)
	for id := range s.bossStates {
		if !s.planHasBossEvent(id) {
			delete(s.bossStates, id)
		}
	}
	s.log.Info("spawn plan swapped",
		zap.Int("pools", len(plan.Pools)),
		zap.Int("phases", len(plan.Phases)),
		zap.Int("zones", len(plan.Zones)),
		zap.Int("boss_events", len(plan.BossEvents)))
}

func (s *SpawnSystem) installPlan(plan *data.SpawnPlan) {
	if plan == nil {
		s.log.Warn("no usable spawn plan, using built-in fallback")
		plan = data.DefaultPlan(s.templates)
	}
	s.plan = plan
	s.zones.SyncPlan(plan.Zones)
	s.scaling = NewScalingResolver(plan.Scaling, s.log)
}

func (s *SpawnSystem) planHasBossEvent(id string) bool {
	for i := range s.plan.BossEvents {
		if s.plan.BossEvents[i].ID == id {
			return true
		}
	}
	return false
}

// Attempt performs one spawn attempt. Every failure mode is absorbed: a
// full pool or an all-cooling zone set just means fewer enemies this tick.
func (s *SpawnSystem) Attempt() {
	if !s.gatherCandidates() {
		return
	}

	waves, err := s.provider.Stream(streamWaves)
	if err != nil {
		s.log.Warn("spawn attempt before run seed set", zap.Error(err))
		return
	}
	templateID, ok := pickWeighted(waves, s.candidates)
	if !ok {
		return
	}
	tmpl := s.templates.Get(templateID)
	if tmpl == nil {
		s.log.Warn("selected template vanished", zap.String("template", templateID))
		return
	}

	counter := s.spawnCounter
	s.spawnCounter++

	// Zone choice draws from a stream derived per decision, keyed by
	// (template id, spawn counter), so placement randomness stays
	// decorrelated from the template sequence.
	zoneStream, err := s.provider.Derived(streamZones, templateID, strconv.FormatUint(counter, 10))
	if err != nil {
		return
	}
	zoneID, err := s.zones.SelectZone(s.zoneCandidatesInOrder(), zoneStream)
	if err != nil {
		// All zones cooling: defer to a later attempt.
		s.log.Debug("spawn deferred", zap.String("template", templateID), zap.Error(err))
		return
	}
	s.zones.SetCooldown(zoneID)
	pos := s.zones.SpawnPosition(zoneID, zoneStream)

	stats := s.scaling.Resolve(tmpl.Stats, s.elapsed, tmpl.Tier)

	// Pool allocation and registry insertion are one atomic step: a
	// registry failure rolls the slot back before anything is observable.
	id, err := s.pool.Allocate(world.MobState{
		Type:  tmpl.ID,
		Tier:  tmpl.Tier,
		Stats: stats,
		Pos:   pos,
	})
	if err != nil {
		s.log.Debug("entity pool exhausted, spawn skipped", zap.String("template", tmpl.ID))
		return
	}
	if err := s.registry.Register(id, tmpl.ID, pos, stats.Health); err != nil {
		s.pool.Free(id)
		s.log.Warn("registry rejected spawn", zap.Uint64("id", uint64(id)), zap.Error(err))
		return
	}

	event.Emit(s.bus, event.ZoneSelected{ZoneID: zoneID})
	event.Emit(s.bus, event.EntityRegistered{ID: id, Type: tmpl.ID, X: pos.X, Y: pos.Y})
}

// gatherCandidates recomputes the active phase set from elapsed time
// (phases may overlap, so this is never cached), unions their pools, and
// collects templates whose pools still have concurrency headroom.
func (s *SpawnSystem) gatherCandidates() bool {
	s.poolOrder = s.poolOrder[:0]
	seen := make(map[string]bool, 4)
	for i := range s.plan.Phases {
		ph := &s.plan.Phases[i]
		if !ph.ActiveAt(s.elapsed) {
			continue
		}
		for _, poolID := range ph.Pools {
			if !seen[poolID] {
				seen[poolID] = true
				s.poolOrder = append(s.poolOrder, poolID)
			}
		}
	}
	if len(s.poolOrder) == 0 {
		return false
	}

	s.candidates = s.candidates[:0]
	picked := make(map[string]bool, 8)
	for _, poolID := range s.poolOrder {
		pool := s.plan.Pool(poolID)
		if pool == nil {
			continue
		}
		members := pool.Members()
		alive := 0
		for id := range members {
			alive += s.registry.AliveCount(id)
		}
		if alive >= pool.MaxConcurrent {
			continue
		}
		// Map order is unstable; sort so a given state always yields the
		// same candidate list and the same weighted draw.
		ids := make([]string, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if !picked[id] {
				picked[id] = true
				s.candidates = append(s.candidates, weightedEntry{id: id, weight: members[id]})
			}
		}
	}
	return len(s.candidates) > 0
}

func (s *SpawnSystem) zoneCandidatesInOrder() []string {
	ids := make([]string, len(s.plan.Zones))
	for i := range s.plan.Zones {
		ids[i] = s.plan.Zones[i].ID
	}
	return ids
}

// ── Boss events ────────────────────────────────────────────────────

func (s *SpawnSystem) checkBossEvents() {
	for i := range s.plan.BossEvents {
		ev := &s.plan.BossEvents[i]
		st := s.bossStates[ev.ID]
		if st == nil {
			st = &bossEventState{}
			s.bossStates[ev.ID] = st
		}
		if st.triggered && !ev.Repeatable {
			continue
		}
		if st.triggered && s.elapsed < st.readyAt {
			continue // cooldown blocks re-trigger
		}
		if !s.bossShouldTrigger(ev) {
			continue
		}
		s.triggerBoss(ev, st)
	}
}

func (s *SpawnSystem) bossShouldTrigger(ev *data.BossEvent) bool {
	if ev.TriggerTime > 0 {
		return s.elapsed >= ev.TriggerTime
	}
	if s.script == nil {
		return false
	}
	return s.script.CheckBossTrigger(scripting.TriggerContext{
		EventID:    ev.ID,
		Condition:  ev.Condition,
		Elapsed:    s.elapsed,
		AliveCount: s.registry.Len(),
		BossCount:  s.bosses.Len(),
	})
}

func (s *SpawnSystem) triggerBoss(ev *data.BossEvent, st *bossEventState) {
	tmpl := s.templates.Get(ev.Template)
	if tmpl == nil {
		s.log.Warn("boss event references unknown template",
			zap.String("event", ev.ID), zap.String("template", ev.Template))
		return
	}

	stream, err := s.provider.Derived(streamBoss, ev.ID, strconv.FormatUint(st.count, 10))
	if err != nil {
		return
	}

	zoneID := ev.Zone
	if zoneID == "" {
		picked, err := s.zones.SelectZone(s.zoneCandidatesInOrder(), stream)
		if err != nil {
			// Try again next tick rather than forcing a cooling zone.
			s.log.Debug("boss trigger deferred", zap.String("event", ev.ID), zap.Error(err))
			return
		}
		zoneID = picked
	}
	pos := s.zones.SpawnPosition(zoneID, stream)
	stats := s.scaling.Resolve(tmpl.Stats, s.elapsed, tmpl.Tier)

	// Bosses are independently owned, never pooled. Registration is still
	// atomic with instantiation.
	boss := s.bosses.Spawn(ev.ID, tmpl.ID, tmpl.Tier, stats, pos)
	if err := s.registry.Register(boss.ID, tmpl.ID, pos, stats.Health); err != nil {
		s.bosses.Remove(boss.ID)
		s.log.Warn("registry rejected boss", zap.String("event", ev.ID), zap.Error(err))
		return
	}

	st.triggered = true
	st.readyAt = s.elapsed + ev.Cooldown
	st.count++
	s.activeBosses[boss.ID] = ev.ID

	event.Emit(s.bus, event.ZoneSelected{ZoneID: zoneID})
	event.Emit(s.bus, event.EntityRegistered{ID: boss.ID, Type: tmpl.ID, X: pos.X, Y: pos.Y})
	event.Emit(s.bus, event.BossEventTriggered{EventID: ev.ID, EntityID: boss.ID})

	s.log.Info("boss event triggered",
		zap.String("event", ev.ID),
		zap.String("template", tmpl.ID),
		zap.String("zone", zoneID))
}

func (s *SpawnSystem) onEntityKilled(ev event.EntityKilled) {
	eventID, ok := s.activeBosses[ev.ID]
	if !ok {
		return
	}
	delete(s.activeBosses, ev.ID)
	event.Emit(s.bus, event.BossEventCompleted{EventID: eventID})
	s.log.Info("boss event completed", zap.String("event", eventID))
}

// Reset restores the scheduler to fresh-run state: run clock, spawn
// counter and boss schedule back to zero. Entity teardown is the
// pipeline's job and happens before this is called.
func (s *SpawnSystem) Reset() {
	s.elapsed = 0
	s.spawnAccum = 0
	s.spawnCounter = 0
	s.bossStates = make(map[string]*bossEventState, len(s.bossStates))
	s.activeBosses = make(map[ecs.EntityID]string, 4)
}
