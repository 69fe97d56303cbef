package system

import (
	"math"
	"sort"

	"github.com/arenad/server/internal/core/ecs"
	"github.com/arenad/server/internal/core/event"
	"github.com/arenad/server/internal/scripting"
	"github.com/arenad/server/internal/world"
	"go.uber.org/zap"
)

// Pipeline is the sole damage entry point. No other component mutates
// health: combat, debug clears, and run resets all route through Apply, so
// a debug clear is behaviorally identical to the entities dying in combat.
type Pipeline struct {
	log      *zap.Logger
	registry *world.Registry
	pool     *ecs.SlotPool[world.MobState]
	bosses   *world.BossTable
	bus      *event.Bus
	script   *scripting.Engine // optional
	elapsed  func() float64
}

func NewPipeline(
	registry *world.Registry,
	pool *ecs.SlotPool[world.MobState],
	bosses *world.BossTable,
	bus *event.Bus,
	script *scripting.Engine,
	elapsed func() float64,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		log:      log,
		registry: registry,
		pool:     pool,
		bosses:   bosses,
		bus:      bus,
		script:   script,
		elapsed:  elapsed,
	}
}

// Apply subtracts damage from an entity, floored at zero. Unknown ids are
// a logged no-op returning ErrUnknownEntity; the tick loop never stalls on
// one bad hit. Lethal damage transitions the entity to dead: the kill
// event is emitted, the registry entry removed, and the pool slot freed
// (or the boss instance torn down) together.
func (p *Pipeline) Apply(id ecs.EntityID, amount float64, source string, tags []string) error {
	rec, ok := p.registry.Get(id)
	if !ok || !rec.Alive {
		p.log.Warn("damage for unknown entity",
			zap.Uint64("id", uint64(id)), zap.String("source", source))
		return world.ErrUnknownEntity
	}

	health := rec.Health - amount
	if health < 0 {
		health = 0
	}
	p.registry.UpdateHealth(id, health)
	event.Emit(p.bus, event.DamageApplied{ID: id, Amount: amount, Source: source, Tags: tags})

	if health == 0 {
		p.kill(rec, source, tags)
	}
	return nil
}

// ClearAll kills every currently alive entity by applying a lethal amount
// through the ordinary damage path. Ids are processed in sorted order so a
// bulk clear emits a stable event sequence.
func (p *Pipeline) ClearAll(source string) {
	ids := p.registry.AliveIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		p.Apply(id, math.MaxFloat64, source, nil)
	}
}

func (p *Pipeline) kill(rec *world.Record, source string, tags []string) {
	rec.Alive = false
	event.Emit(p.bus, event.EntityKilled{ID: rec.ID, Type: rec.Type, Source: source, Tags: tags})

	boss := false
	if _, ok := p.bosses.Get(rec.ID); ok {
		boss = true
		p.bosses.Remove(rec.ID)
	} else if err := p.pool.Free(rec.ID); err != nil {
		// Stale handles are expected churn, not corruption.
		p.log.Debug("free on stale handle", zap.Uint64("id", uint64(rec.ID)))
	}
	p.registry.Unregister(rec.ID)

	if p.script != nil {
		p.script.OnEntityKilled(scripting.KillContext{
			EntityType: rec.Type,
			Source:     source,
			Elapsed:    p.elapsed(),
			Boss:       boss,
		})
	}
}
