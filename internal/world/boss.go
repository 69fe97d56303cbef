package world

import (
	"github.com/arenad/server/internal/core/ecs"
	"github.com/arenad/server/internal/data"
)

// Boss ids live above this slot index so they can never collide with pool
// handles. The pool capacity is validated against it at session start.
const BossIndexBase = 1 << 20

// BossInstance is an independently-owned boss entity. Bosses bypass the
// slot pool: they are few, long-lived, and tied to a triggering event.
type BossInstance struct {
	ID       ecs.EntityID
	EventID  string
	Template string
	Tier     data.Tier
	Stats    data.Stats
	Pos      Position
}

// BossTable owns all live boss instances. Indexes are never reused, so a
// boss handle stays unique for the whole run.
type BossTable struct {
	instances map[ecs.EntityID]*BossInstance
	nextIndex uint32
}

func NewBossTable() *BossTable {
	return &BossTable{
		instances: make(map[ecs.EntityID]*BossInstance, 4),
		nextIndex: BossIndexBase,
	}
}

// Spawn creates a boss instance and returns it with a fresh id.
func (t *BossTable) Spawn(eventID, template string, tier data.Tier, stats data.Stats, pos Position) *BossInstance {
	id := ecs.NewEntityID(t.nextIndex, 1)
	t.nextIndex++
	b := &BossInstance{
		ID:       id,
		EventID:  eventID,
		Template: template,
		Tier:     tier,
		Stats:    stats,
		Pos:      pos,
	}
	t.instances[id] = b
	return b
}

// Get returns a live boss by id, or false.
func (t *BossTable) Get(id ecs.EntityID) (*BossInstance, bool) {
	b, ok := t.instances[id]
	return b, ok
}

// Remove tears down a boss instance. Safe to call repeatedly.
func (t *BossTable) Remove(id ecs.EntityID) {
	delete(t.instances, id)
}

// Len returns the number of live bosses.
func (t *BossTable) Len() int {
	return len(t.instances)
}
