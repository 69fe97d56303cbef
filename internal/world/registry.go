package world

import (
	"github.com/arenad/server/internal/core/ecs"
	"go.uber.org/zap"
)

// Record is one registry entry: the single source of truth for an entity's
// type, position, health and aliveness. One-to-one with a live pool slot
// or an independently-owned boss instance.
type Record struct {
	ID     ecs.EntityID
	Type   string
	Alive  bool
	Health float64
	Pos    Position
}

// Registry maps entity id → record and maintains a type index so
// get-alive-by-type queries cost O(result size) rather than O(total
// entities). All mutation goes through this API; no caller touches the
// maps directly. Single-writer: the simulation goroutine.
type Registry struct {
	log     *zap.Logger
	records map[ecs.EntityID]*Record
	byType  map[string]map[ecs.EntityID]struct{}
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		log:     log,
		records: make(map[ecs.EntityID]*Record, 256),
		byType:  make(map[string]map[ecs.EntityID]struct{}, 16),
	}
}

// Register inserts a new alive entity. Fails with ErrDuplicateID if the id
// is already alive; the caller rolls back its pool allocation so no
// partially-registered state is ever observable.
func (r *Registry) Register(id ecs.EntityID, entityType string, pos Position, health float64) error {
	if _, exists := r.records[id]; exists {
		return ErrDuplicateID
	}
	r.records[id] = &Record{
		ID:     id,
		Type:   entityType,
		Alive:  true,
		Health: health,
		Pos:    pos,
	}
	idx := r.byType[entityType]
	if idx == nil {
		idx = make(map[ecs.EntityID]struct{}, 16)
		r.byType[entityType] = idx
	}
	idx[id] = struct{}{}
	return nil
}

// UpdatePosition writes an entity's last position. Unknown ids are a
// logged no-op: death and position sync can race within the same tick.
func (r *Registry) UpdatePosition(id ecs.EntityID, pos Position) {
	rec, ok := r.records[id]
	if !ok {
		r.log.Debug("position update for unknown entity", zap.Uint64("id", uint64(id)))
		return
	}
	rec.Pos = pos
}

// UpdateHealth writes an entity's health. Unknown ids are a logged no-op.
func (r *Registry) UpdateHealth(id ecs.EntityID, health float64) {
	rec, ok := r.records[id]
	if !ok {
		r.log.Debug("health update for unknown entity", zap.Uint64("id", uint64(id)))
		return
	}
	rec.Health = health
}

// Unregister removes an entity. Safe to call repeatedly; the second call
// is a no-op.
func (r *Registry) Unregister(id ecs.EntityID) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	delete(r.records, id)
	if idx := r.byType[rec.Type]; idx != nil {
		delete(idx, id)
		if len(idx) == 0 {
			delete(r.byType, rec.Type)
		}
	}
}

// Get returns the record for an id, or false.
func (r *Registry) Get(id ecs.EntityID) (*Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// AliveByType returns the ids of all alive entities of the given type.
// Backed by the incrementally-maintained type index.
func (r *Registry) AliveByType(entityType string) []ecs.EntityID {
	idx := r.byType[entityType]
	if len(idx) == 0 {
		return nil
	}
	ids := make([]ecs.EntityID, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	return ids
}

// AliveCount returns how many entities of the given type are alive, O(1).
func (r *Registry) AliveCount(entityType string) int {
	return len(r.byType[entityType])
}

// AliveIDs returns every alive id. Used by bulk clear and run reset.
func (r *Registry) AliveIDs() []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the total number of registered entities.
func (r *Registry) Len() int {
	return len(r.records)
}

// Snapshot copies every record into a read-only slice for presentation to
// consume between ticks.
func (r *Registry) Snapshot() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}
