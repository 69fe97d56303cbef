package ecs

import "errors"

var (
	// ErrNoCapacity is returned by Allocate when every slot is occupied.
	// Callers skip the attempt and retry on a later tick; they never block.
	ErrNoCapacity = errors.New("entity pool exhausted")

	// ErrStaleHandle is returned by Free when the handle's generation no
	// longer matches the slot. Expected under normal churn (double-free,
	// death racing a sync); callers log at debug level and move on.
	ErrStaleHandle = errors.New("stale entity handle")
)

// SlotPool is fixed-capacity slot storage for pooled entities. Each slot
// carries a payload of type T (stats, position) owned exclusively by the
// pool; freed slots are reused via a free list with a generation bump.
type SlotPool[T any] struct {
	slots    []slot[T]
	freeList []uint32
	scratch  []EntityID
}

type slot[T any] struct {
	generation uint32
	occupied   bool
	payload    T
}

func NewSlotPool[T any](capacity int) *SlotPool[T] {
	p := &SlotPool[T]{
		slots:    make([]slot[T], capacity),
		freeList: make([]uint32, capacity),
		scratch:  make([]EntityID, 0, capacity),
	}
	for i := range p.slots {
		// Generation starts at 1 so a valid handle is never the zero ID.
		p.slots[i].generation = 1
		p.freeList[i] = uint32(capacity - 1 - i)
	}
	return p
}

// Allocate claims a free slot, stores the payload, and returns its handle.
func (p *SlotPool[T]) Allocate(payload T) (EntityID, error) {
	if len(p.freeList) == 0 {
		return 0, ErrNoCapacity
	}
	idx := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	s := &p.slots[idx]
	s.occupied = true
	s.payload = payload
	return NewEntityID(idx, s.generation), nil
}

// Free releases the slot and increments its generation. A stale-generation
// free is a no-op so double-frees cannot corrupt a later occupant.
func (p *SlotPool[T]) Free(id EntityID) error {
	idx := id.Index()
	if int(idx) >= len(p.slots) {
		return ErrStaleHandle
	}
	s := &p.slots[idx]
	if !s.occupied || s.generation != id.Generation() {
		return ErrStaleHandle
	}
	s.occupied = false
	s.generation++
	var zero T
	s.payload = zero
	p.freeList = append(p.freeList, idx)
	return nil
}

// Get returns a pointer to the slot payload for O(1) direct writes, or
// false if the handle is stale or out of range.
func (p *SlotPool[T]) Get(id EntityID) (*T, bool) {
	idx := id.Index()
	if int(idx) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[idx]
	if !s.occupied || s.generation != id.Generation() {
		return nil, false
	}
	return &s.payload, true
}

func (p *SlotPool[T]) Alive(id EntityID) bool {
	_, ok := p.Get(id)
	return ok
}

// LiveHandles returns the current alive set. The returned slice is backed
// by an internal scratch buffer reused across calls; it is valid until the
// next LiveHandles call and must not be retained.
func (p *SlotPool[T]) LiveHandles() []EntityID {
	p.scratch = p.scratch[:0]
	for i := range p.slots {
		if p.slots[i].occupied {
			p.scratch = append(p.scratch, NewEntityID(uint32(i), p.slots[i].generation))
		}
	}
	return p.scratch
}

func (p *SlotPool[T]) LiveCount() int {
	return len(p.slots) - len(p.freeList)
}

func (p *SlotPool[T]) Capacity() int {
	return len(p.slots)
}
