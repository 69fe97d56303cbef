package event

import "github.com/arenad/server/internal/core/ecs"

// Outcome events consumed by presentation/reward/UI collaborators.

type EntityRegistered struct {
	ID   ecs.EntityID
	Type string
	X, Y float64
}

type EntityPositionUpdated struct {
	ID   ecs.EntityID
	X, Y float64
}

type DamageApplied struct {
	ID     ecs.EntityID
	Amount float64
	Source string
	Tags   []string
}

type EntityKilled struct {
	ID     ecs.EntityID
	Type   string
	Source string
	Tags   []string
}

type ZoneSelected struct {
	ZoneID string
}

type BossEventTriggered struct {
	EventID  string
	EntityID ecs.EntityID
}

type BossEventCompleted struct {
	EventID string
}
