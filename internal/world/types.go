package world

import (
	"errors"

	"github.com/arenad/server/internal/data"
)

var (
	// ErrDuplicateID means Register was called for an id that is already
	// alive. Registry desync; logged, never propagated past the caller.
	ErrDuplicateID = errors.New("entity id already registered")

	// ErrUnknownEntity means a lookup or mutation targeted an id the
	// registry does not know. Expected when death races a sync within the
	// same tick; logged, no-op.
	ErrUnknownEntity = errors.New("unknown entity id")
)

// Position is a 2D arena position.
type Position struct {
	X, Y float64
}

// MobState is the pool slot payload for a non-boss combat entity: its
// scaled stats and last position. Owned exclusively by the slot pool.
type MobState struct {
	Type  string
	Tier  data.Tier
	Stats data.Stats
	Pos   Position
}
