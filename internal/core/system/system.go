package system

import "time"

// Phase defines execution ordering within a single simulation tick.
type Phase int

const (
	PhaseEvents     Phase = iota // 0: swap event buffers, dispatch last tick's events
	PhaseUpdate                  // 1: spawn attempts, boss events
	PhasePostUpdate              // 2: zone cooldown/threat decay
	PhaseCleanup                 // 3: end-of-tick bookkeeping
)

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
