package system

import (
	"errors"
	"math"
	"time"

	coresys "github.com/arenad/server/internal/core/system"
	"github.com/arenad/server/internal/data"
	"github.com/arenad/server/internal/rng"
	"github.com/arenad/server/internal/world"
	"go.uber.org/zap"
)

// ErrNoZoneAvailable means every candidate zone is on cooldown. The
// scheduler decides whether to defer the spawn or use a fallback; zone
// selection never silently falls back to uniform weights.
var ErrNoZoneAvailable = errors.New("all candidate zones on cooldown")

type zoneState struct {
	def      data.ZoneDef
	cooldown float64 // seconds remaining
	threat   float64
}

// ZoneManager tracks per-zone cooldown and threat-escalation state.
// Selection weight is base_weight × (1 + threat); threat is consumed on
// selection and additionally decays every tick for a smoother difficulty
// curve. Runs in PhasePostUpdate to decay timers after spawn decisions.
type ZoneManager struct {
	log         *zap.Logger
	zones       map[string]*zoneState
	threatDecay float64 // threat units per second
}

func NewZoneManager(threatDecayPerSec float64, log *zap.Logger) *ZoneManager {
	return &ZoneManager{
		log:         log,
		zones:       make(map[string]*zoneState, 8),
		threatDecay: threatDecayPerSec,
	}
}

func (m *ZoneManager) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Update counts down cooldowns and decays threat.
func (m *ZoneManager) Update(dt time.Duration) {
	secs := dt.Seconds()
	for _, z := range m.zones {
		if z.cooldown > 0 {
			z.cooldown -= secs
			if z.cooldown < 0 {
				z.cooldown = 0
			}
		}
		if z.threat > 0 {
			z.threat -= m.threatDecay * secs
			if z.threat < 0 {
				z.threat = 0
			}
		}
	}
}

// SyncPlan reconciles zone state with a (possibly reloaded) plan: new
// zones appear fresh, surviving zones keep their cooldown and threat,
// removed zones are dropped.
func (m *ZoneManager) SyncPlan(zones []data.ZoneDef) {
	seen := make(map[string]bool, len(zones))
	for _, def := range zones {
		seen[def.ID] = true
		if z, ok := m.zones[def.ID]; ok {
			z.def = def
			continue
		}
		m.zones[def.ID] = &zoneState{def: def}
	}
	for id := range m.zones {
		if !seen[id] {
			delete(m.zones, id)
		}
	}
}

// SelectZone picks one candidate weighted by base × (1 + threat),
// excluding zones on cooldown. The selected zone's threat is consumed.
// Candidates must be passed in a stable order for determinism.
func (m *ZoneManager) SelectZone(candidates []string, stream *rng.Stream) (string, error) {
	entries := make([]weightedEntry, 0, len(candidates))
	for _, id := range candidates {
		z, ok := m.zones[id]
		if !ok {
			m.log.Warn("zone candidate not in plan", zap.String("zone", id))
			continue
		}
		if z.cooldown > 0 {
			continue
		}
		entries = append(entries, weightedEntry{id: id, weight: z.def.Weight * (1 + z.threat)})
	}
	if len(entries) == 0 {
		return "", ErrNoZoneAvailable
	}
	picked, ok := pickWeighted(stream, entries)
	if !ok {
		return "", ErrNoZoneAvailable
	}
	m.zones[picked].threat = 0
	return picked, nil
}

// SetCooldown starts the zone's configured cooldown timer.
func (m *ZoneManager) SetCooldown(zoneID string) {
	if z, ok := m.zones[zoneID]; ok {
		z.cooldown = z.def.Cooldown
	}
}

// EscalateThreat raises the zone's future selection weight until consumed
// by a selection, reset, or decayed away.
func (m *ZoneManager) EscalateThreat(zoneID string, amount float64) {
	if z, ok := m.zones[zoneID]; ok && amount > 0 {
		z.threat += amount
	}
}

// Threat returns the zone's current threat level.
func (m *ZoneManager) Threat(zoneID string) float64 {
	if z, ok := m.zones[zoneID]; ok {
		return z.threat
	}
	return 0
}

// OnCooldown reports whether the zone is currently excluded from selection.
func (m *ZoneManager) OnCooldown(zoneID string) bool {
	z, ok := m.zones[zoneID]
	return ok && z.cooldown > 0
}

// SpawnPosition jitters a spawn position inside the zone's radius using
// the given stream.
func (m *ZoneManager) SpawnPosition(zoneID string, stream *rng.Stream) world.Position {
	z, ok := m.zones[zoneID]
	if !ok {
		return world.Position{}
	}
	if z.def.Radius <= 0 {
		return world.Position{X: z.def.Center.X, Y: z.def.Center.Y}
	}
	angle := stream.Float64() * 2 * math.Pi
	dist := stream.Float64() * z.def.Radius
	return world.Position{
		X: z.def.Center.X + math.Cos(angle)*dist,
		Y: z.def.Center.Y + math.Sin(angle)*dist,
	}
}

// Reset clears all cooldowns and threat for a fresh run.
func (m *ZoneManager) Reset() {
	for _, z := range m.zones {
		z.cooldown = 0
		z.threat = 0
	}
}
