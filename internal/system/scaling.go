package system

import (
	"github.com/arenad/server/internal/data"
	"go.uber.org/zap"
)

// ScalingResolver computes stat multipliers from elapsed run time and tier.
// Time multipliers are stepwise: the multiplier of the greatest threshold
// ≤ elapsed applies, no interpolation. Tier multipliers are a direct
// lookup. Scaling is a tuning concern: an unknown tier warns and defaults
// to 1.0, it never fails a spawn.
type ScalingResolver struct {
	log    *zap.Logger
	steps  []data.ScalingStep // sorted ascending by threshold at load
	tiers  map[data.Tier]float64
	warned map[data.Tier]bool
}

func NewScalingResolver(cfg data.ScalingConfig, log *zap.Logger) *ScalingResolver {
	return &ScalingResolver{
		log:    log,
		steps:  cfg.Time,
		tiers:  cfg.TierMults,
		warned: make(map[data.Tier]bool, 4),
	}
}

// Resolve returns base stats scaled by time and tier, per stat:
// final = base × time_mult × tier_mult.
func (r *ScalingResolver) Resolve(base data.Stats, elapsed float64, tier data.Tier) data.Stats {
	mult := r.timeMult(elapsed) * r.tierMult(tier)
	return data.Stats{
		Health: base.Health * mult,
		Speed:  base.Speed * mult,
		Damage: base.Damage * mult,
	}
}

func (r *ScalingResolver) timeMult(elapsed float64) float64 {
	mult := 1.0
	for _, step := range r.steps {
		if step.At > elapsed {
			break
		}
		mult = step.Mult
	}
	return mult
}

func (r *ScalingResolver) tierMult(tier data.Tier) float64 {
	if m, ok := r.tiers[tier]; ok {
		return m
	}
	if !r.warned[tier] {
		r.warned[tier] = true
		r.log.Warn("no multiplier configured for tier, using 1.0", zap.Stringer("tier", tier))
	}
	return 1.0
}
