package data

import "github.com/duskhall/duskhall/internal/model"

// Well-known feint ids.
const (
	FeintPowerStrike   = "power_strike"
	FeintLunge         = "lunge"
	FeintShieldBreaker = "shield_breaker"
	FeintExecutioner   = "executioner"
	FeintRendingCut    = "rending_cut"
	FeintWarCry        = "war_cry"
)

func defaultFeints() []*FeintConfig {
	return []*FeintConfig{
		{
			ID:   FeintPowerStrike,
			Cost: map[string]int{model.TokenHit: 2},
			RawMutations: map[string]string{
				StatMainHandDamageBase: "*1.3",
			},
			Triggers: []string{TriggerCritBleed},
		},
		{
			ID:   FeintLunge,
			Cost: map[string]int{model.TokenTempo: 1},
			PipelineMutations: map[string]any{
				"flags.restriction.ignore_parry": true,
				"flags.formula.can_pierce":       true,
			},
		},
		{
			ID:   FeintShieldBreaker,
			Cost: map[string]int{model.TokenHit: 1},
			PipelineMutations: map[string]any{
				"flags.restriction.ignore_block": true,
			},
		},
		{
			ID:   FeintExecutioner,
			Cost: map[string]int{model.TokenCrit: 2},
			PipelineMutations: map[string]any{
				"flags.force.crit": true,
			},
			Effects: []EffectRef{
				{EffectID: EffectBleed, FromDamage: true},
			},
		},
		{
			ID:   FeintRendingCut,
			Cost: map[string]int{model.TokenHit: 1, model.TokenTempo: 1},
			Triggers: []string{
				TriggerCritBleed,
				TriggerHeavyCritBoost,
			},
			Effects: []EffectRef{
				{EffectID: EffectWeakness},
			},
		},
		{
			ID:   FeintWarCry,
			Cost: map[string]int{model.TokenRage: 1},
			Effects: []EffectRef{
				{EffectID: EffectBattleFury},
			},
		},
	}
}
