package data

import "github.com/duskhall/duskhall/internal/model"

// Well-known effect ids referenced by triggers and feints.
const (
	EffectBleed      = "bleed"
	EffectPoison     = "poison"
	EffectRegrowth   = "regrowth"
	EffectBattleFury = "battle_fury"
	EffectWeakness   = "weakness"
	EffectStunned    = "stunned"
	EffectBlinded    = "blinded"
	EffectGuardUp    = "guard_up"
)

func defaultEffectTemplates() []*EffectTemplate {
	return []*EffectTemplate{
		{
			EffectID:       EffectBleed,
			Type:           EffectTypeDoT,
			Duration:       3,
			ResourceImpact: map[string]int{"hp": -3},
			Tags:           []string{"bleed", "physical"},
		},
		{
			EffectID:       EffectPoison,
			Type:           EffectTypeDoT,
			Duration:       4,
			ResourceImpact: map[string]int{"hp": -4},
			Tags:           []string{"poison"},
		},
		{
			EffectID:       EffectRegrowth,
			Type:           EffectTypeHoT,
			Duration:       3,
			ResourceImpact: map[string]int{"hp": 6},
			TargetSelf:     true,
			Tags:           []string{"nature"},
		},
		{
			EffectID: EffectBattleFury,
			Type:     EffectTypeBuff,
			Duration: 2,
			RawModifiers: map[string]string{
				StatMainHandDamageBase: "*1.2",
				StatOffHandDamageBase:  "*1.2",
			},
			TargetSelf: true,
			Tags:       []string{"fury"},
		},
		{
			EffectID: EffectWeakness,
			Type:     EffectTypeDebuff,
			Duration: 3,
			RawModifiers: map[string]string{
				StatMainHandDamageBase: "*0.8",
			},
			Tags: []string{"curse"},
		},
		{
			EffectID: EffectStunned,
			Type:     EffectTypeControl,
			Duration: 1,
			ControlLogic: &model.ControlInstruction{
				StatusName: "stun",
				SourceBehavior: map[string]bool{
					"phases.run_pre_calc":   false,
					"phases.run_calculator": false,
					"phases.run_post_calc":  false,
				},
			},
			Tags: []string{"control"},
		},
		{
			EffectID: EffectBlinded,
			Type:     EffectTypeControl,
			Duration: 2,
			ControlLogic: &model.ControlInstruction{
				StatusName: "blind",
				SourceBehavior: map[string]bool{
					"flags.force.miss": true,
				},
			},
			Tags: []string{"control"},
		},
		{
			EffectID: EffectGuardUp,
			Type:     EffectTypeBuff,
			Duration: 2,
			RawModifiers: map[string]string{
				StatShieldBlockChance: "+0.15",
			},
			TargetSelf: true,
			Tags:       []string{"guard"},
		},
	}
}
