package data

// Well-known trigger ids. Feints arm these by id; resolver checkpoints
// fire whichever armed rules match the event.
const (
	TriggerCritBleed      = "crit_bleed"
	TriggerOffhandFollow  = "offhand_followup"
	TriggerOpeningCrit    = "opening_crit"
	TriggerCounterDodge   = "counter_on_dodge"
	TriggerStaggerBlock   = "stagger_on_block"
	TriggerControlStun    = "control_stun"
	TriggerHeavyCritBoost = "heavy_crit_boost"
	TriggerRageOnMiss     = "rage_on_miss"
)

func defaultTriggerRules() []*TriggerRule {
	return []*TriggerRule{
		{
			ID:     TriggerCritBleed,
			Event:  EventCrit,
			Chance: 1.0,
			Mutations: map[string]any{
				"apply_bleed": true,
			},
		},
		{
			ID:     TriggerOffhandFollow,
			Event:  EventHit,
			Chance: 0.35,
			Mutations: map[string]any{
				"chain_events.trigger_offhand_attack": true,
			},
		},
		{
			ID:     TriggerOpeningCrit,
			Event:  EventAccuracyCheck,
			Chance: 1.0,
			Mutations: map[string]any{
				"flags.force.crit": true,
			},
		},
		{
			ID:     TriggerCounterDodge,
			Event:  EventDodge,
			Chance: 0.5,
			Mutations: map[string]any{
				"tokens.defender.counter": 1,
			},
		},
		{
			ID:     TriggerStaggerBlock,
			Event:  EventBlock,
			Chance: 0.25,
			Mutations: map[string]any{
				"tokens.defender.block": 1,
			},
		},
		{
			ID:     TriggerControlStun,
			Event:  EventCheckControl,
			Chance: 0.2,
			Mutations: map[string]any{
				"add_effect": EffectRef{EffectID: EffectStunned},
			},
		},
		{
			ID:     TriggerHeavyCritBoost,
			Event:  EventCrit,
			Chance: 1.0,
			Mutations: map[string]any{
				"mods.crit_damage_boost":  true,
				"mods.weapon_effect_value": 2.0,
			},
		},
		{
			ID:     TriggerRageOnMiss,
			Event:  EventMiss,
			Chance: 1.0,
			Mutations: map[string]any{
				"tokens.attacker.rage": 1,
			},
		},
	}
}
