package data

// Attribute names.
const (
	AttrStrength  = "strength"
	AttrDexterity = "dexterity"
	AttrEndurance = "endurance"
	AttrIntellect = "intellect"
	AttrWillpower = "willpower"
)

// Derived modifier names. These are the only stats the resolver reads;
// nothing else in the codebase hard-codes coefficients against them.
const (
	StatMainHandDamageBase   = "main_hand_damage_base"
	StatMainHandDamageSpread = "main_hand_damage_spread"
	StatOffHandDamageBase    = "off_hand_damage_base"
	StatOffHandDamageSpread  = "off_hand_damage_spread"
	StatMagicDamageBase      = "magic_damage_base"
	StatMagicDamageSpread    = "magic_damage_spread"
	StatMainHandCritChance   = "main_hand_crit_chance"
	StatOffHandCritChance    = "off_hand_crit_chance"
	StatMagicCritChance      = "magic_crit_chance"
	StatAccuracy             = "accuracy"
	StatEvasion              = "evasion"
	StatDodgeChance          = "dodge_chance"
	StatAntiDodgeChance      = "anti_dodge_chance"
	StatParryChance          = "parry_chance"
	StatShieldBlockChance    = "shield_block_chance"
	StatShieldBlockPower     = "shield_block_power"
	StatPhysicalResist       = "physical_resist"
	StatMagicResist          = "magic_resist"
	StatArmorPenetration     = "armor_penetration"
	StatMagicPenetration     = "magic_penetration"
	StatDamageReductionFlat  = "damage_reduction_flat"
	StatVampirism            = "vampirism"
	StatThornsDamageFlat     = "thorns_damage_flat"
	StatSkillDualWield       = "skill_dual_wield"
)

// defaultModifierRules maps each attribute to the derived modifiers it
// feeds and the flat coefficient per attribute point. Chance-type stats
// are fractions in [0, 1].
func defaultModifierRules() map[string]map[string]float64 {
	return map[string]map[string]float64{
		AttrStrength: {
			StatMainHandDamageBase: 1.0,
			StatOffHandDamageBase:  0.5,
			StatArmorPenetration:   0.01,
		},
		AttrDexterity: {
			StatAccuracy:           0.01,
			StatDodgeChance:        0.005,
			StatParryChance:        0.005,
			StatMainHandCritChance: 0.004,
			StatOffHandCritChance:  0.004,
		},
		AttrEndurance: {
			StatDamageReductionFlat: 0.2,
			StatPhysicalResist:      0.002,
		},
		AttrIntellect: {
			StatMagicDamageBase:  1.2,
			StatMagicCritChance:  0.004,
			StatMagicPenetration: 0.01,
		},
		AttrWillpower: {
			StatMagicResist: 0.004,
		},
	}
}

// defaultStatNames enumerates every stat the waterfall aggregates.
// Effects or feints touching anything else are configuration errors.
func defaultStatNames() []string {
	return []string{
		AttrStrength, AttrDexterity, AttrEndurance, AttrIntellect, AttrWillpower,
		StatMainHandDamageBase, StatMainHandDamageSpread,
		StatOffHandDamageBase, StatOffHandDamageSpread,
		StatMagicDamageBase, StatMagicDamageSpread,
		StatMainHandCritChance, StatOffHandCritChance, StatMagicCritChance,
		StatAccuracy, StatEvasion,
		StatDodgeChance, StatAntiDodgeChance,
		StatParryChance,
		StatShieldBlockChance, StatShieldBlockPower,
		StatPhysicalResist, StatMagicResist,
		StatArmorPenetration, StatMagicPenetration,
		StatDamageReductionFlat,
		StatVampirism, StatThornsDamageFlat,
		StatSkillDualWield,
	}
}
