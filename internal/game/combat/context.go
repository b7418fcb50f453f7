package combat

import (
	"github.com/duskhall/duskhall/internal/model"
)

// Source types for a move.
const (
	SourceMainHand = "main_hand"
	SourceOffHand  = "off_hand"
	SourceMagic    = "magic"
)

// Phases are the macro-phases of one pipeline run.
type Phases struct {
	RunPreCalc     bool
	RunCalculator  bool
	RunPostCalc    bool
	RunStatsEngine bool
}

// Stages are the fine-grained resolver switches.
type Stages struct {
	CheckAccuracy    bool
	CheckEvasion     bool
	CheckParry       bool
	CheckBlock       bool
	CheckCrit        bool
	CalculateDamage  bool
	CalculateHealing bool
}

// MetaFlags describe what kind of strike this is.
type MetaFlags struct {
	SourceType       string
	WeaponClass      string
	TargetArmorClass string
}

// ForceFlags short-circuit resolver rolls.
type ForceFlags struct {
	Hit   bool
	Miss  bool
	Crit  bool
	Dodge bool
}

// RestrictionFlags disable defensive stages outright.
type RestrictionFlags struct {
	IgnoreBlock   bool
	IgnoreParry   bool
	IgnoreEvasion bool
}

// FormulaFlags tweak the numeric formulas mid-resolution.
type FormulaFlags struct {
	CanPierce   bool
	ParryHalved bool
	BlockHalved bool
}

// MasteryFlags carry loadout-derived specials.
type MasteryFlags struct {
	ShieldReflect bool
}

// Flags groups every boolean knob of a pipeline run.
type Flags struct {
	Meta        MetaFlags
	Force       ForceFlags
	Restriction RestrictionFlags
	Formula     FormulaFlags
	Mastery     MasteryFlags
}

// Context is the working memory of one move resolution. It is built by
// BuildContext, mutated by feints, triggers, and the resolver, and
// discarded when the pipeline returns its result.
type Context struct {
	Move   model.CombatMove
	Source *model.ActorSnapshot
	Target *model.ActorSnapshot

	Phases Phases
	Stages Stages
	Flags  Flags

	// Mods are temporary numeric overrides scoped to this move. A mod
	// keyed by a stat name shadows the source's cached value; other
	// keys carry trigger-supplied knobs (crit_damage_boost,
	// weapon_effect_value).
	Mods map[string]float64

	// Triggers maps trigger-rule id → armed. The resolver only fires
	// rules whose bit is set here.
	Triggers map[string]bool

	Result *InteractionResult

	// Invalid marks the move dropped in the pre-phase (unknown feint,
	// unaffordable cost). The pipeline aborts with an empty result.
	Invalid bool

	// TempSourceID scopes feint raw mutations in the source's waterfall
	// so the post-phase can scrub them.
	TempSourceID string
}

// SourceStat resolves a stat for the move source, honoring move-scoped
// overrides in Mods.
func (ctx *Context) SourceStat(name string) float64 {
	if v, ok := ctx.Mods[name]; ok {
		return v
	}
	if ctx.Source == nil {
		return 0
	}
	return ctx.Source.Stat(name)
}

// TargetStat resolves a stat for the move target, 0 when there is none.
func (ctx *Context) TargetStat(name string) float64 {
	if ctx.Target == nil {
		return 0
	}
	return ctx.Target.Stat(name)
}
