package data

import "github.com/duskhall/duskhall/internal/model"

// Effect template types.
const (
	EffectTypeDoT     = "dot"
	EffectTypeHoT     = "hot"
	EffectTypeBuff    = "buff"
	EffectTypeDebuff  = "debuff"
	EffectTypeControl = "control"
)

// EffectTemplate is the static description an active effect is stamped
// from. Base values scale by the power the effect factory receives.
type EffectTemplate struct {
	EffectID string
	Type     string

	// Duration in combat steps, used when params carry none.
	Duration int

	// ResourceImpact is the per-tick resource delta at power 1.0.
	ResourceImpact map[string]int

	// RawModifiers are stat commands merged into the owner's waterfall
	// while the effect is active.
	RawModifiers map[string]string

	ControlLogic *model.ControlInstruction

	// TargetSelf attaches the effect to the move source instead of the
	// target (buffs, regeneration).
	TargetSelf bool

	Tags []string
}

// HasTag reports whether the template carries the given tag.
func (t *EffectTemplate) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// EffectRef references an effect template plus creation params; used by
// trigger mutations (add_effect) and feint post-effect lists.
type EffectRef struct {
	EffectID string
	Params   model.EffectParams

	// FromDamage scales the effect from the damage dealt by the move
	// that queued it (bleeds).
	FromDamage bool
}

// TriggerRule binds an event to conditional context mutations.
type TriggerRule struct {
	ID     string
	Event  string
	Chance float64

	// Mutations are dotted-path writes into the pipeline context,
	// applied in sorted path order when the chance roll passes.
	Mutations map[string]any
}

// FeintConfig is a tactical move template: what it costs, what it
// twists on the next strike, and what it leaves behind.
type FeintConfig struct {
	ID string

	// Cost in tokens, deducted in the pre-phase. Unaffordable cost
	// drops the move.
	Cost map[string]int

	// RawMutations are stat commands merged into the source's waterfall
	// as a move-scoped temp source.
	RawMutations map[string]string

	// PipelineMutations are dotted-path context writes merged after the
	// baseline context is built.
	PipelineMutations map[string]any

	// Triggers lists trigger-rule ids armed for this move.
	Triggers []string

	// Effects are attached in the post-phase.
	Effects []EffectRef
}
