package combat

import (
	"sort"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/model"
)

// ContextBuilder assembles the baseline pipeline context for one move.
// Feint and ability presets merge their own mutations after this
// baseline, in the pre-phase.
type ContextBuilder struct {
	reg  *data.Registry
	math MathCore
}

// NewContextBuilder returns a builder over the given registry and
// randomness source.
func NewContextBuilder(reg *data.Registry, math MathCore) *ContextBuilder {
	return &ContextBuilder{reg: reg, math: math}
}

// Build produces the pipeline context for move. target may be nil for
// self-targeted actions.
func (b *ContextBuilder) Build(source, target *model.ActorSnapshot, move model.CombatMove) *Context {
	ctx := &Context{
		Move:     move,
		Source:   source,
		Target:   target,
		Phases:   Phases{RunPreCalc: true, RunCalculator: true, RunPostCalc: true, RunStatsEngine: true},
		Mods:     make(map[string]float64),
		Triggers: make(map[string]bool),
		Result:   NewInteractionResult(),
	}

	switch move.Strategy {
	case model.StrategyInstant:
		// Direct magical action: physical defenses do not apply.
		ctx.Flags.Meta.SourceType = SourceMagic
		ctx.Stages = Stages{
			CheckAccuracy:    true,
			CheckCrit:        true,
			CalculateDamage:  true,
			CalculateHealing: true,
		}

	default: // exchange
		slot := source.Loadout.MainHand
		ctx.Flags.Meta.SourceType = SourceMainHand
		if move.Payload.Slot == model.SlotOffHand {
			slot = source.Loadout.OffHand
			ctx.Flags.Meta.SourceType = SourceOffHand
		}
		ctx.Flags.Meta.WeaponClass = model.WeaponClass(slot)
		ctx.Stages = Stages{
			CheckAccuracy:   true,
			CheckEvasion:    true,
			CheckParry:      true,
			CheckBlock:      true,
			CheckCrit:       true,
			CalculateDamage: true,
		}

		// Dual-wield proc is rolled here, before accuracy, so it
		// consumes RNG even on a miss. Off-hand follow-ups never
		// proc another follow-up.
		if ctx.Flags.Meta.SourceType == SourceMainHand && source.Loadout.HasOffHandWeapon() {
			chance := clamp01(source.Stat(data.StatSkillDualWield) / 100)
			if b.math.CheckChance(chance) {
				ctx.Result.ChainEvents["trigger_offhand_attack"] = true
			}
		}
	}

	if target != nil {
		ctx.Flags.Meta.TargetArmorClass = target.Loadout.Armor
		if target.Loadout.HasShield() {
			ctx.Flags.Mastery.ShieldReflect = true
		}
	}

	// Control statuses override context flags: the afflicted actor's
	// source behavior applies when it acts, target behavior when it is
	// acted upon.
	applyControlBehaviors(ctx, source, true)
	applyControlBehaviors(ctx, target, false)

	if source.State.IsDead() {
		ctx.Phases = Phases{}
	}

	return ctx
}

func applyControlBehaviors(ctx *Context, actor *model.ActorSnapshot, asSource bool) {
	if actor == nil {
		return
	}
	for _, eff := range actor.Effects {
		if eff.Control == nil {
			continue
		}
		behavior := eff.Control.TargetBehavior
		if asSource {
			behavior = eff.Control.SourceBehavior
		}
		for _, path := range sortedPaths(behavior) {
			ApplyMutation(ctx, path, behavior[path])
		}
	}
}

func sortedPaths[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
