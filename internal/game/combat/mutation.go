package combat

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/duskhall/duskhall/internal/data"
)

// ApplyMutation writes a dotted-path value into the pipeline context.
// Paths form an explicit table rather than reflection walks; an unknown
// path is a configuration error: logged and skipped, never fatal.
func ApplyMutation(ctx *Context, path string, value any) {
	if err := applyMutation(ctx, path, value); err != nil {
		slog.Error("invalid context mutation", "path", path, "value", value, "err", err)
	}
}

func applyMutation(ctx *Context, path string, value any) error {
	switch path {
	case "flags.force.hit":
		ctx.Flags.Force.Hit = asBool(value)
	case "flags.force.miss":
		ctx.Flags.Force.Miss = asBool(value)
	case "flags.force.crit":
		ctx.Flags.Force.Crit = asBool(value)
	case "flags.force.dodge":
		ctx.Flags.Force.Dodge = asBool(value)

	case "flags.restriction.ignore_block":
		ctx.Flags.Restriction.IgnoreBlock = asBool(value)
	case "flags.restriction.ignore_parry":
		ctx.Flags.Restriction.IgnoreParry = asBool(value)
	case "flags.restriction.ignore_evasion":
		ctx.Flags.Restriction.IgnoreEvasion = asBool(value)

	case "flags.formula.can_pierce":
		ctx.Flags.Formula.CanPierce = asBool(value)
	case "flags.formula.parry_halved":
		ctx.Flags.Formula.ParryHalved = asBool(value)
	case "flags.formula.block_halved":
		ctx.Flags.Formula.BlockHalved = asBool(value)

	case "flags.mastery.shield_reflect":
		ctx.Flags.Mastery.ShieldReflect = asBool(value)

	case "phases.run_pre_calc":
		ctx.Phases.RunPreCalc = asBool(value)
	case "phases.run_calculator":
		ctx.Phases.RunCalculator = asBool(value)
	case "phases.run_post_calc":
		ctx.Phases.RunPostCalc = asBool(value)
	case "phases.run_stats_engine":
		ctx.Phases.RunStatsEngine = asBool(value)

	case "stages.check_accuracy":
		ctx.Stages.CheckAccuracy = asBool(value)
	case "stages.check_evasion":
		ctx.Stages.CheckEvasion = asBool(value)
	case "stages.check_parry":
		ctx.Stages.CheckParry = asBool(value)
	case "stages.check_block":
		ctx.Stages.CheckBlock = asBool(value)
	case "stages.check_crit":
		ctx.Stages.CheckCrit = asBool(value)
	case "stages.calculate_damage":
		ctx.Stages.CalculateDamage = asBool(value)
	case "stages.calculate_healing":
		ctx.Stages.CalculateHealing = asBool(value)

	case "add_effect":
		ref, ok := asEffectRef(value)
		if !ok {
			return fmt.Errorf("add_effect value %T is not an effect ref", value)
		}
		ctx.Result.QueuedEffects = append(ctx.Result.QueuedEffects, QueuedEffect{Ref: ref})

	case "apply_bleed":
		if asBool(value) {
			ctx.Result.QueuedEffects = append(ctx.Result.QueuedEffects, QueuedEffect{
				Ref: data.EffectRef{EffectID: data.EffectBleed, FromDamage: true},
			})
		}

	default:
		return applyPrefixedMutation(ctx, path, value)
	}
	return nil
}

func applyPrefixedMutation(ctx *Context, path string, value any) error {
	switch {
	case strings.HasPrefix(path, "chain_events."):
		ctx.Result.ChainEvents[strings.TrimPrefix(path, "chain_events.")] = asBool(value)

	case strings.HasPrefix(path, "mods."):
		ctx.Mods[strings.TrimPrefix(path, "mods.")] = asFloat(value)

	case strings.HasPrefix(path, "triggers."):
		ctx.Triggers[strings.TrimPrefix(path, "triggers.")] = asBool(value)

	case strings.HasPrefix(path, "tokens.attacker."):
		ctx.Result.AwardAttacker(strings.TrimPrefix(path, "tokens.attacker."), asInt(value))

	case strings.HasPrefix(path, "tokens.defender."):
		ctx.Result.AwardDefender(strings.TrimPrefix(path, "tokens.defender."), asInt(value))

	default:
		return fmt.Errorf("unknown mutation path")
	}
	return nil
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case float64:
		return x != 0
	default:
		return false
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case float64:
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asEffectRef(v any) (data.EffectRef, bool) {
	switch x := v.(type) {
	case data.EffectRef:
		return x, true
	case *data.EffectRef:
		return *x, true
	default:
		return data.EffectRef{}, false
	}
}
