package combat

import (
	"log/slog"
	"math"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/model"
)

// Default crit multipliers. Physical crits deal base damage unless a
// weapon trigger supplies crit_damage_boost with a weapon_effect_value;
// magical crits triple.
const (
	critMultPhysical = 1.0
	critMultMagical  = 3.0
)

// Caps are the global mitigation ceilings.
type Caps struct {
	Resistance float64
	Dodge      float64
	Block      float64
	Parry      float64
}

// DefaultCaps returns the stock ceilings.
func DefaultCaps() Caps {
	return Caps{Resistance: 0.85, Dodge: 0.75, Block: 0.75, Parry: 0.50}
}

// Resolver turns a prepared pipeline context into an InteractionResult,
// firing armed triggers at every checkpoint. It never returns an error:
// missing stats read as 0 and bad trigger mutations are logged and
// skipped.
type Resolver struct {
	reg  *data.Registry
	math MathCore
	caps Caps
}

// NewResolver builds a resolver over the registry, randomness source,
// and mitigation caps.
func NewResolver(reg *data.Registry, math MathCore, caps Caps) *Resolver {
	return &Resolver{reg: reg, math: math, caps: caps}
}

// Resolve runs the ordered resolution sequence:
// accuracy → evasion → parry → block → crit → damage → side effects.
// Early stages short-circuit; block is a partial mitigation that lets
// damage proceed. Trigger mutations applied at one checkpoint are
// visible to every later checkpoint of the same move.
func (r *Resolver) Resolve(ctx *Context) *InteractionResult {
	res := ctx.Result

	if r.checkAccuracy(ctx) {
		return res
	}
	if r.checkEvasion(ctx) {
		return res
	}
	if r.checkParry(ctx) {
		return res
	}
	r.checkBlock(ctx)
	r.checkCrit(ctx)
	r.resolveDamage(ctx)
	return res
}

// checkAccuracy returns true when the move misses and resolution stops.
func (r *Resolver) checkAccuracy(ctx *Context) bool {
	if !ctx.Stages.CheckAccuracy || ctx.Flags.Force.Hit {
		return false
	}
	r.fireTriggers(ctx, data.EventAccuracyCheck)
	if ctx.Flags.Force.Hit {
		return false
	}

	hitChance := clamp01(ctx.SourceStat(data.StatAccuracy) - ctx.TargetStat(data.StatEvasion))
	if !ctx.Flags.Force.Miss && r.math.CheckChance(hitChance) {
		return false
	}

	res := ctx.Result
	res.IsMiss = true
	res.AwardDefender(model.TokenTempo, 1)
	res.Terminal(EventTypeMiss)
	r.fireTriggers(ctx, data.EventMiss)
	return true
}

// checkEvasion returns true when the target dodges.
func (r *Resolver) checkEvasion(ctx *Context) bool {
	if !ctx.Stages.CheckEvasion || ctx.Flags.Restriction.IgnoreEvasion || ctx.Flags.Force.Hit {
		return false
	}

	chance := math.Min(ctx.TargetStat(data.StatDodgeChance), r.caps.Dodge)
	chance = clamp01(chance - ctx.SourceStat(data.StatAntiDodgeChance))
	if !ctx.Flags.Force.Dodge && !r.math.CheckChance(chance) {
		r.fireTriggers(ctx, data.EventDodgeFail)
		return false
	}

	res := ctx.Result
	res.IsDodged = true
	res.AwardDefender(model.TokenDodge, 1)
	res.Terminal(EventTypeDodge)
	r.fireTriggers(ctx, data.EventDodge)
	return true
}

// checkParry returns true when the target parries.
func (r *Resolver) checkParry(ctx *Context) bool {
	if !ctx.Stages.CheckParry || ctx.Flags.Restriction.IgnoreParry || ctx.Flags.Force.Hit {
		return false
	}

	chance := math.Min(ctx.TargetStat(data.StatParryChance), r.caps.Parry)
	if ctx.Flags.Formula.ParryHalved {
		chance /= 2
	}
	if !r.math.CheckChance(clamp01(chance)) {
		r.fireTriggers(ctx, data.EventParryFail)
		return false
	}

	res := ctx.Result
	res.IsParried = true
	res.AwardDefender(model.TokenParry, 1)
	res.Terminal(EventTypeParry)
	r.fireTriggers(ctx, data.EventParry)
	return true
}

// checkBlock marks a partial block; damage still proceeds, reduced by
// shield_block_power in the damage stage.
func (r *Resolver) checkBlock(ctx *Context) {
	if !ctx.Stages.CheckBlock || ctx.Flags.Restriction.IgnoreBlock {
		return
	}

	chance := math.Min(ctx.TargetStat(data.StatShieldBlockChance), r.caps.Block)
	if ctx.Flags.Formula.BlockHalved {
		chance /= 2
	}
	if !r.math.CheckChance(clamp01(chance)) {
		return
	}

	ctx.Result.IsBlocked = true
	ctx.Result.AwardDefender(model.TokenBlock, 1)
	ctx.Result.AddEvent(EventTypeBlock)
	r.fireTriggers(ctx, data.EventBlock)
}

func (r *Resolver) checkCrit(ctx *Context) {
	if !ctx.Stages.CheckCrit {
		return
	}

	crit := ctx.Flags.Force.Crit
	if !crit {
		crit = r.math.CheckChance(clamp01(ctx.SourceStat(r.critChanceStat(ctx))))
	}
	if !crit {
		return
	}

	ctx.Result.IsCrit = true
	ctx.Result.AddEvent(EventTypeCrit)
	r.fireTriggers(ctx, data.EventCrit)
}

func (r *Resolver) resolveDamage(ctx *Context) {
	res := ctx.Result
	if !ctx.Stages.CalculateDamage {
		res.Terminal(EventTypeResolved)
		return
	}

	baseStat, spreadStat := r.damageStats(ctx)
	base := ctx.SourceStat(baseStat)
	spread := ctx.SourceStat(spreadStat)
	dmg := math.Max(r.math.RandomRange(base-spread, base+spread), 0)

	if res.IsCrit {
		dmg *= r.critMultiplier(ctx)
	}

	if !ctx.Flags.Formula.CanPierce {
		resist := ctx.TargetStat(r.resistStat(ctx)) - ctx.SourceStat(r.penetrationStat(ctx))
		mitigation := math.Min(math.Max(resist, 0), r.caps.Resistance)
		dmg *= 1 - mitigation
	}

	dmg -= ctx.TargetStat(data.StatDamageReductionFlat)
	if dmg < 0 {
		dmg = 0
	}

	if res.IsBlocked {
		absorbed := math.Floor(dmg * clamp01(ctx.TargetStat(data.StatShieldBlockPower)))
		res.ShieldDamage = int(absorbed)
		dmg -= absorbed
	}

	res.DamageFinal = int(math.Floor(dmg))

	if res.DamageFinal > 0 {
		res.IsHit = true
		res.AwardAttacker(model.TokenHit, 1)
		if res.IsCrit {
			res.AwardAttacker(model.TokenCrit, 1)
		}
		res.Terminal(EventTypeHit)
		r.fireTriggers(ctx, data.EventHit)
	} else {
		res.Terminal(EventTypeAbsorbed)
	}

	// Control attachment checkpoint: lets armed triggers stun, blind,
	// or otherwise shackle the target after the exchange landed.
	r.fireTriggers(ctx, data.EventCheckControl)

	if res.DamageFinal > 0 {
		res.LifestealAmount = int(math.Floor(float64(res.DamageFinal) * ctx.SourceStat(data.StatVampirism)))
		if res.LifestealAmount > 0 {
			res.AddEvent(EventTypeLifesteal)
		}
	}
	if res.IsHit {
		res.ThornsDamage = int(ctx.TargetStat(data.StatThornsDamageFlat))
		if res.ThornsDamage > 0 {
			res.AddEvent(EventTypeThorns)
		}
	}
}

func (r *Resolver) critMultiplier(ctx *Context) float64 {
	if ctx.Mods["crit_damage_boost"] != 0 {
		if v := ctx.Mods["weapon_effect_value"]; v > 0 {
			return v
		}
	}
	if ctx.Flags.Meta.SourceType == SourceMagic {
		return critMultMagical
	}
	return critMultPhysical
}

func (r *Resolver) damageStats(ctx *Context) (base, spread string) {
	switch ctx.Flags.Meta.SourceType {
	case SourceOffHand:
		return data.StatOffHandDamageBase, data.StatOffHandDamageSpread
	case SourceMagic:
		return data.StatMagicDamageBase, data.StatMagicDamageSpread
	default:
		return data.StatMainHandDamageBase, data.StatMainHandDamageSpread
	}
}

func (r *Resolver) critChanceStat(ctx *Context) string {
	switch ctx.Flags.Meta.SourceType {
	case SourceOffHand:
		return data.StatOffHandCritChance
	case SourceMagic:
		return data.StatMagicCritChance
	default:
		return data.StatMainHandCritChance
	}
}

func (r *Resolver) resistStat(ctx *Context) string {
	if ctx.Flags.Meta.SourceType == SourceMagic {
		return data.StatMagicResist
	}
	return data.StatPhysicalResist
}

func (r *Resolver) penetrationStat(ctx *Context) string {
	if ctx.Flags.Meta.SourceType == SourceMagic {
		return data.StatMagicPenetration
	}
	return data.StatArmorPenetration
}

// fireTriggers runs every trigger rule bound to event whose bit is
// armed in the context, rolling its chance and applying its mutations
// in sorted path order. Rules fire in id order so resolution is
// deterministic under a seeded MathCore.
func (r *Resolver) fireTriggers(ctx *Context, event string) {
	for _, rule := range r.reg.TriggersForEvent(event) {
		if !ctx.Triggers[rule.ID] {
			continue
		}
		if rule.Chance < 1 && !r.math.CheckChance(rule.Chance) {
			continue
		}
		slog.Debug("trigger fired", "rule", rule.ID, "event", event, "move", ctx.Move.MoveID)
		for _, path := range sortedPaths(rule.Mutations) {
			ApplyMutation(ctx, path, rule.Mutations[path])
		}
	}
}
