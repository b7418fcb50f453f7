package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhall/duskhall/internal/data"
)

func emptyContext() *Context {
	return &Context{
		Mods:     make(map[string]float64),
		Triggers: make(map[string]bool),
		Result:   NewInteractionResult(),
	}
}

func TestApplyMutationPaths(t *testing.T) {
	ctx := emptyContext()

	ApplyMutation(ctx, "flags.force.crit", true)
	ApplyMutation(ctx, "flags.restriction.ignore_parry", true)
	ApplyMutation(ctx, "flags.formula.can_pierce", true)
	ApplyMutation(ctx, "stages.check_block", true)
	ApplyMutation(ctx, "phases.run_post_calc", false)
	ApplyMutation(ctx, "mods.crit_damage_boost", 1)
	ApplyMutation(ctx, "mods.weapon_effect_value", 2.0)
	ApplyMutation(ctx, "triggers.crit_bleed", true)
	ApplyMutation(ctx, "tokens.attacker.rage", 2)
	ApplyMutation(ctx, "tokens.defender.counter", 1)
	ApplyMutation(ctx, "chain_events.trigger_offhand_attack", true)

	assert.True(t, ctx.Flags.Force.Crit)
	assert.True(t, ctx.Flags.Restriction.IgnoreParry)
	assert.True(t, ctx.Flags.Formula.CanPierce)
	assert.True(t, ctx.Stages.CheckBlock)
	assert.False(t, ctx.Phases.RunPostCalc)
	assert.InDelta(t, 1.0, ctx.Mods["crit_damage_boost"], 1e-9)
	assert.InDelta(t, 2.0, ctx.Mods["weapon_effect_value"], 1e-9)
	assert.True(t, ctx.Triggers["crit_bleed"])
	assert.Equal(t, 2, ctx.Result.TokensAwardedAttacker["rage"])
	assert.Equal(t, 1, ctx.Result.TokensAwardedDefender["counter"])
	assert.True(t, ctx.Result.ChainEvents["trigger_offhand_attack"])
}

func TestApplyMutationUnknownPathIsSkipped(t *testing.T) {
	ctx := emptyContext()
	before := *ctx.Result

	ApplyMutation(ctx, "flags.force.teleport", true)
	ApplyMutation(ctx, "no.such.path", 42)

	assert.Equal(t, before.Events, ctx.Result.Events)
	assert.Equal(t, Flags{}, ctx.Flags)
}

func TestApplyMutationQueuesEffects(t *testing.T) {
	ctx := emptyContext()

	ApplyMutation(ctx, "apply_bleed", true)
	ApplyMutation(ctx, "add_effect", data.EffectRef{EffectID: data.EffectStunned})
	ApplyMutation(ctx, "add_effect", "not an effect ref") // config error, skipped

	require.Len(t, ctx.Result.QueuedEffects, 2)
	assert.Equal(t, data.EffectBleed, ctx.Result.QueuedEffects[0].Ref.EffectID)
	assert.True(t, ctx.Result.QueuedEffects[0].Ref.FromDamage)
	assert.Equal(t, data.EffectStunned, ctx.Result.QueuedEffects[1].Ref.EffectID)
}

func TestApplyMutationValueCoercion(t *testing.T) {
	ctx := emptyContext()

	// Registry-sourced mutation values arrive as untyped constants of
	// several shapes; all of them must coerce.
	ApplyMutation(ctx, "flags.force.hit", 1)
	ApplyMutation(ctx, "mods.weapon_effect_value", 3)
	ApplyMutation(ctx, "tokens.attacker.hit", 2.0)

	assert.True(t, ctx.Flags.Force.Hit)
	assert.InDelta(t, 3.0, ctx.Mods["weapon_effect_value"], 1e-9)
	assert.Equal(t, 2, ctx.Result.TokensAwardedAttacker["hit"])
}
