package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

// stubMath rolls every chance against a fixed threshold and collapses
// ranges to their midpoint, making resolution fully scripted.
type stubMath struct{ roll float64 }

func (m stubMath) CheckChance(p float64) bool         { return p > m.roll }
func (m stubMath) RandomRange(lo, hi float64) float64 { return (lo + hi) / 2 }

func testActor(id, team string, hp int, cache map[string]float64) *model.ActorSnapshot {
	if cache == nil {
		cache = make(map[string]float64)
	}
	return &model.ActorSnapshot{
		ID:   id,
		Team: team,
		State: model.ActorState{
			HP: hp, MaxHP: hp,
			EN: 20, MaxEN: 20,
			Stamina: 50,
			Tokens:  make(map[string]int),
		},
		Loadout: model.Loadout{MainHand: "skill_swords"},
		Stats: &stats.Document{
			Raw:         stats.NewRaw(),
			Cache:       cache,
			Explanation: make(map[string]string),
		},
	}
}

func exchangeMove(source, target string) model.CombatMove {
	return model.CombatMove{
		MoveID:   "mv-" + source,
		SourceID: source,
		Strategy: model.StrategyExchange,
		Payload:  model.MovePayload{TargetID: target},
	}
}

func resolve(t *testing.T, reg *data.Registry, math MathCore, caps Caps, source, target *model.ActorSnapshot, mutations map[string]any) *InteractionResult {
	t.Helper()
	ctx := NewContextBuilder(reg, math).Build(source, target, exchangeMove(source.ID, target.ID))
	for path, v := range mutations {
		ApplyMutation(ctx, path, v)
	}
	return NewResolver(reg, math, caps).Resolve(ctx)
}

func TestResolveForceHitOverridesAccuracy(t *testing.T) {
	source := testActor("a", "red", 100, nil) // accuracy 0
	target := testActor("b", "blue", 100, nil)

	res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(),
		source, target, map[string]any{"flags.force.hit": true})

	assert.False(t, res.IsMiss)
	assert.Zero(t, res.TokensAwardedDefender[model.TokenTempo])
}

func TestResolveForceCritMarksCrit(t *testing.T) {
	source := testActor("a", "red", 100, map[string]float64{
		data.StatAccuracy:           1,
		data.StatMainHandDamageBase: 30,
	})
	target := testActor("b", "blue", 100, nil)

	res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(),
		source, target, map[string]any{"flags.force.crit": true})

	assert.True(t, res.IsCrit)
	assert.Equal(t, 30, res.DamageFinal, "physical crit multiplier defaults to 1.0")
}

func TestResolveIgnoreBlockSuppressesBlock(t *testing.T) {
	source := testActor("a", "red", 100, map[string]float64{
		data.StatAccuracy:           1,
		data.StatMainHandDamageBase: 10,
	})
	target := testActor("b", "blue", 100, map[string]float64{
		data.StatShieldBlockChance: 1,
		data.StatShieldBlockPower:  0.5,
	})

	res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(),
		source, target, map[string]any{"flags.restriction.ignore_block": true})

	assert.False(t, res.IsBlocked)
	assert.Equal(t, 10, res.DamageFinal)
}

func TestResolveDamageNeverNegative(t *testing.T) {
	source := testActor("a", "red", 100, map[string]float64{
		data.StatAccuracy:           1,
		data.StatMainHandDamageBase: 5,
	})
	target := testActor("b", "blue", 100, map[string]float64{
		data.StatDamageReductionFlat: 999,
	})

	res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(), source, target, nil)

	assert.Equal(t, 0, res.DamageFinal)
	assert.False(t, res.IsHit)
	requireSingleTerminal(t, res, EventTypeAbsorbed)
}

func TestResolveMitigationNeverAmplifies(t *testing.T) {
	const base = 40.0
	for _, resist := range []float64{-2, -0.5, 0, 0.3, 0.85, 2, 10} {
		source := testActor("a", "red", 100, map[string]float64{
			data.StatAccuracy:           1,
			data.StatMainHandDamageBase: base,
		})
		target := testActor("b", "blue", 100, map[string]float64{
			data.StatPhysicalResist: resist,
		})

		res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(),
			source, target, map[string]any{"flags.force.crit": true})

		assert.LessOrEqual(t, res.DamageFinal, int(base*critMultPhysical), "resist %v", resist)
		assert.GreaterOrEqual(t, res.DamageFinal, 0, "resist %v", resist)
	}
}

func TestResolveMissAwardsTempo(t *testing.T) {
	source := testActor("a", "red", 100, nil) // accuracy 0 guarantees the miss
	target := testActor("b", "blue", 100, nil)

	res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(), source, target, nil)

	assert.True(t, res.IsMiss)
	assert.Equal(t, 1, res.TokensAwardedDefender[model.TokenTempo])
	assert.Zero(t, res.DamageFinal)
	requireSingleTerminal(t, res, EventTypeMiss)
}

func TestResolveEveryPathHasOneTerminalEvent(t *testing.T) {
	tests := []struct {
		name        string
		sourceCache map[string]float64
		targetCache map[string]float64
		roll        float64
		terminal    string
	}{
		{
			name:     "miss",
			roll:     0.5,
			terminal: EventTypeMiss,
		},
		{
			name:        "dodge",
			sourceCache: map[string]float64{data.StatAccuracy: 1},
			targetCache: map[string]float64{data.StatDodgeChance: 1},
			roll:        0.5,
			terminal:    EventTypeDodge,
		},
		{
			name:        "parry",
			sourceCache: map[string]float64{data.StatAccuracy: 1},
			targetCache: map[string]float64{data.StatParryChance: 1},
			roll:        0.4,
			terminal:    EventTypeParry,
		},
		{
			name: "hit",
			sourceCache: map[string]float64{
				data.StatAccuracy:           1,
				data.StatMainHandDamageBase: 10,
			},
			roll:     0.5,
			terminal: EventTypeHit,
		},
		{
			name:        "absorbed",
			sourceCache: map[string]float64{data.StatAccuracy: 1},
			roll:        0.5,
			terminal:    EventTypeAbsorbed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := testActor("a", "red", 100, tt.sourceCache)
			target := testActor("b", "blue", 100, tt.targetCache)

			res := resolve(t, data.Default(), stubMath{roll: tt.roll}, DefaultCaps(), source, target, nil)
			requireSingleTerminal(t, res, tt.terminal)
		})
	}
}

func TestResolveShieldBlockPartialAbsorb(t *testing.T) {
	reg := data.New(
		nil, nil,
		[]*data.TriggerRule{{
			ID:        "block_reward",
			Event:     data.EventBlock,
			Chance:    1.0,
			Mutations: map[string]any{"tokens.defender.gift": 1},
		}},
		nil,
		[]string{data.StatAccuracy, data.StatMainHandDamageBase, data.StatShieldBlockChance, data.StatShieldBlockPower},
	)

	source := testActor("a", "red", 100, map[string]float64{
		data.StatAccuracy:           1,
		data.StatMainHandDamageBase: 100,
	})
	target := testActor("b", "blue", 100, map[string]float64{
		data.StatShieldBlockChance: 1,
		data.StatShieldBlockPower:  0.5,
	})

	caps := Caps{Resistance: 0.85, Dodge: 0.75, Block: 1.0, Parry: 0.50}
	math := stubMath{roll: 0.5}
	ctx := NewContextBuilder(reg, math).Build(source, target, exchangeMove("a", "b"))
	ctx.Triggers["block_reward"] = true
	res := NewResolver(reg, math, caps).Resolve(ctx)

	assert.True(t, res.IsBlocked)
	assert.Equal(t, 50, res.DamageFinal)
	assert.Equal(t, 50, res.ShieldDamage)
	assert.Equal(t, 1, res.TokensAwardedDefender["gift"], "armed ON_BLOCK trigger must fire")
	requireSingleTerminal(t, res, EventTypeHit)
}

func TestResolveLifestealAndThorns(t *testing.T) {
	source := testActor("a", "red", 100, map[string]float64{
		data.StatAccuracy:           1,
		data.StatMainHandDamageBase: 20,
		data.StatVampirism:          0.25,
	})
	target := testActor("b", "blue", 100, map[string]float64{
		data.StatThornsDamageFlat: 3,
	})

	res := resolve(t, data.Default(), stubMath{roll: 0.5}, DefaultCaps(), source, target, nil)

	assert.Equal(t, 20, res.DamageFinal)
	assert.Equal(t, 5, res.LifestealAmount)
	assert.Equal(t, 3, res.ThornsDamage)
}

func requireSingleTerminal(t *testing.T, res *InteractionResult, wantType string) {
	t.Helper()
	var terminals []string
	for _, e := range res.Events {
		for _, tag := range e.Tags {
			if tag == TagTerminal {
				terminals = append(terminals, e.Type)
			}
		}
	}
	require.Len(t, terminals, 1, "events: %+v", res.Events)
	require.Equal(t, wantType, terminals[0])
}
