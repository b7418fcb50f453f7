package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/model"
)

func factoryRegistry() *data.Registry {
	return data.New(
		nil,
		[]*data.EffectTemplate{
			{
				EffectID: data.EffectBleed,
				Type:     data.EffectTypeDoT,
				Duration: 3,
				Tags:     []string{"bleed", "physical"},
			},
			{
				EffectID:       "withering",
				Type:           data.EffectTypeDoT,
				Duration:       4,
				ResourceImpact: map[string]int{"hp": -6, "en": -2},
			},
			{
				EffectID:     "war_paint",
				Type:         data.EffectTypeBuff,
				Duration:     2,
				RawModifiers: map[string]string{"accuracy": "+0.1", "bogus_stat": "+1"},
				TargetSelf:   true,
			},
		},
		nil, nil,
		[]string{"accuracy", "dodge_chance"},
	)
}

func TestFactoryBleedScalesFromDamage(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	eff, mutations, err := f.Create(data.EffectBleed, model.EffectParams{}, "a", 10, 30)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"hp": -9}, eff.Impact)
	assert.Equal(t, int64(13), eff.ExpiresAtStep)
	assert.Empty(t, mutations)
	assert.Equal(t, "a", eff.SourceID)
	assert.NotEmpty(t, eff.UID)
}

func TestFactoryBleedFloorsAtOne(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	eff, _, err := f.Create(data.EffectBleed, model.EffectParams{}, "a", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hp": -1}, eff.Impact)
}

func TestFactoryPowerScalesImpact(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	eff, _, err := f.Create("withering", model.EffectParams{Power: 2}, "a", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hp": -12, "en": -4}, eff.Impact)
	assert.InDelta(t, 2.0, eff.Power, 1e-9)
}

func TestFactoryParamsOverrideDuration(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	eff, _, err := f.Create("withering", model.EffectParams{Duration: 1}, "a", 7, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(8), eff.ExpiresAtStep)
}

func TestFactoryDropsUnknownStats(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	eff, mutations, err := f.Create("war_paint", model.EffectParams{}, "a", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"accuracy": "+0.1"}, mutations)
	assert.Equal(t, []string{"accuracy"}, eff.ModifiedKeys)
	assert.True(t, f.TargetsSelf("war_paint"))
	assert.False(t, f.TargetsSelf(data.EffectBleed))
}

func TestFactoryUnknownTemplate(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	_, _, err := f.Create("no_such_effect", model.EffectParams{}, "a", 0, 0)
	require.Error(t, err)
}

func TestFactoryParamMutationsMerge(t *testing.T) {
	f := NewEffectFactory(factoryRegistry())

	params := model.EffectParams{Mutations: map[string]string{
		"accuracy":     "+0.2", // overrides the template's +0.1
		"dodge_chance": "+0.05",
	}}
	eff, mutations, err := f.Create("war_paint", params, "a", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"accuracy": "+0.2", "dodge_chance": "+0.05"}, mutations)
	assert.Equal(t, []string{"accuracy", "dodge_chance"}, eff.ModifiedKeys)
}
