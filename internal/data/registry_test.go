package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryWiring(t *testing.T) {
	r := Default()

	assert.True(t, r.KnownStat(AttrStrength))
	assert.True(t, r.KnownStat(StatAccuracy))
	assert.False(t, r.KnownStat("charisma"))

	assert.True(t, r.IsAttribute(AttrDexterity))
	assert.False(t, r.IsAttribute(StatAccuracy), "derived stats are not attributes")

	// Every modifier rule must point at registered stats only.
	for attr, mods := range r.ModifierRules() {
		assert.True(t, r.KnownStat(attr), "attribute %s", attr)
		for stat := range mods {
			assert.True(t, r.KnownStat(stat), "%s feeds unknown stat %s", attr, stat)
		}
	}
}

func TestDefaultEffectTemplatesResolvable(t *testing.T) {
	r := Default()

	bleed, ok := r.EffectTemplate("bleed")
	require.True(t, ok)
	assert.Positive(t, bleed.Duration)

	_, ok = r.EffectTemplate("no_such_effect")
	assert.False(t, ok)
}

func TestTriggersForEventSortedByID(t *testing.T) {
	r := New(
		nil,
		nil,
		[]*TriggerRule{
			{ID: "t_zeta", Event: EventCrit},
			{ID: "t_alpha", Event: EventCrit},
			{ID: "t_mid", Event: EventCrit},
			{ID: "t_other", Event: EventBlock},
		},
		nil,
		nil,
	)

	rules := r.TriggersForEvent(EventCrit)
	require.Len(t, rules, 3)
	assert.Equal(t, "t_alpha", rules[0].ID)
	assert.Equal(t, "t_mid", rules[1].ID)
	assert.Equal(t, "t_zeta", rules[2].ID)

	assert.Empty(t, r.TriggersForEvent("ON_NOTHING"))
}

func TestDefaultTriggerRulesReferenceKnownEffects(t *testing.T) {
	r := Default()

	for _, event := range []string{
		EventAccuracyCheck, EventCrit, EventBlock, EventDodge, EventDodgeFail,
		EventParry, EventParryFail, EventHit, EventMiss, EventCheckControl,
	} {
		for _, rule := range r.TriggersForEvent(event) {
			byID, ok := r.TriggerRule(rule.ID)
			require.True(t, ok)
			assert.Same(t, rule, byID)
		}
	}
}

func TestFeintsSortedAndAffordabilityData(t *testing.T) {
	r := Default()

	feints := r.Feints()
	require.NotEmpty(t, feints)
	for i := 1; i < len(feints); i++ {
		assert.Less(t, feints[i-1].ID, feints[i].ID)
	}
	for _, f := range feints {
		got, ok := r.Feint(f.ID)
		require.True(t, ok)
		assert.Same(t, f, got)
	}

	_, ok := r.Feint("no_such_feint")
	assert.False(t, ok)
}
