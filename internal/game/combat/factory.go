package combat

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/model"
)

// bleedDamageShare is the fraction of the triggering hit carried into a
// bleed's per-tick impact.
const bleedDamageShare = 0.3

// EffectFactory stamps active effects from registry templates. Pure
// over template + params; it never resolves other abilities, which
// keeps effect/ability references acyclic.
type EffectFactory struct {
	reg *data.Registry
}

// NewEffectFactory returns a factory over the registry.
func NewEffectFactory(reg *data.Registry) *EffectFactory {
	return &EffectFactory{reg: reg}
}

// Create builds an ActiveEffect from the named template.
//
// damageRef is the damage dealt by the move that spawned the effect;
// bleed-tagged templates scale their impact from it. The returned
// mutation map must be merged into the owner's waterfall as a temp
// source keyed by the effect UID, and scrubbed on expiry.
func (f *EffectFactory) Create(effectID string, params model.EffectParams, sourceID string, currentStep int64, damageRef int) (*model.ActiveEffect, map[string]string, error) {
	tmpl, ok := f.reg.EffectTemplate(effectID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown effect template %q", effectID)
	}

	duration := tmpl.Duration
	if params.Duration > 0 {
		duration = params.Duration
	}
	power := params.Power
	if power == 0 {
		power = 1.0
	}

	var impact map[string]int
	if tmpl.HasTag("bleed") && damageRef > 0 {
		bleed := int(math.Floor(float64(damageRef) * bleedDamageShare * power))
		impact = map[string]int{"hp": -max(1, bleed)}
	} else if len(tmpl.ResourceImpact) > 0 {
		impact = make(map[string]int, len(tmpl.ResourceImpact))
		for res, v := range tmpl.ResourceImpact {
			impact[res] = int(float64(v) * power)
		}
	}

	mutations := make(map[string]string, len(tmpl.RawModifiers)+len(params.Mutations))
	for stat, cmd := range tmpl.RawModifiers {
		mutations[stat] = cmd
	}
	for stat, cmd := range params.Mutations {
		mutations[stat] = cmd
	}
	keys := make([]string, 0, len(mutations))
	for stat := range mutations {
		if !f.reg.KnownStat(stat) {
			slog.Error("effect mutates unknown stat", "effect", effectID, "stat", stat)
			delete(mutations, stat)
			continue
		}
		keys = append(keys, stat)
	}
	slices.Sort(keys)

	control := tmpl.ControlLogic
	if params.Control != nil {
		control = params.Control
	}

	eff := &model.ActiveEffect{
		UID:           model.NextEffectUID(),
		EffectID:      effectID,
		SourceID:      sourceID,
		ExpiresAtStep: currentStep + int64(duration),
		Impact:        impact,
		Control:       control,
		RawModifiers:  mutations,
		ModifiedKeys:  keys,
		Power:         power,
		Params:        params,
	}
	return eff, mutations, nil
}

// TargetsSelf reports whether the template for effectID attaches to the
// caster rather than the move target. Unknown ids report false.
func (f *EffectFactory) TargetsSelf(effectID string) bool {
	tmpl, ok := f.reg.EffectTemplate(effectID)
	return ok && tmpl.TargetSelf
}
