// Package data holds the static combat registries: modifier rules,
// effect templates, trigger rules, and feint configs. Everything here is
// loaded once at startup from in-code definitions and read-only after
// that; it is the single source of truth for what a stat means and what
// a trigger does.
package data

import (
	"slices"
	"strings"
)

// Trigger events, fired by the resolver at its checkpoints.
const (
	EventAccuracyCheck = "ON_ACCURACY_CHECK"
	EventCrit          = "ON_CRIT"
	EventBlock         = "ON_BLOCK"
	EventDodge         = "ON_DODGE"
	EventDodgeFail     = "ON_DODGE_FAIL"
	EventParry         = "ON_PARRY"
	EventParryFail     = "ON_PARRY_FAIL"
	EventHit           = "ON_HIT"
	EventMiss          = "ON_MISS"
	EventCheckControl  = "ON_CHECK_CONTROL"
)

// Registry is the injectable handle over all static stores. Tests swap
// in fixture registries via New.
type Registry struct {
	modifierRules   map[string]map[string]float64
	effectTemplates map[string]*EffectTemplate
	triggerRules    map[string]*TriggerRule
	triggersByEvent map[string][]*TriggerRule
	feints          map[string]*FeintConfig
	knownStats      map[string]struct{}
}

// New builds a registry from explicit definitions. Trigger rules are
// indexed by event with a stable (id-sorted) order so firing is
// deterministic.
func New(
	rules map[string]map[string]float64,
	effects []*EffectTemplate,
	triggers []*TriggerRule,
	feints []*FeintConfig,
	statNames []string,
) *Registry {
	r := &Registry{
		modifierRules:   rules,
		effectTemplates: make(map[string]*EffectTemplate, len(effects)),
		triggerRules:    make(map[string]*TriggerRule, len(triggers)),
		triggersByEvent: make(map[string][]*TriggerRule),
		feints:          make(map[string]*FeintConfig, len(feints)),
		knownStats:      make(map[string]struct{}, len(statNames)),
	}
	for _, e := range effects {
		r.effectTemplates[e.EffectID] = e
	}
	for _, t := range triggers {
		r.triggerRules[t.ID] = t
		r.triggersByEvent[t.Event] = append(r.triggersByEvent[t.Event], t)
	}
	for _, rs := range r.triggersByEvent {
		slices.SortFunc(rs, func(a, b *TriggerRule) int {
			return strings.Compare(a.ID, b.ID)
		})
	}
	for _, f := range feints {
		r.feints[f.ID] = f
	}
	for _, n := range statNames {
		r.knownStats[n] = struct{}{}
	}
	return r
}

// ModifierRules returns the attribute → modifier coefficient table.
func (r *Registry) ModifierRules() map[string]map[string]float64 {
	return r.modifierRules
}

// EffectTemplate looks up an effect template by id.
func (r *Registry) EffectTemplate(id string) (*EffectTemplate, bool) {
	t, ok := r.effectTemplates[id]
	return t, ok
}

// TriggerRule looks up a trigger rule by id.
func (r *Registry) TriggerRule(id string) (*TriggerRule, bool) {
	t, ok := r.triggerRules[id]
	return t, ok
}

// TriggersForEvent returns the rules bound to event, sorted by id.
func (r *Registry) TriggersForEvent(event string) []*TriggerRule {
	return r.triggersByEvent[event]
}

// Feint looks up a feint config by id.
func (r *Registry) Feint(id string) (*FeintConfig, bool) {
	f, ok := r.feints[id]
	return f, ok
}

// Feints returns all feint configs, for dashboard listings.
func (r *Registry) Feints() []*FeintConfig {
	out := make([]*FeintConfig, 0, len(r.feints))
	for _, f := range r.feints {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *FeintConfig) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// IsAttribute reports whether name is a primary attribute, i.e. a
// source of a modifier rule. Anything else lands in the modifier map.
func (r *Registry) IsAttribute(name string) bool {
	_, ok := r.modifierRules[name]
	return ok
}

// KnownStat reports whether name is a stat the waterfall aggregates.
// Effects and feints touching unknown stats are configuration errors.
func (r *Registry) KnownStat(name string) bool {
	_, ok := r.knownStats[name]
	return ok
}

// Default returns the production registry.
func Default() *Registry {
	return New(
		defaultModifierRules(),
		defaultEffectTemplates(),
		defaultTriggerRules(),
		defaultFeints(),
		defaultStatNames(),
	)
}
