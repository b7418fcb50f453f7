package model

import (
	"fmt"
	"sync/atomic"
)

// ControlInstruction carries a control status (stun, blind, silence...)
// attached to an active effect. The behavior maps are dotted-path flag
// overrides merged into the pipeline context when the afflicted actor
// acts as source or target of a move.
type ControlInstruction struct {
	StatusName     string          `json:"status_name"`
	SourceBehavior map[string]bool `json:"source_behavior,omitempty"`
	TargetBehavior map[string]bool `json:"target_behavior,omitempty"`
}

// EffectParams are the scaling inputs an effect was created with. Kept
// on the instance so a recompute or dispel can reconstruct its origin.
type EffectParams struct {
	Duration  int                 `json:"duration,omitempty"`
	Power     float64             `json:"power,omitempty"`
	Mutations map[string]string   `json:"mutations,omitempty"`
	Control   *ControlInstruction `json:"control,omitempty"`
}

// ActiveEffect is one status instance attached to an actor.
type ActiveEffect struct {
	UID      string `json:"uid"`
	EffectID string `json:"effect_id"`
	SourceID string `json:"source_id"`

	// ExpiresAtStep is the global combat step at which the effect
	// expires (inclusive: the effect still ticks at this step).
	ExpiresAtStep int64 `json:"expires_at_step"`

	// Impact is the per-tick resource delta, e.g. {hp: -5}.
	Impact map[string]int `json:"impact,omitempty"`

	Control *ControlInstruction `json:"control,omitempty"`

	// RawModifiers are the stat commands merged into the owner's
	// waterfall under the effect UID as a temp source.
	RawModifiers map[string]string `json:"raw_modifiers,omitempty"`

	// ModifiedKeys lists which stats the effect mutated, for scrubbing
	// on expiry. Every key must name a stat the waterfall aggregates.
	ModifiedKeys []string `json:"modified_keys,omitempty"`

	Power  float64      `json:"power,omitempty"`
	Params EffectParams `json:"params,omitempty"`
}

// Expired reports whether the effect is past its lifetime at step.
func (e *ActiveEffect) Expired(step int64) bool {
	return step > e.ExpiresAtStep
}

var effectSeq atomic.Uint64

// NextEffectUID allocates a process-unique effect instance id.
func NextEffectUID() string {
	return fmt.Sprintf("eff-%d", effectSeq.Add(1))
}
