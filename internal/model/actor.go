package model

import (
	"strings"

	"github.com/duskhall/duskhall/internal/game/stats"
)

// Token kinds earned and spent during combat.
const (
	TokenHit     = "hit"
	TokenCrit    = "crit"
	TokenBlock   = "block"
	TokenParry   = "parry"
	TokenDodge   = "dodge"
	TokenCounter = "counter"
	TokenTempo   = "tempo"
	TokenGift    = "gift"
	TokenRage    = "rage"
)

// ActorState is the hot, per-session runtime state of one combatant.
// Persisted as a flat hash in the session cache.
type ActorState struct {
	HP      int `json:"hp"`
	MaxHP   int `json:"max_hp"`
	EN      int `json:"en"`
	MaxEN   int `json:"max_en"`
	Stamina int `json:"stamina"`

	// Tactics is the free tactical currency counter.
	Tactics int `json:"tactics"`

	// Tokens maps token kind to a non-negative count.
	Tokens map[string]int `json:"tokens"`
}

// IsDead reports whether the actor is out of the fight.
func (s *ActorState) IsDead() bool { return s.HP <= 0 }

// Token returns the count for kind, 0 if never awarded.
func (s *ActorState) Token(kind string) int { return s.Tokens[kind] }

// AddTokens adds n tokens of kind, flooring the count at zero.
func (s *ActorState) AddTokens(kind string, n int) {
	if s.Tokens == nil {
		s.Tokens = make(map[string]int)
	}
	s.Tokens[kind] += n
	if s.Tokens[kind] < 0 {
		s.Tokens[kind] = 0
	}
}

// SpendTokens deducts cost from the actor's tokens. Returns false and
// leaves the state untouched if any kind is unaffordable.
func (s *ActorState) SpendTokens(cost map[string]int) bool {
	for kind, n := range cost {
		if s.Tokens[kind] < n {
			return false
		}
	}
	for kind, n := range cost {
		s.Tokens[kind] -= n
	}
	return true
}

// Loadout describes what the actor has equipped, as far as combat
// resolution cares: weapon skill classes and armor class.
type Loadout struct {
	MainHand string `json:"main_hand"`
	OffHand  string `json:"off_hand"`
	Armor    string `json:"armor"`
}

// WeaponClass strips the skill_ prefix from a loadout slot, turning
// "skill_swords" into "swords".
func WeaponClass(slot string) string {
	return strings.TrimPrefix(slot, "skill_")
}

// HasOffHandWeapon reports whether the off hand holds a weapon usable
// for a follow-up strike (anything that is not empty and not a shield).
func (l Loadout) HasOffHandWeapon() bool {
	return l.OffHand != "" && !l.HasShield()
}

// HasShield reports whether the off hand holds a shield.
func (l Loadout) HasShield() bool {
	return WeaponClass(l.OffHand) == "shield"
}

// ActorSnapshot is everything one tick knows about an actor: runtime
// state, resolved stats, and active effects. Snapshots are loaded
// together by the session manager and mutated only by the pipeline and
// the tick orchestrator; they never outlive one tick.
type ActorSnapshot struct {
	ID      string
	Team    string
	State   ActorState
	Loadout Loadout
	Stats   *stats.Document
	Effects []*ActiveEffect

	// StatsDirty marks the cached stats stale (a temp source was merged
	// or scrubbed). Recomputed at the next stats-engine phase or tick
	// boundary, never mid-resolution.
	StatsDirty bool
}

// Stat returns the resolved value for name, 0 when missing.
func (a *ActorSnapshot) Stat(name string) float64 {
	return a.Stats.Stat(name)
}

// MergeTemp registers a temp-tier command for stat under sourceID and
// marks the cached stats dirty. Attributes and modifiers land in their
// respective waterfall maps; a stat with no attribute entry is treated
// as a modifier.
func (a *ActorSnapshot) MergeTemp(stat, sourceID, cmd string) {
	if a.Stats == nil || a.Stats.Raw == nil {
		return
	}
	raw := a.Stats.Raw
	var e *stats.Entry
	if _, ok := raw.Attributes[stat]; ok {
		e = raw.Attribute(stat)
	} else {
		e = raw.Modifier(stat)
	}
	e.Temp = e.Temp.Set(sourceID, cmd)
	a.StatsDirty = true
}

// ScrubTemp removes the temp-tier command for stat registered under
// sourceID, marking stats dirty when something was actually removed.
func (a *ActorSnapshot) ScrubTemp(stat, sourceID string) {
	if a.Stats == nil || a.Stats.Raw == nil {
		return
	}
	if a.Stats.Raw.RemoveTemp(stat, sourceID) {
		a.StatsDirty = true
	}
}

// ApplyImpact applies a per-tick resource delta map ({hp: -5}) to the
// actor's vitals, clamping into [0, max].
func (a *ActorSnapshot) ApplyImpact(impact map[string]int) {
	for res, delta := range impact {
		switch res {
		case "hp":
			a.State.HP = clampInt(a.State.HP+delta, 0, a.State.MaxHP)
		case "en":
			a.State.EN = clampInt(a.State.EN+delta, 0, a.State.MaxEN)
		case "stamina":
			a.State.Stamina = max(a.State.Stamina+delta, 0)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
