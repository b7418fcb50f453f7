package combat

import (
	"github.com/duskhall/duskhall/internal/data"
)

// Event types appended to InteractionResult.Events. Exactly one event
// tagged "terminal" closes every resolution path.
const (
	EventTypeMiss      = "miss"
	EventTypeDodge     = "dodge"
	EventTypeParry     = "parry"
	EventTypeBlock     = "block"
	EventTypeCrit      = "crit"
	EventTypeHit       = "hit"
	EventTypeAbsorbed  = "absorbed"
	EventTypeResolved  = "resolved"
	EventTypeInvalid   = "invalid_move"
	EventTypeLifesteal = "lifesteal"
	EventTypeThorns    = "thorns"
)

const TagTerminal = "terminal"

// Event is one entry of the ordered resolution trace.
type Event struct {
	Type string   `json:"type"`
	Tags []string `json:"tags,omitempty"`
}

// QueuedEffect is an effect application collected during resolution and
// materialized in the post-phase.
type QueuedEffect struct {
	Ref data.EffectRef

	// OnSource attaches to the move source regardless of the template's
	// own targeting (thorn-style retaliation effects).
	OnSource bool
}

// InteractionResult is the authoritative outcome of one move.
type InteractionResult struct {
	IsHit     bool `json:"is_hit"`
	IsMiss    bool `json:"is_miss"`
	IsDodged  bool `json:"is_dodged"`
	IsParried bool `json:"is_parried"`
	IsBlocked bool `json:"is_blocked"`
	IsCrit    bool `json:"is_crit"`
	IsCounter bool `json:"is_counter"`

	DamageFinal     int `json:"damage_final"`
	ShieldDamage    int `json:"shield_damage"`
	LifestealAmount int `json:"lifesteal_amount"`
	ThornsDamage    int `json:"thorns_damage"`

	TokensAwardedAttacker map[string]int `json:"tokens_awarded_attacker,omitempty"`
	TokensAwardedDefender map[string]int `json:"tokens_awarded_defender,omitempty"`

	QueuedEffects []QueuedEffect  `json:"-"`
	ChainEvents   map[string]bool `json:"chain_events,omitempty"`

	Events []Event `json:"events"`
}

// NewInteractionResult returns an empty result with allocated maps.
func NewInteractionResult() *InteractionResult {
	return &InteractionResult{
		TokensAwardedAttacker: make(map[string]int),
		TokensAwardedDefender: make(map[string]int),
		ChainEvents:           make(map[string]bool),
	}
}

// AddEvent appends an event to the ordered trace.
func (r *InteractionResult) AddEvent(typ string, tags ...string) {
	r.Events = append(r.Events, Event{Type: typ, Tags: tags})
}

// Terminal appends the single terminal event that closes a resolution
// path.
func (r *InteractionResult) Terminal(typ string) {
	r.AddEvent(typ, TagTerminal)
}

// AwardAttacker queues n tokens of kind for the move source.
func (r *InteractionResult) AwardAttacker(kind string, n int) {
	r.TokensAwardedAttacker[kind] += n
}

// AwardDefender queues n tokens of kind for the move target.
func (r *InteractionResult) AwardDefender(kind string, n int) {
	r.TokensAwardedDefender[kind] += n
}
