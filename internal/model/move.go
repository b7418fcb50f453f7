package model

// Move strategies. Exchange is a physical weapon exchange, instant is a
// direct magical action that skips most physical stages.
const (
	StrategyExchange = "exchange"
	StrategyInstant  = "instant"
)

// Loadout slots a move can be driven by.
const (
	SlotMainHand = "main_hand"
	SlotOffHand  = "off_hand"
)

// MovePayload is the free-form part of a submitted move.
type MovePayload struct {
	TargetID  string `json:"target_id,omitempty"`
	AbilityID string `json:"ability_id,omitempty"`
	FeintID   string `json:"feint_id,omitempty"`
	ItemID    string `json:"item_id,omitempty"`

	// Slot selects which hand drives an exchange. Empty means main
	// hand; chain events set it to off_hand for the follow-up strike.
	Slot string `json:"slot,omitempty"`
}

// CombatMove is one action submitted by an actor.
type CombatMove struct {
	MoveID   string      `json:"move_id"`
	SourceID string      `json:"source_id"`
	Strategy string      `json:"strategy"`
	Payload  MovePayload `json:"payload"`

	// ChainDepth counts how many chain events produced this move; the
	// orchestrator refuses to chain past its configured bound.
	ChainDepth int `json:"chain_depth,omitempty"`
}
