package gameserver

import "github.com/duskhall/duskhall/internal/model"

// MoveAck is returned by SubmitMove: the move is queued, not resolved.
// Resolution happens on the session's next tick.
type MoveAck struct {
	MoveID   string `json:"move_id"`
	Queued   bool   `json:"queued"`
	QueuePos int64  `json:"queue_pos"`
}

// ActorCard is the short form shown for allies and enemies: public
// vitals only, no tokens and no stat internals.
type ActorCard struct {
	ID      string   `json:"id"`
	Team    string   `json:"team"`
	HP      int      `json:"hp"`
	MaxHP   int      `json:"max_hp"`
	Alive   bool     `json:"alive"`
	Effects []string `json:"effects,omitempty"`
}

// SelfView is the full form of the requesting actor: everything the
// short form hides.
type SelfView struct {
	ActorCard
	EN      int                `json:"en"`
	MaxEN   int                `json:"max_en"`
	Stamina int                `json:"stamina"`
	Tactics int                `json:"tactics"`
	Tokens  map[string]int     `json:"tokens"`
	Stats   map[string]float64 `json:"stats"`
	Loadout model.Loadout      `json:"loadout"`
}

// FeintOption is a feint the actor can afford right now.
type FeintOption struct {
	ID   string         `json:"id"`
	Cost map[string]int `json:"cost,omitempty"`
}

// Dashboard is the per-actor session view.
type Dashboard struct {
	SessionID string        `json:"session_id"`
	Step      int64         `json:"step"`
	Winner    string        `json:"winner,omitempty"`
	Finished  bool          `json:"finished"`
	Self      SelfView      `json:"self"`
	Allies    []ActorCard   `json:"allies"`
	Enemies   []ActorCard   `json:"enemies"`
	Feints    []FeintOption `json:"feints"`
}

// LogPage is one page of the session combat log, newest-first paging
// left to the caller: page 1 is the oldest slice.
type LogPage struct {
	Entries  []model.LogEntry `json:"entries"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
	Pages    int64            `json:"pages"`
}
