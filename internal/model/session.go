package model

// Session outcome values written to session meta.
const (
	OutcomeDraw = "draw"
)

// SessionMeta is the per-session header record: step counter, team
// roster, and lifecycle flags.
type SessionMeta struct {
	SessionID string `json:"session_id"`

	// Step is the global combat step counter, advanced once per tick.
	Step int64 `json:"step"`

	// Roles maps actor id → team id.
	Roles map[string]string `json:"roles"`

	// Winner is empty while the fight is live, a team id once decided,
	// or OutcomeDraw on simultaneous death.
	Winner string `json:"winner,omitempty"`

	Cancelled bool `json:"cancelled,omitempty"`
	Finished  bool `json:"finished,omitempty"`
}

// Teams groups the roster by team id.
func (m *SessionMeta) Teams() map[string][]string {
	teams := make(map[string][]string)
	for actor, team := range m.Roles {
		teams[team] = append(teams[team], actor)
	}
	return teams
}

// LogEntry is one combat log record, appended to the session's log
// list on commit.
type LogEntry struct {
	Step   int64          `json:"step"`
	Event  string         `json:"event"`
	Actor  string         `json:"actor,omitempty"`
	Target string         `json:"target,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
}

// SessionContext is everything loaded for one combat tick: the meta
// record plus one snapshot per participant. It lives for exactly one
// tick and is never shared across sessions.
type SessionContext struct {
	Meta   SessionMeta
	Actors map[string]*ActorSnapshot
}

// Actor returns the snapshot for id, nil when the actor was not loaded.
func (sc *SessionContext) Actor(id string) *ActorSnapshot {
	return sc.Actors[id]
}

// TeamAlive reports whether any actor of the team is still standing.
func (sc *SessionContext) TeamAlive(team string) bool {
	for id, t := range sc.Meta.Roles {
		if t != team {
			continue
		}
		if a := sc.Actors[id]; a != nil && !a.State.IsDead() {
			return true
		}
	}
	return false
}

// Allies returns ids of living and dead actors sharing the team of
// actorID, excluding the actor itself.
func (sc *SessionContext) Allies(actorID string) []string {
	return sc.teammates(actorID, true)
}

// Enemies returns ids of actors on other teams.
func (sc *SessionContext) Enemies(actorID string) []string {
	return sc.teammates(actorID, false)
}

func (sc *SessionContext) teammates(actorID string, same bool) []string {
	team := sc.Meta.Roles[actorID]
	var out []string
	for id, t := range sc.Meta.Roles {
		if id == actorID {
			continue
		}
		if (t == team) == same {
			out = append(out, id)
		}
	}
	return out
}
