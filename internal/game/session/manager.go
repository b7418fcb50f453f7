package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

// Manager is the session state manager: batched load and commit of
// per-actor combat state, plus the fine-grained accessors the upstream
// service uses between ticks.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager builds a manager over the store. ttl is the inactivity
// window after which a session's keys evict.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

// Store exposes the underlying store handle.
func (m *Manager) Store() Store { return m.store }

// LoadContext fetches the session meta plus, per actor, the state hash,
// cached stats document, and active effects, in pipelined batches.
// Returns (nil, nil) when the session does not exist. An actor whose
// records are missing or unparsable is omitted with a warning; the tick
// continues without it. Partial loads never surface.
func (m *Manager) LoadContext(ctx context.Context, sessionID string) (*model.SessionContext, error) {
	metaFields, err := m.store.HashGetAll(ctx, metaKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("loading session %s meta: %w", sessionID, err)
	}
	if len(metaFields) == 0 {
		return nil, nil
	}

	meta, err := parseMeta(sessionID, metaFields)
	if err != nil {
		return nil, fmt.Errorf("parsing session %s meta: %w", sessionID, err)
	}

	actorIDs := sortedKeys(meta.Roles)
	hashKeys := make([]string, len(actorIDs))
	jsonPairs := make([]KeyPath, 0, len(actorIDs)*2)
	for i, id := range actorIDs {
		hashKeys[i] = actorKey(sessionID, id)
		jsonPairs = append(jsonPairs,
			KeyPath{Key: statsKey(sessionID, id), Path: "."},
			KeyPath{Key: effectsKey(sessionID, id), Path: "."},
		)
	}

	hashes, err := m.store.HashGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("loading session %s actors: %w", sessionID, err)
	}
	docs, err := m.store.JSONGetMulti(ctx, jsonPairs)
	if err != nil {
		return nil, fmt.Errorf("loading session %s documents: %w", sessionID, err)
	}

	sc := &model.SessionContext{
		Meta:   meta,
		Actors: make(map[string]*model.ActorSnapshot, len(actorIDs)),
	}
	for i, id := range actorIDs {
		snap, err := parseActor(id, meta.Roles[id], hashes[i], docs[i*2], docs[i*2+1])
		if err != nil {
			slog.Warn("skipping actor with bad session records",
				"session", sessionID, "actor", id, "err", err)
			continue
		}
		sc.Actors[id] = snap
	}
	return sc, nil
}

// CommitChanges writes the mutated context back in one atomic batch:
// meta, per-actor state hash, effects document, stats document, log
// append, and TTL refresh. If the batch fails, the tick's state is
// considered lost; callers must reload before retrying.
func (m *Manager) CommitChanges(ctx context.Context, sessionID string, sc *model.SessionContext, logs []model.LogEntry) error {
	logItems, err := marshalLogs(logs)
	if err != nil {
		return err
	}

	err = m.store.Pipeline(ctx, func(p Pipe) {
		p.HashSet(metaKey(sessionID), metaFields(sc.Meta))
		p.Expire(metaKey(sessionID), m.ttl)
		for _, id := range sortedKeys(sc.Actors) {
			snap := sc.Actors[id]
			p.HashSet(actorKey(sessionID, id), stateFields(snap))
			p.JSONSet(effectsKey(sessionID, id), ".", effectsDoc(snap))
			p.JSONSet(statsKey(sessionID, id), ".", snap.Stats)
			p.Expire(actorKey(sessionID, id), m.ttl)
			p.Expire(effectsKey(sessionID, id), m.ttl)
			p.Expire(statsKey(sessionID, id), m.ttl)
		}
		if len(logItems) > 0 {
			p.ListPush(logKey(sessionID), logItems...)
		}
		p.Expire(logKey(sessionID), m.ttl)
		p.Expire(movesKey(sessionID), m.ttl)
	})
	if err != nil {
		return fmt.Errorf("committing session %s: %w", sessionID, err)
	}
	return nil
}

// SeedSession writes the initial records for a fresh session in one
// batch: meta plus every actor's state, stats, and empty effects list.
func (m *Manager) SeedSession(ctx context.Context, sc *model.SessionContext) error {
	return m.CommitChanges(ctx, sc.Meta.SessionID, sc, nil)
}

// ActorState loads a single actor mid-tick without touching the rest
// of the session.
func (m *Manager) ActorState(ctx context.Context, sessionID, actorID string) (*model.ActorSnapshot, error) {
	fields, err := m.store.HashGetAll(ctx, actorKey(sessionID, actorID))
	if err != nil {
		return nil, fmt.Errorf("loading actor %s/%s: %w", sessionID, actorID, err)
	}
	statsDoc, err := m.store.JSONGet(ctx, statsKey(sessionID, actorID), ".")
	if err != nil {
		return nil, fmt.Errorf("loading actor %s/%s stats: %w", sessionID, actorID, err)
	}
	effectsDoc, err := m.store.JSONGet(ctx, effectsKey(sessionID, actorID), ".")
	if err != nil {
		return nil, fmt.Errorf("loading actor %s/%s effects: %w", sessionID, actorID, err)
	}
	return parseActor(actorID, "", fields, statsDoc, effectsDoc)
}

// SetActorCache replaces an actor's cached stats document.
func (m *Manager) SetActorCache(ctx context.Context, sessionID, actorID string, doc *stats.Document) error {
	if err := m.store.JSONSet(ctx, statsKey(sessionID, actorID), ".", doc); err != nil {
		return fmt.Errorf("writing actor %s/%s stats: %w", sessionID, actorID, err)
	}
	return nil
}

// EnqueueMove appends a move to the session's pending list. Moves are
// resolved in enqueue order at the next tick.
func (m *Manager) EnqueueMove(ctx context.Context, sessionID string, move model.CombatMove) error {
	doc, err := json.Marshal(move)
	if err != nil {
		return fmt.Errorf("marshaling move %s: %w", move.MoveID, err)
	}
	if err := m.store.ListPush(ctx, movesKey(sessionID), string(doc)); err != nil {
		return fmt.Errorf("enqueueing move %s: %w", move.MoveID, err)
	}
	return nil
}

// QueueDepth returns how many moves are waiting for the next tick.
func (m *Manager) QueueDepth(ctx context.Context, sessionID string) (int64, error) {
	return m.store.ListLen(ctx, movesKey(sessionID))
}

// PendingMoves drains the pending list, preserving submission order.
// Unparsable entries are dropped with a warning.
func (m *Manager) PendingMoves(ctx context.Context, sessionID string) ([]model.CombatMove, error) {
	items, err := m.store.ListPopAll(ctx, movesKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("draining moves for %s: %w", sessionID, err)
	}
	moves := make([]model.CombatMove, 0, len(items))
	for _, it := range items {
		var mv model.CombatMove
		if err := json.Unmarshal([]byte(it), &mv); err != nil {
			slog.Warn("dropping unparsable pending move", "session", sessionID, "err", err)
			continue
		}
		moves = append(moves, mv)
	}
	return moves, nil
}

// ReadLog returns one page of the combat log plus the total entry
// count. Pages are 1-based.
func (m *Manager) ReadLog(ctx context.Context, sessionID string, page, pageSize int) ([]model.LogEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	total, err := m.store.ListLen(ctx, logKey(sessionID))
	if err != nil {
		return nil, 0, fmt.Errorf("reading log length for %s: %w", sessionID, err)
	}
	start := int64(page-1) * int64(pageSize)
	items, err := m.store.ListRange(ctx, logKey(sessionID), start, start+int64(pageSize)-1)
	if err != nil {
		return nil, 0, fmt.Errorf("reading log page for %s: %w", sessionID, err)
	}
	entries := make([]model.LogEntry, 0, len(items))
	for _, it := range items {
		var e model.LogEntry
		if err := json.Unmarshal([]byte(it), &e); err != nil {
			slog.Warn("skipping unparsable log entry", "session", sessionID, "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, total, nil
}

// Teardown removes every key of a session.
func (m *Manager) Teardown(ctx context.Context, sessionID string, actorIDs []string) error {
	keys := []string{metaKey(sessionID), movesKey(sessionID), logKey(sessionID)}
	for _, id := range actorIDs {
		keys = append(keys, actorKey(sessionID, id), statsKey(sessionID, id), effectsKey(sessionID, id))
	}
	return m.store.Delete(ctx, keys...)
}

// --- encoding ---

func parseMeta(sessionID string, fields map[string]string) (model.SessionMeta, error) {
	meta := model.SessionMeta{SessionID: sessionID}
	step, err := strconv.ParseInt(fields["step"], 10, 64)
	if err != nil {
		return meta, fmt.Errorf("bad step %q: %w", fields["step"], err)
	}
	meta.Step = step
	meta.Winner = fields["winner"]
	meta.Cancelled = fields["cancelled"] == "1"
	meta.Finished = fields["finished"] == "1"
	if err := json.Unmarshal([]byte(fields["roles"]), &meta.Roles); err != nil {
		return meta, fmt.Errorf("bad roles %q: %w", fields["roles"], err)
	}
	return meta, nil
}

func metaFields(meta model.SessionMeta) map[string]string {
	roles, _ := json.Marshal(meta.Roles)
	return map[string]string{
		"step":      strconv.FormatInt(meta.Step, 10),
		"winner":    meta.Winner,
		"cancelled": boolField(meta.Cancelled),
		"finished":  boolField(meta.Finished),
		"roles":     string(roles),
	}
}

func parseActor(id, team string, fields map[string]string, statsDoc, effectsDoc []byte) (*model.ActorSnapshot, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("state record missing")
	}

	snap := &model.ActorSnapshot{ID: id, Team: team}
	snap.State.HP = intField(fields, "hp")
	snap.State.MaxHP = intField(fields, "max_hp")
	snap.State.EN = intField(fields, "en")
	snap.State.MaxEN = intField(fields, "max_en")
	snap.State.Stamina = intField(fields, "stamina")
	snap.State.Tactics = intField(fields, "tactics")
	snap.Loadout.MainHand = fields["main_hand"]
	snap.Loadout.OffHand = fields["off_hand"]
	snap.Loadout.Armor = fields["armor"]

	if tokens := fields["tokens"]; tokens != "" {
		if err := json.Unmarshal([]byte(tokens), &snap.State.Tokens); err != nil {
			return nil, fmt.Errorf("bad tokens %q: %w", tokens, err)
		}
	}
	if snap.State.Tokens == nil {
		snap.State.Tokens = make(map[string]int)
	}

	if len(statsDoc) > 0 {
		snap.Stats = &stats.Document{}
		if err := json.Unmarshal(statsDoc, snap.Stats); err != nil {
			return nil, fmt.Errorf("bad stats document: %w", err)
		}
	}
	if len(effectsDoc) > 0 {
		if err := json.Unmarshal(effectsDoc, &snap.Effects); err != nil {
			return nil, fmt.Errorf("bad effects document: %w", err)
		}
	}
	return snap, nil
}

func stateFields(snap *model.ActorSnapshot) map[string]string {
	tokens, _ := json.Marshal(snap.State.Tokens)
	return map[string]string{
		"hp":        strconv.Itoa(snap.State.HP),
		"max_hp":    strconv.Itoa(snap.State.MaxHP),
		"en":        strconv.Itoa(snap.State.EN),
		"max_en":    strconv.Itoa(snap.State.MaxEN),
		"stamina":   strconv.Itoa(snap.State.Stamina),
		"tactics":   strconv.Itoa(snap.State.Tactics),
		"tokens":    string(tokens),
		"main_hand": snap.Loadout.MainHand,
		"off_hand":  snap.Loadout.OffHand,
		"armor":     snap.Loadout.Armor,
	}
}

// effectsDoc normalizes nil to an empty list so the persisted document
// round-trips byte-equal.
func effectsDoc(snap *model.ActorSnapshot) []*model.ActiveEffect {
	if snap.Effects == nil {
		return []*model.ActiveEffect{}
	}
	return snap.Effects
}

func marshalLogs(logs []model.LogEntry) ([]string, error) {
	items := make([]string, len(logs))
	for i, e := range logs {
		doc, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshaling log entry: %w", err)
		}
		items[i] = string(doc)
	}
	return items, nil
}

func intField(fields map[string]string, name string) int {
	v, err := strconv.Atoi(fields[name])
	if err != nil {
		return 0
	}
	return v
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
