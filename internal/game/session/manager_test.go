package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

func fixtureContext(sessionID string) *model.SessionContext {
	return &model.SessionContext{
		Meta: model.SessionMeta{
			SessionID: sessionID,
			Step:      4,
			Roles:     map[string]string{"ada": "red", "bran": "blue"},
		},
		Actors: map[string]*model.ActorSnapshot{
			"ada":  fixtureActor("ada", "red"),
			"bran": fixtureActor("bran", "blue"),
		},
	}
}

func fixtureActor(id, team string) *model.ActorSnapshot {
	raw := stats.NewRaw()
	str := raw.Attribute("strength")
	str.Base = 8
	str.Source = str.Source.Set("item:blade", "+2")
	res := stats.Calculate(raw, stats.ModifierRules{"strength": {"main_hand_damage_base": 1.0}})

	return &model.ActorSnapshot{
		ID:   id,
		Team: team,
		State: model.ActorState{
			HP: 90, MaxHP: 100,
			EN: 30, MaxEN: 40,
			Stamina: 70,
			Tactics: 2,
			Tokens:  map[string]int{"hit": 1, "tempo": 2},
		},
		Loadout: model.Loadout{MainHand: "skill_swords", OffHand: "shield", Armor: "heavy"},
		Stats: &stats.Document{
			Raw:         raw,
			Cache:       res.Cache,
			Explanation: res.Explanation,
		},
		Effects: []*model.ActiveEffect{{
			UID:           "eff-test-1",
			EffectID:      "bleed",
			SourceID:      "bran",
			ExpiresAtStep: 7,
			Impact:        map[string]int{"hp": -3},
			Power:         1,
		}},
	}
}

func storeSnapshot(t *testing.T, store Store, sessionID string, actorIDs []string) map[string]any {
	t.Helper()
	ctx := context.Background()
	out := make(map[string]any)

	meta, err := store.HashGetAll(ctx, metaKey(sessionID))
	require.NoError(t, err)
	out["meta"] = meta

	for _, id := range actorIDs {
		state, err := store.HashGetAll(ctx, actorKey(sessionID, id))
		require.NoError(t, err)
		out["state:"+id] = state

		statsDoc, err := store.JSONGet(ctx, statsKey(sessionID, id), ".")
		require.NoError(t, err)
		out["stats:"+id] = string(statsDoc)

		effects, err := store.JSONGet(ctx, effectsKey(sessionID, id), ".")
		require.NoError(t, err)
		out["effects:"+id] = string(effects)
	}

	logs, err := store.ListRange(ctx, logKey(sessionID), 0, -1)
	require.NoError(t, err)
	out["log"] = logs
	return out
}

func TestLoadCommitRoundTripIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store, time.Hour)

	require.NoError(t, mgr.SeedSession(ctx, fixtureContext("s1")))
	before := storeSnapshot(t, store, "s1", []string{"ada", "bran"})

	sc, err := mgr.LoadContext(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	require.NoError(t, mgr.CommitChanges(ctx, "s1", sc, nil))

	after := storeSnapshot(t, store, "s1", []string{"ada", "bran"})
	assert.Equal(t, before, after)
}

func TestLoadContextMissingSession(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	sc, err := mgr.LoadContext(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, sc)
}

func TestLoadContextRestoresActorState(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), time.Hour)
	require.NoError(t, mgr.SeedSession(ctx, fixtureContext("s2")))

	sc, err := mgr.LoadContext(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, sc.Actors, 2)

	ada := sc.Actor("ada")
	require.NotNil(t, ada)
	assert.Equal(t, "red", ada.Team)
	assert.Equal(t, 90, ada.State.HP)
	assert.Equal(t, map[string]int{"hit": 1, "tempo": 2}, ada.State.Tokens)
	assert.Equal(t, "shield", ada.Loadout.OffHand)
	assert.InDelta(t, 10.0, ada.Stat("strength"), 1e-9)
	assert.InDelta(t, 10.0, ada.Stat("main_hand_damage_base"), 1e-9)
	require.Len(t, ada.Effects, 1)
	assert.Equal(t, int64(7), ada.Effects[0].ExpiresAtStep)

	assert.Equal(t, map[string][]string{"red": {"ada"}, "blue": {"bran"}}, sc.Meta.Teams())
}

func TestEnqueueAndDrainMovesKeepsOrder(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), time.Hour)

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, mgr.EnqueueMove(ctx, "s3", model.CombatMove{
			MoveID:   id,
			SourceID: "ada",
			Strategy: model.StrategyExchange,
		}))
	}
	depth, err := mgr.QueueDepth(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), depth)

	moves, err := mgr.PendingMoves(ctx, "s3")
	require.NoError(t, err)
	require.Len(t, moves, 3)
	assert.Equal(t, "m1", moves[0].MoveID)
	assert.Equal(t, "m3", moves[2].MoveID)

	// Drain empties the queue.
	moves, err = mgr.PendingMoves(ctx, "s3")
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestReadLogPaging(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(NewMemoryStore(), time.Hour)
	sc := fixtureContext("s4")

	var logs []model.LogEntry
	for i := 0; i < 5; i++ {
		logs = append(logs, model.LogEntry{Step: int64(i), Event: "move_resolved"})
	}
	require.NoError(t, mgr.CommitChanges(ctx, "s4", sc, logs))

	page, total, err := mgr.ReadLog(ctx, "s4", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(0), page[0].Step)

	page, _, err = mgr.ReadLog(ctx, "s4", 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(4), page[0].Step)

	page, _, err = mgr.ReadLog(ctx, "s4", 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestTeardownRemovesEveryKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mgr := NewManager(store, time.Hour)
	require.NoError(t, mgr.SeedSession(ctx, fixtureContext("s5")))

	require.NoError(t, mgr.Teardown(ctx, "s5", []string{"ada", "bran"}))

	sc, err := mgr.LoadContext(ctx, "s5")
	require.NoError(t, err)
	assert.Nil(t, sc)
	doc, err := store.JSONGet(ctx, statsKey("s5", "ada"), ".")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
