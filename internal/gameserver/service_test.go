package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/game/session"
	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

func serviceFixture(t *testing.T) (*Service, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), time.Hour)
	svc := NewService(data.Default(), mgr, 2)

	sc := &model.SessionContext{
		Meta: model.SessionMeta{
			SessionID: "s1",
			Step:      3,
			Roles:     map[string]string{"ada": "red", "bran": "red", "cain": "blue"},
		},
		Actors: map[string]*model.ActorSnapshot{
			"ada":  serviceActor("ada", "red", 80),
			"bran": serviceActor("bran", "red", 0),
			"cain": serviceActor("cain", "blue", 100),
		},
	}
	sc.Actors["ada"].State.Tokens = map[string]int{model.TokenHit: 2, model.TokenTempo: 1}
	require.NoError(t, mgr.SeedSession(context.Background(), sc))
	return svc, mgr
}

func serviceActor(id, team string, hp int) *model.ActorSnapshot {
	return &model.ActorSnapshot{
		ID:   id,
		Team: team,
		State: model.ActorState{
			HP: hp, MaxHP: 100,
			EN: 25, MaxEN: 30,
			Stamina: 60,
			Tactics: 1,
			Tokens:  make(map[string]int),
		},
		Loadout: model.Loadout{MainHand: "skill_swords"},
		Stats: &stats.Document{
			Raw:         stats.NewRaw(),
			Cache:       map[string]float64{data.StatAccuracy: 0.7},
			Explanation: map[string]string{data.StatAccuracy: "0.7"},
		},
	}
}

func TestSubmitMoveQueues(t *testing.T) {
	ctx := context.Background()
	svc, mgr := serviceFixture(t)

	ack, err := svc.SubmitMove(ctx, "s1", model.CombatMove{
		MoveID: "m1", SourceID: "ada", Strategy: model.StrategyExchange,
		Payload: model.MovePayload{TargetID: "cain", FeintID: "power_strike"},
	})
	require.NoError(t, err)
	assert.True(t, ack.Queued)
	assert.Equal(t, int64(1), ack.QueuePos)

	moves, err := mgr.PendingMoves(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "m1", moves[0].MoveID)
	assert.Zero(t, moves[0].ChainDepth, "submitted moves always enter at depth 0")
}

func TestSubmitMoveValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := serviceFixture(t)

	tests := []struct {
		name    string
		session string
		move    model.CombatMove
	}{
		{
			name:    "unknown session",
			session: "nope",
			move:    model.CombatMove{MoveID: "m", SourceID: "ada", Strategy: model.StrategyExchange},
		},
		{
			name:    "unknown actor",
			session: "s1",
			move:    model.CombatMove{MoveID: "m", SourceID: "ghost", Strategy: model.StrategyExchange},
		},
		{
			name:    "dead actor",
			session: "s1",
			move:    model.CombatMove{MoveID: "m", SourceID: "bran", Strategy: model.StrategyExchange},
		},
		{
			name:    "unknown strategy",
			session: "s1",
			move:    model.CombatMove{MoveID: "m", SourceID: "ada", Strategy: "teleport"},
		},
		{
			name:    "unknown target",
			session: "s1",
			move: model.CombatMove{
				MoveID: "m", SourceID: "ada", Strategy: model.StrategyExchange,
				Payload: model.MovePayload{TargetID: "ghost"},
			},
		},
		{
			name:    "unknown feint",
			session: "s1",
			move: model.CombatMove{
				MoveID: "m", SourceID: "ada", Strategy: model.StrategyExchange,
				Payload: model.MovePayload{TargetID: "cain", FeintID: "no_such"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitMove(ctx, tt.session, tt.move)
			assert.Error(t, err)
		})
	}
}

func TestGetDashboardViews(t *testing.T) {
	svc, _ := serviceFixture(t)

	d, err := svc.GetDashboard(context.Background(), "s1", "ada")
	require.NoError(t, err)

	assert.Equal(t, int64(3), d.Step)
	assert.False(t, d.Finished)

	assert.Equal(t, "ada", d.Self.ID)
	assert.Equal(t, 80, d.Self.HP)
	assert.Equal(t, 25, d.Self.EN)
	assert.Equal(t, map[string]int{model.TokenHit: 2, model.TokenTempo: 1}, d.Self.Tokens)
	assert.InDelta(t, 0.7, d.Self.Stats[data.StatAccuracy], 1e-9)

	require.Len(t, d.Allies, 1)
	assert.Equal(t, "bran", d.Allies[0].ID)
	assert.False(t, d.Allies[0].Alive)

	require.Len(t, d.Enemies, 1)
	assert.Equal(t, "cain", d.Enemies[0].ID)

	// Affordable feints only: ada holds 2 hit and 1 tempo.
	for _, f := range d.Feints {
		for kind, n := range f.Cost {
			assert.LessOrEqual(t, n, d.Self.Tokens[kind], "feint %s", f.ID)
		}
	}
}

func TestGetDashboardUnknownActor(t *testing.T) {
	svc, _ := serviceFixture(t)
	_, err := svc.GetDashboard(context.Background(), "s1", "ghost")
	assert.Error(t, err)
}

func TestGetLogPageMath(t *testing.T) {
	ctx := context.Background()
	svc, mgr := serviceFixture(t)

	sc, err := mgr.LoadContext(ctx, "s1")
	require.NoError(t, err)
	var logs []model.LogEntry
	for i := 0; i < 5; i++ {
		logs = append(logs, model.LogEntry{Step: int64(i), Event: "move_resolved"})
	}
	require.NoError(t, mgr.CommitChanges(ctx, "s1", sc, logs))

	page, err := svc.GetLog(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(3), page.Pages, "ceil(5/2)")
	assert.Len(t, page.Entries, 2)

	last, err := svc.GetLog(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Len(t, last.Entries, 1)
}
