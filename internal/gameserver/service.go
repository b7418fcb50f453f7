// Package gameserver exposes the player-facing session operations:
// submitting moves, reading the dashboard, and paging the combat log.
// It validates and queues; all resolution stays in the tick loop.
package gameserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/game/session"
	"github.com/duskhall/duskhall/internal/model"
)

// Service validates player requests against the live session state.
type Service struct {
	reg      *data.Registry
	mgr      *session.Manager
	pageSize int
}

// NewService builds the service. pageSize bounds GetLog pages.
func NewService(reg *data.Registry, mgr *session.Manager, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Service{reg: reg, mgr: mgr, pageSize: pageSize}
}

// SubmitMove validates a move against the current session state and
// queues it for the next tick. Acceptance is not resolution: a queued
// move can still resolve as invalid if the state shifts before its
// tick.
func (s *Service) SubmitMove(ctx context.Context, sessionID string, move model.CombatMove) (*MoveAck, error) {
	sc, err := s.mgr.LoadContext(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if sc == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if sc.Meta.Finished || sc.Meta.Cancelled {
		return nil, fmt.Errorf("session %s is over", sessionID)
	}

	source := sc.Actor(move.SourceID)
	if source == nil {
		return nil, fmt.Errorf("actor %s is not in session %s", move.SourceID, sessionID)
	}
	if source.State.IsDead() {
		return nil, fmt.Errorf("actor %s is dead", move.SourceID)
	}

	switch move.Strategy {
	case model.StrategyExchange, model.StrategyInstant:
	default:
		return nil, fmt.Errorf("unknown strategy %q", move.Strategy)
	}

	if move.Payload.TargetID != "" && sc.Actor(move.Payload.TargetID) == nil {
		return nil, fmt.Errorf("target %s is not in session %s", move.Payload.TargetID, sessionID)
	}
	if id := move.Payload.FeintID; id != "" {
		if _, ok := s.reg.Feint(id); !ok {
			return nil, fmt.Errorf("unknown feint %q", id)
		}
	}
	if id := move.Payload.AbilityID; id != "" {
		if _, ok := s.reg.Feint(id); !ok {
			return nil, fmt.Errorf("unknown ability %q", id)
		}
	}
	move.ChainDepth = 0

	if err := s.mgr.EnqueueMove(ctx, sessionID, move); err != nil {
		return nil, fmt.Errorf("queueing move %s: %w", move.MoveID, err)
	}
	pos, err := s.mgr.QueueDepth(ctx, sessionID)
	if err != nil {
		pos = 0
	}
	slog.Debug("move queued", "session", sessionID, "move", move.MoveID, "actor", move.SourceID)

	return &MoveAck{MoveID: move.MoveID, Queued: true, QueuePos: pos}, nil
}

// GetDashboard returns the session from one actor's point of view:
// full self state, short cards for everyone else, and the feints the
// actor can afford with its current tokens.
func (s *Service) GetDashboard(ctx context.Context, sessionID, actorID string) (*Dashboard, error) {
	sc, err := s.mgr.LoadContext(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if sc == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	self := sc.Actor(actorID)
	if self == nil {
		return nil, fmt.Errorf("actor %s is not in session %s", actorID, sessionID)
	}

	d := &Dashboard{
		SessionID: sessionID,
		Step:      sc.Meta.Step,
		Winner:    sc.Meta.Winner,
		Finished:  sc.Meta.Finished,
		Self:      selfView(self),
	}
	for _, id := range sc.Allies(actorID) {
		if a := sc.Actor(id); a != nil {
			d.Allies = append(d.Allies, card(a))
		}
	}
	for _, id := range sc.Enemies(actorID) {
		if a := sc.Actor(id); a != nil {
			d.Enemies = append(d.Enemies, card(a))
		}
	}
	for _, f := range s.reg.Feints() {
		if affordable(self, f) {
			d.Feints = append(d.Feints, FeintOption{ID: f.ID, Cost: f.Cost})
		}
	}
	return d, nil
}

// GetLog pages the session combat log. Pages are 1-based.
func (s *Service) GetLog(ctx context.Context, sessionID string, page int) (*LogPage, error) {
	if page < 1 {
		page = 1
	}
	entries, total, err := s.mgr.ReadLog(ctx, sessionID, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("reading log of %s: %w", sessionID, err)
	}
	pages := (total + int64(s.pageSize) - 1) / int64(s.pageSize)
	return &LogPage{
		Entries:  entries,
		Page:     page,
		PageSize: s.pageSize,
		Total:    total,
		Pages:    pages,
	}, nil
}

func card(a *model.ActorSnapshot) ActorCard {
	c := ActorCard{
		ID:    a.ID,
		Team:  a.Team,
		HP:    a.State.HP,
		MaxHP: a.State.MaxHP,
		Alive: !a.State.IsDead(),
	}
	for _, eff := range a.Effects {
		c.Effects = append(c.Effects, eff.EffectID)
	}
	return c
}

func selfView(a *model.ActorSnapshot) SelfView {
	return SelfView{
		ActorCard: card(a),
		EN:        a.State.EN,
		MaxEN:     a.State.MaxEN,
		Stamina:   a.State.Stamina,
		Tactics:   a.State.Tactics,
		Tokens:    a.State.Tokens,
		Stats:     a.Stats.Cache,
		Loadout:   a.Loadout,
	}
}

func affordable(a *model.ActorSnapshot, f *data.FeintConfig) bool {
	for kind, n := range f.Cost {
		if a.State.Token(kind) < n {
			return false
		}
	}
	return true
}
