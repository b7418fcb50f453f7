// Package tick drives combat sessions: a fixed-interval worker loop
// per session that drains queued moves through the combat pipeline,
// advances active effects, and commits the mutated state back to the
// session cache. Sessions run in parallel; each session is strictly
// serial.
package tick

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/game/combat"
	"github.com/duskhall/duskhall/internal/game/session"
	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

// ChainOffhandAttack is the chain event queued by dual-wield procs and
// resolved as a follow-up off-hand strike within the same tick.
const ChainOffhandAttack = "trigger_offhand_attack"

// ioRetryBackoff is the pause before the single retry of a failed
// cache round trip.
const ioRetryBackoff = 100 * time.Millisecond

// degradedThreshold is how many consecutive cache failures flip the
// orchestrator into degraded mode, where new sessions are refused.
const degradedThreshold = 5

// Options tune the orchestrator.
type Options struct {
	Interval   time.Duration
	ChainDepth int
	Caps       combat.Caps
}

// Orchestrator schedules combat ticks. One goroutine per session,
// spawned on StartSession or Resume, all joined through a single
// errgroup on shutdown.
type Orchestrator struct {
	reg   *data.Registry
	mgr   *session.Manager
	chars CharacterSource
	opts  Options

	mu       sync.Mutex
	g        *errgroup.Group
	groupCtx context.Context
	running  map[string]struct{}

	ioFailures atomic.Int32
	degraded   atomic.Bool
}

// New builds an orchestrator. chars may be nil when sessions are seeded
// externally (tests).
func New(reg *data.Registry, mgr *session.Manager, chars CharacterSource, opts Options) *Orchestrator {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.ChainDepth <= 0 {
		opts.ChainDepth = 2
	}
	return &Orchestrator{
		reg:     reg,
		mgr:     mgr,
		chars:   chars,
		opts:    opts,
		running: make(map[string]struct{}),
	}
}

// Run blocks until ctx is cancelled, then waits for every session loop
// to commit its final state and stop.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, groupCtx := errgroup.WithContext(ctx)
	o.mu.Lock()
	o.g = g
	o.groupCtx = groupCtx
	o.mu.Unlock()

	slog.Info("tick orchestrator started",
		"interval", o.opts.Interval, "chain_depth", o.opts.ChainDepth)

	<-ctx.Done()
	err := g.Wait()
	slog.Info("tick orchestrator stopped")
	return err
}

// Healthy reports whether the cache has been reachable recently.
func (o *Orchestrator) Healthy() bool { return !o.degraded.Load() }

// Resume spawns the tick loop for an already-seeded session.
func (o *Orchestrator) Resume(sessionID string) error {
	if o.degraded.Load() {
		return fmt.Errorf("orchestrator degraded, not accepting session %s", sessionID)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.g == nil {
		return fmt.Errorf("orchestrator not running")
	}
	if _, ok := o.running[sessionID]; ok {
		return nil
	}
	o.running[sessionID] = struct{}{}

	o.g.Go(func() error {
		defer func() {
			o.mu.Lock()
			delete(o.running, sessionID)
			o.mu.Unlock()
		}()
		o.runSession(o.groupCtx, sessionID)
		return nil
	})
	return nil
}

// runSession is the per-session serial loop. Lag is logged, never
// dropped: a tick that overruns the interval simply delays the next
// ticker fire.
func (o *Orchestrator) runSession(ctx context.Context, sessionID string) {
	pipeline := combat.NewPipeline(o.reg, sessionMathCore(sessionID), o.opts.Caps)

	ticker := time.NewTicker(o.opts.Interval)
	defer ticker.Stop()

	slog.Info("session loop started", "session", sessionID)
	for {
		select {
		case <-ctx.Done():
			o.finalizeSession(sessionID)
			return

		case <-ticker.C:
			started := time.Now()
			done, err := o.Tick(ctx, sessionID, pipeline)
			if err != nil {
				slog.Error("tick aborted, rescheduling", "session", sessionID, "err", err)
				continue
			}
			if done {
				slog.Info("session loop finished", "session", sessionID)
				return
			}
			if lag := time.Since(started); lag > o.opts.Interval {
				slog.Warn("tick overran interval",
					"session", sessionID, "took", lag, "interval", o.opts.Interval)
			}
		}
	}
}

// finalizeSession commits a terminated marker on shutdown, detached
// from the (cancelled) run context.
func (o *Orchestrator) finalizeSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sc, err := o.mgr.LoadContext(ctx, sessionID)
	if err != nil || sc == nil {
		return
	}
	sc.Meta.Cancelled = true
	if err := o.mgr.CommitChanges(ctx, sessionID, sc, nil); err != nil {
		slog.Error("failed to finalize session", "session", sessionID, "err", err)
	}
}

// Tick runs one full tick for the session: drain pending moves, resolve
// each through the pipeline (chain events immediately after their
// parent, bounded by ChainDepth), advance and expire active effects,
// evaluate victory, and commit. Returns done=true once the session
// needs no further scheduling.
func (o *Orchestrator) Tick(ctx context.Context, sessionID string, pipeline *combat.Pipeline) (bool, error) {
	sc, err := o.loadWithRetry(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sc == nil {
		slog.Warn("session vanished from cache", "session", sessionID)
		return true, nil
	}
	if sc.Meta.Finished {
		return true, nil
	}
	if sc.Meta.Cancelled {
		sc.Meta.Finished = true
		err := o.commitWithRetry(ctx, sessionID, sc, []model.LogEntry{{
			Step: sc.Meta.Step, Event: "session_cancelled",
		}})
		return true, err
	}

	moves, err := o.mgr.PendingMoves(ctx, sessionID)
	if err != nil {
		return false, err
	}

	// Effects attached by this tick's moves must not advance until the
	// next tick; remember what was already in place.
	preexisting := make(map[string]struct{})
	for _, snap := range sc.Actors {
		for _, eff := range snap.Effects {
			preexisting[eff.UID] = struct{}{}
		}
	}

	step := sc.Meta.Step + 1
	var logs []model.LogEntry

	for _, move := range moves {
		o.resolveMove(sc, pipeline, move, step, &logs)
	}

	o.advanceEffects(sc, step, preexisting, &logs)
	o.recomputeDirtyStats(sc)

	sc.Meta.Step = step
	o.evaluateOutcome(sc, &logs)

	if err := o.commitWithRetry(ctx, sessionID, sc, logs); err != nil {
		return false, err
	}
	return sc.Meta.Finished, nil
}

// resolveMove runs one move and its chain events depth-first, applying
// each result to the in-memory session context.
func (o *Orchestrator) resolveMove(sc *model.SessionContext, pipeline *combat.Pipeline, move model.CombatMove, step int64, logs *[]model.LogEntry) {
	source := sc.Actor(move.SourceID)
	if source == nil {
		slog.Warn("dropping move from unknown actor", "actor", move.SourceID, "move", move.MoveID)
		*logs = append(*logs, model.LogEntry{
			Step: step, Event: "move_dropped", Actor: move.SourceID,
			Detail: map[string]any{"reason": "unknown_actor"},
		})
		return
	}
	target := sc.Actor(move.Payload.TargetID)

	res := pipeline.Calculate(source, target, move, step)
	o.applyResult(sc, source, target, move, res, step, logs)

	for _, event := range sortedEventNames(res.ChainEvents) {
		if !res.ChainEvents[event] {
			continue
		}
		if move.ChainDepth >= o.opts.ChainDepth {
			slog.Debug("chain depth exhausted", "event", event, "move", move.MoveID)
			continue
		}
		follow, ok := o.chainMove(move, event)
		if !ok {
			slog.Warn("unknown chain event", "event", event, "move", move.MoveID)
			continue
		}
		o.resolveMove(sc, pipeline, follow, step, logs)
	}
}

// chainMove materializes a follow-up move for a chain event.
func (o *Orchestrator) chainMove(parent model.CombatMove, event string) (model.CombatMove, bool) {
	switch event {
	case ChainOffhandAttack:
		return model.CombatMove{
			MoveID:   parent.MoveID + "#offhand",
			SourceID: parent.SourceID,
			Strategy: model.StrategyExchange,
			Payload: model.MovePayload{
				TargetID: parent.Payload.TargetID,
				Slot:     model.SlotOffHand,
			},
			ChainDepth: parent.ChainDepth + 1,
		}, true
	default:
		return model.CombatMove{}, false
	}
}

// applyResult folds an interaction result into the session context:
// damage, lifesteal, thorns. Token awards and effect attachment already
// happened inside the pipeline's post-phase.
func (o *Orchestrator) applyResult(sc *model.SessionContext, source, target *model.ActorSnapshot, move model.CombatMove, res *combat.InteractionResult, step int64, logs *[]model.LogEntry) {
	if target != nil && res.DamageFinal > 0 {
		target.ApplyImpact(map[string]int{"hp": -res.DamageFinal})
	}
	if res.LifestealAmount > 0 {
		source.ApplyImpact(map[string]int{"hp": res.LifestealAmount})
	}
	if res.ThornsDamage > 0 {
		source.ApplyImpact(map[string]int{"hp": -res.ThornsDamage})
	}

	entry := model.LogEntry{
		Step:   step,
		Event:  "move_resolved",
		Actor:  source.ID,
		Target: move.Payload.TargetID,
		Detail: map[string]any{
			"move_id": move.MoveID,
			"events":  eventTypes(res.Events),
			"damage":  res.DamageFinal,
		},
	}
	if res.IsCrit {
		entry.Detail["crit"] = true
	}
	*logs = append(*logs, entry)
}

// advanceEffects applies DoT/HoT impacts and expires effects whose
// lifetime ended, scrubbing their stat modifications from the owner's
// temp waterfall source.
func (o *Orchestrator) advanceEffects(sc *model.SessionContext, step int64, preexisting map[string]struct{}, logs *[]model.LogEntry) {
	for _, id := range sortedActorIDs(sc) {
		snap := sc.Actors[id]
		kept := snap.Effects[:0]
		for _, eff := range snap.Effects {
			if _, ok := preexisting[eff.UID]; !ok {
				kept = append(kept, eff)
				continue
			}

			if step <= eff.ExpiresAtStep && len(eff.Impact) > 0 {
				snap.ApplyImpact(eff.Impact)
				*logs = append(*logs, model.LogEntry{
					Step: step, Event: "effect_tick", Actor: id,
					Detail: map[string]any{"effect": eff.EffectID, "impact": eff.Impact},
				})
			}

			if step >= eff.ExpiresAtStep {
				for _, key := range eff.ModifiedKeys {
					snap.ScrubTemp(key, eff.UID)
				}
				*logs = append(*logs, model.LogEntry{
					Step: step, Event: "effect_expired", Actor: id,
					Detail: map[string]any{"effect": eff.EffectID},
				})
				continue
			}
			kept = append(kept, eff)
		}
		snap.Effects = kept
	}
}

// recomputeDirtyStats re-runs the waterfall for every actor whose temp
// sources changed this tick, so the committed cache is never stale. The
// dirty flag itself is tick-local and never persisted.
func (o *Orchestrator) recomputeDirtyStats(sc *model.SessionContext) {
	for _, id := range sortedActorIDs(sc) {
		snap := sc.Actors[id]
		if !snap.StatsDirty || snap.Stats == nil || snap.Stats.Raw == nil {
			continue
		}
		res := stats.Calculate(snap.Stats.Raw, o.reg.ModifierRules())
		snap.Stats.Cache = res.Cache
		snap.Stats.Explanation = res.Explanation
		snap.StatsDirty = false
	}
}

// evaluateOutcome checks victory after the tick's mutations: a team
// with every actor dead loses, the last team standing wins, no teams
// standing is a draw.
func (o *Orchestrator) evaluateOutcome(sc *model.SessionContext, logs *[]model.LogEntry) {
	if sc.Meta.Finished || sc.Meta.Winner != "" {
		return
	}

	var alive []string
	for _, team := range sortedTeams(sc) {
		if sc.TeamAlive(team) {
			alive = append(alive, team)
		}
	}

	switch len(alive) {
	case 0:
		sc.Meta.Winner = model.OutcomeDraw
	case 1:
		sc.Meta.Winner = alive[0]
	default:
		return
	}
	sc.Meta.Finished = true
	*logs = append(*logs, model.LogEntry{
		Step: sc.Meta.Step, Event: "session_finished",
		Detail: map[string]any{"winner": sc.Meta.Winner},
	})
	slog.Info("session decided", "session", sc.Meta.SessionID, "winner", sc.Meta.Winner)
}

// loadWithRetry retries one failed load after a short backoff, then
// gives up so the tick reschedules.
func (o *Orchestrator) loadWithRetry(ctx context.Context, sessionID string) (*model.SessionContext, error) {
	sc, err := o.mgr.LoadContext(ctx, sessionID)
	if err == nil {
		o.noteIOSuccess()
		return sc, nil
	}
	slog.Warn("session load failed, retrying", "session", sessionID, "err", err)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(ioRetryBackoff):
	}

	sc, err = o.mgr.LoadContext(ctx, sessionID)
	if err != nil {
		o.noteIOFailure()
		return nil, err
	}
	o.noteIOSuccess()
	return sc, nil
}

func (o *Orchestrator) commitWithRetry(ctx context.Context, sessionID string, sc *model.SessionContext, logs []model.LogEntry) error {
	err := o.mgr.CommitChanges(ctx, sessionID, sc, logs)
	if err == nil {
		o.noteIOSuccess()
		return nil
	}
	slog.Warn("session commit failed, retrying", "session", sessionID, "err", err)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(ioRetryBackoff):
	}

	if err := o.mgr.CommitChanges(ctx, sessionID, sc, logs); err != nil {
		o.noteIOFailure()
		return err
	}
	o.noteIOSuccess()
	return nil
}

func (o *Orchestrator) noteIOFailure() {
	if o.ioFailures.Add(1) >= degradedThreshold && !o.degraded.Swap(true) {
		slog.Error("cache unreachable, degrading: new sessions refused")
	}
}

func (o *Orchestrator) noteIOSuccess() {
	o.ioFailures.Store(0)
	if o.degraded.Swap(false) {
		slog.Info("cache reachable again, accepting sessions")
	}
}

// sessionMathCore seeds the per-session RNG from the session id so a
// session's move-by-move resolution is reproducible.
func sessionMathCore(sessionID string) combat.MathCore {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	return combat.NewMathCore(h.Sum64(), 0x6475736b68616c6c)
}

func eventTypes(events []combat.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
