package combat

import (
	"log/slog"

	"github.com/duskhall/duskhall/internal/data"
)

// AbilityService applies the non-numeric sides of feints and abilities:
// token costs, trigger arming, move-scoped stat mutations before the
// exchange; effect attachment and token awards after it.
type AbilityService struct {
	reg     *data.Registry
	factory *EffectFactory
}

// NewAbilityService builds the service over the registry and effect
// factory.
func NewAbilityService(reg *data.Registry, factory *EffectFactory) *AbilityService {
	return &AbilityService{reg: reg, factory: factory}
}

// PreProcess runs the pre-move phase. An unknown or unaffordable feint
// marks the move invalid: the pipeline aborts, the source loses the
// turn, nothing else happens.
func (s *AbilityService) PreProcess(ctx *Context) {
	feint, ok := s.moveFeint(ctx)
	if !ok {
		return
	}
	if feint == nil {
		ctx.Invalid = true
		ctx.Result.Terminal(EventTypeInvalid)
		return
	}

	if !ctx.Source.State.SpendTokens(feint.Cost) {
		slog.Info("feint cost unaffordable, move dropped",
			"actor", ctx.Source.ID, "feint", feint.ID, "move", ctx.Move.MoveID)
		ctx.Invalid = true
		ctx.Result.Terminal(EventTypeInvalid)
		return
	}

	if len(feint.RawMutations) > 0 {
		ctx.TempSourceID = "move:" + ctx.Move.MoveID
		for _, stat := range sortedPaths(feint.RawMutations) {
			if !s.reg.KnownStat(stat) {
				slog.Error("feint mutates unknown stat", "feint", feint.ID, "stat", stat)
				continue
			}
			ctx.Source.MergeTemp(stat, ctx.TempSourceID, feint.RawMutations[stat])
		}
	}

	for _, path := range sortedPaths(feint.PipelineMutations) {
		ApplyMutation(ctx, path, feint.PipelineMutations[path])
	}

	for _, id := range feint.Triggers {
		if _, ok := s.reg.TriggerRule(id); !ok {
			slog.Error("feint arms unknown trigger", "feint", feint.ID, "trigger", id)
			continue
		}
		ctx.Triggers[id] = true
	}
}

// PostProcess runs the post-move phase: feint effects, effects queued
// by triggers during resolution, token awards, and temp-source cleanup.
func (s *AbilityService) PostProcess(ctx *Context, step int64) {
	if feint, ok := s.moveFeint(ctx); ok && feint != nil {
		for _, ref := range feint.Effects {
			s.attachEffect(ctx, ref, false, step)
		}
	}

	for _, qe := range ctx.Result.QueuedEffects {
		s.attachEffect(ctx, qe.Ref, qe.OnSource, step)
	}

	for _, kind := range sortedPaths(ctx.Result.TokensAwardedAttacker) {
		ctx.Source.State.AddTokens(kind, ctx.Result.TokensAwardedAttacker[kind])
	}
	if ctx.Target != nil {
		for _, kind := range sortedPaths(ctx.Result.TokensAwardedDefender) {
			ctx.Target.State.AddTokens(kind, ctx.Result.TokensAwardedDefender[kind])
		}
	}

	if ctx.TempSourceID != "" && ctx.Source.Stats != nil && ctx.Source.Stats.Raw != nil {
		if ctx.Source.Stats.Raw.RemoveTempSource(ctx.TempSourceID) {
			ctx.Source.StatsDirty = true
		}
	}
}

// moveFeint resolves the feint or ability preset named by the move.
// Returns (nil, true) when the move names one that does not exist, and
// (nil, false) when the move carries none at all.
func (s *AbilityService) moveFeint(ctx *Context) (*data.FeintConfig, bool) {
	id := ctx.Move.Payload.FeintID
	if id == "" {
		id = ctx.Move.Payload.AbilityID
	}
	if id == "" {
		return nil, false
	}
	feint, ok := s.reg.Feint(id)
	if !ok {
		slog.Warn("unknown feint", "id", id, "move", ctx.Move.MoveID)
		return nil, true
	}
	return feint, true
}

func (s *AbilityService) attachEffect(ctx *Context, ref data.EffectRef, onSource bool, step int64) {
	owner := ctx.Target
	if onSource || s.factory.TargetsSelf(ref.EffectID) || owner == nil {
		owner = ctx.Source
	}

	damageRef := 0
	if ref.FromDamage {
		damageRef = ctx.Result.DamageFinal
	}

	eff, mutations, err := s.factory.Create(ref.EffectID, ref.Params, ctx.Source.ID, step, damageRef)
	if err != nil {
		slog.Error("skipping effect", "effect", ref.EffectID, "err", err)
		return
	}

	owner.Effects = append(owner.Effects, eff)
	for _, stat := range sortedPaths(mutations) {
		owner.MergeTemp(stat, eff.UID, mutations[stat])
	}
	slog.Debug("effect attached",
		"effect", eff.EffectID, "uid", eff.UID,
		"owner", owner.ID, "expires_at", eff.ExpiresAtStep)
}
