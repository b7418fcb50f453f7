package combat

import (
	"github.com/duskhall/duskhall/internal/data"
	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

// Pipeline resolves one combat move against in-memory snapshots. It is
// a pure function of snapshots + move: it mutates the snapshots it was
// handed (tokens, effects, temp stat sources) but never touches
// persistent state. The tick orchestrator marries results to sessions.
type Pipeline struct {
	reg      *data.Registry
	builder  *ContextBuilder
	resolver *Resolver
	ability  *AbilityService
}

// NewPipeline wires the pipeline from its parts.
func NewPipeline(reg *data.Registry, math MathCore, caps Caps) *Pipeline {
	factory := NewEffectFactory(reg)
	return &Pipeline{
		reg:      reg,
		builder:  NewContextBuilder(reg, math),
		resolver: NewResolver(reg, math, caps),
		ability:  NewAbilityService(reg, factory),
	}
}

// Calculate resolves move at the given combat step. target may be nil
// for self-targeted moves. A dead source yields the empty result.
func (p *Pipeline) Calculate(source, target *model.ActorSnapshot, move model.CombatMove, step int64) *InteractionResult {
	ctx := p.builder.Build(source, target, move)

	if source.State.IsDead() {
		return ctx.Result
	}

	if ctx.Phases.RunPreCalc {
		p.ability.PreProcess(ctx)
		if ctx.Invalid {
			return ctx.Result
		}
	}

	if ctx.Phases.RunStatsEngine {
		p.refreshStats(source)
		p.refreshStats(target)
	}

	if ctx.Phases.RunCalculator {
		p.resolver.Resolve(ctx)
	}

	if ctx.Phases.RunPostCalc {
		p.ability.PostProcess(ctx, step)
	}

	return ctx.Result
}

// refreshStats recomputes an actor's cached stats when a temp source
// merge marked them dirty. The cache is read-mostly during a tick; this
// is the only point inside a move where it may change.
func (p *Pipeline) refreshStats(a *model.ActorSnapshot) {
	if a == nil || !a.StatsDirty || a.Stats == nil || a.Stats.Raw == nil {
		return
	}
	res := stats.Calculate(a.Stats.Raw, p.reg.ModifierRules())
	a.Stats.Cache = res.Cache
	a.Stats.Explanation = res.Explanation
	a.StatsDirty = false
}
