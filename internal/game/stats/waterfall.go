package stats

import (
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Entry is the raw input for one stat: a base value plus two tiers of
// commands. Source holds durable contributions (items, learned skills),
// Temp holds transient ones (buffs, feint mutations).
type Entry struct {
	Base   float64     `json:"base"`
	Source CommandList `json:"source,omitempty"`
	Temp   CommandList `json:"temp,omitempty"`
}

// Raw is the full waterfall input for one actor.
type Raw struct {
	Attributes map[string]*Entry `json:"attributes"`
	Modifiers  map[string]*Entry `json:"modifiers"`
}

// NewRaw returns an empty Raw with allocated maps.
func NewRaw() *Raw {
	return &Raw{
		Attributes: make(map[string]*Entry),
		Modifiers:  make(map[string]*Entry),
	}
}

// Attribute returns the attribute entry for name, creating it if absent.
func (r *Raw) Attribute(name string) *Entry {
	e, ok := r.Attributes[name]
	if !ok {
		e = &Entry{}
		r.Attributes[name] = e
	}
	return e
}

// Modifier returns the modifier entry for name, creating it if absent.
func (r *Raw) Modifier(name string) *Entry {
	e, ok := r.Modifiers[name]
	if !ok {
		e = &Entry{}
		r.Modifiers[name] = e
	}
	return e
}

// RemoveTemp removes the temp command registered under sourceID from the
// named stat, looking in both attributes and modifiers. Reports whether
// anything was removed.
func (r *Raw) RemoveTemp(name, sourceID string) bool {
	removed := false
	if e, ok := r.Attributes[name]; ok {
		var rm bool
		e.Temp, rm = e.Temp.Remove(sourceID)
		removed = removed || rm
	}
	if e, ok := r.Modifiers[name]; ok {
		var rm bool
		e.Temp, rm = e.Temp.Remove(sourceID)
		removed = removed || rm
	}
	return removed
}

// RemoveTempSource removes every temp command registered under sourceID
// across all attributes and modifiers. Reports whether anything was
// removed.
func (r *Raw) RemoveTempSource(sourceID string) bool {
	removed := false
	for _, e := range r.Attributes {
		var rm bool
		e.Temp, rm = e.Temp.Remove(sourceID)
		removed = removed || rm
	}
	for _, e := range r.Modifiers {
		var rm bool
		e.Temp, rm = e.Temp.Remove(sourceID)
		removed = removed || rm
	}
	return removed
}

// Result holds the resolved waterfall output: the numeric cache and a
// human-readable derivation per stat.
type Result struct {
	Cache       map[string]float64 `json:"cache"`
	Explanation map[string]string  `json:"explanation"`
}

// Document is what the session cache persists per actor: the raw input
// alongside its latest resolution, so temp sources can be merged and
// scrubbed without a cold-store round trip.
type Document struct {
	Raw    *Raw               `json:"raw"`
	Cache  map[string]float64 `json:"cache"`
	Explanation map[string]string `json:"explanation"`
}

// Stat returns the cached value for name, or 0 if it was never resolved.
func (d *Document) Stat(name string) float64 {
	if d == nil || d.Cache == nil {
		return 0
	}
	return d.Cache[name]
}

// ModifierRules maps source attribute → target modifier → coefficient.
// Each resolved attribute contributes `value * coefficient` as a flat
// bonus to every target modifier.
type ModifierRules map[string]map[string]float64

// Calculate resolves every attribute and modifier in raw in one pass:
//
//  1. attributes resolve from their own base/source/temp commands;
//  2. each modifier rule turns resolved attribute values into synthetic
//     flat bonuses on its target modifiers;
//  3. modifiers resolve with the derived bonuses inserted between their
//     base and their own source/temp commands.
//
// Pure and deterministic: same input produces the same cache and the
// same explanation strings. Bad commands never fail the calculation;
// they contribute nothing and are logged.
func Calculate(raw *Raw, rules ModifierRules) *Result {
	res := &Result{
		Cache:       make(map[string]float64, len(raw.Attributes)+len(raw.Modifiers)),
		Explanation: make(map[string]string, len(raw.Attributes)+len(raw.Modifiers)),
	}

	for _, name := range sortedKeys(raw.Attributes) {
		e := raw.Attributes[name]
		v, formula := EvaluateSources(e.Base, concat(e.Source, e.Temp))
		res.Cache[name] = v
		res.Explanation[name] = formula
	}

	// Derived flat bonuses, keyed by target modifier. Attribute order is
	// sorted so the synthetic command order (and thus the formula string)
	// is stable.
	derived := make(map[string]CommandList)
	for _, attr := range sortedKeys(rules) {
		targets := rules[attr]
		av, ok := res.Cache[attr]
		if !ok || av == 0 {
			continue
		}
		for _, target := range sortedKeys(targets) {
			bonus := av * targets[target]
			if bonus == 0 {
				continue
			}
			derived[target] = append(derived[target], Command{
				ID:  "attr:" + attr,
				Cmd: "+" + formatNumber(round4(bonus)),
			})
		}
	}

	names := sortedKeys(raw.Modifiers)
	for target := range derived {
		if _, ok := raw.Modifiers[target]; !ok {
			names = append(names, target)
		}
	}
	slices.Sort(names)

	for _, name := range names {
		e, ok := raw.Modifiers[name]
		if !ok {
			e = &Entry{}
		}
		cmds := concat(derived[name], e.Source, e.Temp)
		v, formula := EvaluateSources(e.Base, cmds)
		res.Cache[name] = v
		res.Explanation[name] = formula
	}

	return res
}

// EvaluateSources runs an ordered command sequence against a base value.
// Evaluation keeps two accumulators, flats and multipliers:
//
//	+X / -X  append to flats
//	*X       appends to multipliers
//	=X       resets flats to [X] and clears multipliers
//
// The final value is sum(flats) * product(multipliers), rounded to four
// decimal places. The returned formula is the verbatim derivation, e.g.
// "(8 + 2 + 1) * 1.1". A command that fails to parse contributes nothing
// and logs a warning; this function never fails.
func EvaluateSources(base float64, commands CommandList) (float64, string) {
	var flats []float64
	var mults []float64
	if base != 0 {
		flats = append(flats, base)
	}

	for _, c := range commands {
		op, v, err := parseCommand(c.Cmd)
		if err != nil {
			slog.Warn("invalid stat command", "source", c.ID, "cmd", c.Cmd, "err", err)
			continue
		}
		switch op {
		case OpAdd:
			flats = append(flats, v)
		case OpSub:
			flats = append(flats, -v)
		case OpMul:
			mults = append(mults, v)
		case OpOverride:
			flats = append(flats[:0], v)
			mults = mults[:0]
		}
	}

	sum := 0.0
	for _, f := range flats {
		sum += f
	}
	value := sum
	for _, m := range mults {
		value *= m
	}

	return round4(value), formatFormula(flats, mults)
}

func formatFormula(flats, mults []float64) string {
	var sb strings.Builder
	switch len(flats) {
	case 0:
		sb.WriteString("0")
	case 1:
		sb.WriteString(formatNumber(flats[0]))
	default:
		sb.WriteByte('(')
		sb.WriteString(formatNumber(flats[0]))
		for _, f := range flats[1:] {
			if f < 0 {
				sb.WriteString(" - ")
				sb.WriteString(formatNumber(-f))
			} else {
				sb.WriteString(" + ")
				sb.WriteString(formatNumber(f))
			}
		}
		sb.WriteByte(')')
	}
	for _, m := range mults {
		sb.WriteString(" * ")
		sb.WriteString(formatNumber(m))
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func concat(lists ...CommandList) CommandList {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	if n == 0 {
		return nil
	}
	out := make(CommandList, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
