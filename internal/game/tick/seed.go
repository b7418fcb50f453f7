package tick

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/duskhall/duskhall/internal/db"
	"github.com/duskhall/duskhall/internal/game/stats"
	"github.com/duskhall/duskhall/internal/model"
)

// CharacterSource is what session seeding needs from the cold store.
// *db.CharacterRepository satisfies it; tests plug fixtures.
type CharacterSource interface {
	LoadCharacterAttributes(ctx context.Context, characterID string) (map[string]float64, error)
	LoadEquippedItems(ctx context.Context, characterID string) ([]db.EquippedItem, error)
	LoadVitals(ctx context.Context, characterID string) (hp, en, stamina int, err error)
}

// StartSession seeds a fresh session from the cold store and spawns its
// tick loop. teams maps team id → roster of character ids. The cold
// store is touched exactly once here; everything afterwards runs off
// the session cache.
func (o *Orchestrator) StartSession(ctx context.Context, sessionID string, teams map[string][]string) error {
	if o.degraded.Load() {
		return fmt.Errorf("orchestrator degraded, not starting session %s", sessionID)
	}
	if o.chars == nil {
		return fmt.Errorf("no character source configured")
	}
	if len(teams) < 2 {
		return fmt.Errorf("session %s needs at least two teams, got %d", sessionID, len(teams))
	}

	sc := &model.SessionContext{
		Meta: model.SessionMeta{
			SessionID: sessionID,
			Roles:     make(map[string]string),
		},
		Actors: make(map[string]*model.ActorSnapshot),
	}

	teamIDs := make([]string, 0, len(teams))
	for team := range teams {
		teamIDs = append(teamIDs, team)
	}
	slices.Sort(teamIDs)

	for _, team := range teamIDs {
		for _, characterID := range teams[team] {
			if _, dup := sc.Meta.Roles[characterID]; dup {
				return fmt.Errorf("character %s listed on more than one team", characterID)
			}
			snap, err := o.seedActor(ctx, characterID, team)
			if err != nil {
				return fmt.Errorf("seeding actor %s: %w", characterID, err)
			}
			sc.Meta.Roles[characterID] = team
			sc.Actors[characterID] = snap
		}
	}

	if err := o.mgr.SeedSession(ctx, sc); err != nil {
		return fmt.Errorf("seeding session %s: %w", sessionID, err)
	}
	slog.Info("session seeded", "session", sessionID, "actors", len(sc.Actors))

	return o.Resume(sessionID)
}

// seedActor builds one actor snapshot from cold-store data: base
// attributes, item stat commands layered into the source tier, loadout
// from item classes, and a fully resolved waterfall.
func (o *Orchestrator) seedActor(ctx context.Context, characterID, team string) (*model.ActorSnapshot, error) {
	hp, en, stamina, err := o.chars.LoadVitals(ctx, characterID)
	if err != nil {
		return nil, err
	}
	attrs, err := o.chars.LoadCharacterAttributes(ctx, characterID)
	if err != nil {
		return nil, err
	}
	items, err := o.chars.LoadEquippedItems(ctx, characterID)
	if err != nil {
		return nil, err
	}

	raw := stats.NewRaw()
	for _, name := range sortedStatKeys(attrs) {
		if !o.reg.KnownStat(name) {
			slog.Warn("skipping unknown attribute", "character", characterID, "attribute", name)
			continue
		}
		raw.Attribute(name).Base = attrs[name]
	}

	var loadout model.Loadout
	for _, item := range items {
		switch item.Slot {
		case model.SlotMainHand:
			loadout.MainHand = item.Class
		case model.SlotOffHand:
			loadout.OffHand = item.Class
		case "armor":
			loadout.Armor = item.Class
		}

		for _, stat := range sortedCommandKeys(item.Stats) {
			cmd := item.Stats[stat]
			if !o.reg.KnownStat(stat) {
				slog.Warn("skipping unknown item stat",
					"character", characterID, "item", item.ItemID, "stat", stat)
				continue
			}
			var entry *stats.Entry
			if o.reg.IsAttribute(stat) {
				entry = raw.Attribute(stat)
			} else {
				entry = raw.Modifier(stat)
			}
			entry.Source = entry.Source.Set("item:"+item.ItemID, cmd)
		}
	}

	res := stats.Calculate(raw, o.reg.ModifierRules())

	return &model.ActorSnapshot{
		ID:   characterID,
		Team: team,
		State: model.ActorState{
			HP: hp, MaxHP: hp,
			EN: en, MaxEN: en,
			Stamina: stamina,
			Tokens:  make(map[string]int),
		},
		Loadout: loadout,
		Stats: &stats.Document{
			Raw:         raw,
			Cache:       res.Cache,
			Explanation: res.Explanation,
		},
	}, nil
}

// Cancel marks the session cancelled; the loop observes the flag on its
// next tick and finishes the session.
func (o *Orchestrator) Cancel(ctx context.Context, sessionID string) error {
	sc, err := o.mgr.LoadContext(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session %s for cancel: %w", sessionID, err)
	}
	if sc == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}
	sc.Meta.Cancelled = true
	return o.mgr.CommitChanges(ctx, sessionID, sc, nil)
}

func sortedStatKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedCommandKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedEventNames(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedActorIDs(sc *model.SessionContext) []string {
	ids := make([]string, 0, len(sc.Actors))
	for id := range sc.Actors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func sortedTeams(sc *model.SessionContext) []string {
	seen := make(map[string]struct{})
	var teams []string
	for _, team := range sc.Meta.Roles {
		if _, ok := seen[team]; ok {
			continue
		}
		seen[team] = struct{}{}
		teams = append(teams, team)
	}
	slices.SortFunc(teams, strings.Compare)
	return teams
}
