package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EquippedItem is one equipped item with its stat payload: a map of
// stat name → waterfall command ("+10", "*1.1", "=5"). Class carries
// the combat classification of the item ("skill_swords", "shield",
// "heavy") and feeds the actor's loadout.
type EquippedItem struct {
	ItemID string
	Slot   string
	Class  string
	Stats  map[string]string
}

// CharacterRepository reads persistent character data. Called once per
// session start; everything after that runs off the hot cache.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a repository over the pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// LoadCharacterAttributes returns the raw base attributes of a
// character, keyed by attribute name. A missing character yields an
// empty map, not an error.
func (r *CharacterRepository) LoadCharacterAttributes(ctx context.Context, characterID string) (map[string]float64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT attribute, base
		 FROM character_attributes
		 WHERE character_id = $1`, characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attributes for %s: %w", characterID, err)
	}
	defer rows.Close()

	attrs := make(map[string]float64)
	for rows.Next() {
		var name string
		var base float64
		if err := rows.Scan(&name, &base); err != nil {
			return nil, fmt.Errorf("scanning attribute for %s: %w", characterID, err)
		}
		attrs[name] = base
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading attributes for %s: %w", characterID, err)
	}
	return attrs, nil
}

// LoadEquippedItems returns the character's equipped items with their
// stat payloads, ordered by slot for deterministic seeding.
func (r *CharacterRepository) LoadEquippedItems(ctx context.Context, characterID string) ([]EquippedItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT item_id, slot, class, stats
		 FROM character_items
		 WHERE character_id = $1 AND equipped
		 ORDER BY slot, item_id`, characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying items for %s: %w", characterID, err)
	}
	defer rows.Close()

	var items []EquippedItem
	for rows.Next() {
		var it EquippedItem
		var payload []byte
		if err := rows.Scan(&it.ItemID, &it.Slot, &it.Class, &payload); err != nil {
			return nil, fmt.Errorf("scanning item for %s: %w", characterID, err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &it.Stats); err != nil {
				return nil, fmt.Errorf("parsing stats of item %s: %w", it.ItemID, err)
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading items for %s: %w", characterID, err)
	}
	return items, nil
}

// LoadVitals returns the character's starting vitals. A missing
// character surfaces as a wrapped no-rows error.
func (r *CharacterRepository) LoadVitals(ctx context.Context, characterID string) (hp, en, stamina int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT max_hp, max_en, stamina
		 FROM characters
		 WHERE character_id = $1`, characterID,
	).Scan(&hp, &en, &stamina)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("querying vitals for %s: %w", characterID, err)
	}
	return hp, en, stamina, nil
}
