// Package session owns the short-lived hot state of combat sessions:
// loading per-tick contexts from the key-value cache and committing
// mutated state back in one atomic batch.
package session

import (
	"context"
	"time"
)

// KeyPath addresses one JSON document read in a batched fetch.
type KeyPath struct {
	Key  string
	Path string
}

// Pipe queues writes inside an atomic batch. Commands are applied in
// order; either the whole batch lands or none of it does.
type Pipe interface {
	HashSet(key string, fields map[string]string)
	JSONSet(key, path string, value any)
	ListPush(key string, items ...string)
	Expire(key string, ttl time.Duration)
	Delete(keys ...string)
}

// Store is the contract over the hot cache: hashes for actor state,
// JSON documents for stats and effects, lists for logs and pending
// moves, pipelined batches for tick commits. Keys of different sessions
// are disjoint namespaces; the per-tick pipeline is the unit of
// atomicity.
type Store interface {
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	HashGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HashSet(ctx context.Context, key string, fields map[string]string) error

	// JSONGet returns the raw document at path ("." is the root), nil
	// when the key is missing.
	JSONGet(ctx context.Context, key, path string) ([]byte, error)
	JSONGetMulti(ctx context.Context, pairs []KeyPath) ([][]byte, error)
	JSONSet(ctx context.Context, key, path string, value any) error

	ListPush(ctx context.Context, key string, items ...string) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ListLen(ctx context.Context, key string) (int64, error)

	// ListPopAll atomically drains the list, returning items in push
	// order.
	ListPopAll(ctx context.Context, key string) ([]string, error)

	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Pipeline executes fn's queued writes as one atomic batch.
	Pipeline(ctx context.Context, fn func(Pipe)) error
}

// Session key namespace. Every key of a session shares the
// combat:{id}: prefix so eviction and teardown stay single-scan.
func metaKey(sessionID string) string           { return "combat:" + sessionID + ":meta" }
func actorKey(sessionID, actorID string) string { return "combat:" + sessionID + ":actor:" + actorID }
func statsKey(sessionID, actorID string) string { return "combat:" + sessionID + ":stats:" + actorID }
func effectsKey(sessionID, actorID string) string {
	return "combat:" + sessionID + ":effects:" + actorID
}
func movesKey(sessionID string) string { return "combat:" + sessionID + ":moves" }
func logKey(sessionID string) string   { return "combat:" + sessionID + ":log" }
