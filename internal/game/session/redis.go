package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over a redis instance with the JSON
// module loaded. Hashes hold actor vitals, JSON documents hold cached
// stats and effects, lists hold pending moves and the combat log.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return fields, nil
}

// HashGetAllMulti fetches several hashes in one pipelined round trip.
func (s *RedisStore) HashGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pipelined hgetall: %w", err)
	}
	out := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

func (s *RedisStore) HashSet(ctx context.Context, key string, fields map[string]string) error {
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) JSONGet(ctx context.Context, key, path string) ([]byte, error) {
	doc, err := s.rdb.JSONGet(ctx, key, path).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}
	if doc == "" {
		return nil, nil
	}
	return []byte(doc), nil
}

// JSONGetMulti fetches several JSON documents in one pipelined round
// trip.
func (s *RedisStore) JSONGetMulti(ctx context.Context, pairs []KeyPath) ([][]byte, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.JSONCmd, len(pairs))
	for i, kp := range pairs {
		cmds[i] = pipe.JSONGet(ctx, kp.Key, kp.Path)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pipelined json.get: %w", err)
	}
	out := make([][]byte, len(pairs))
	for i, cmd := range cmds {
		if doc := cmd.Val(); doc != "" {
			out[i] = []byte(doc)
		}
	}
	return out, nil
}

func (s *RedisStore) JSONSet(ctx context.Context, key, path string, value any) error {
	doc, err := marshalJSON(value)
	if err != nil {
		return err
	}
	if err := s.rdb.JSONSet(ctx, key, path, doc).Err(); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ListPush(ctx context.Context, key string, items ...string) error {
	if len(items) == 0 {
		return nil
	}
	args := make([]any, len(items))
	for i, it := range items {
		args[i] = it
	}
	if err := s.rdb.RPush(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	items, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	return items, nil
}

func (s *RedisStore) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", key, err)
	}
	return n, nil
}

func (s *RedisStore) ListPopAll(ctx context.Context, key string) ([]string, error) {
	n, err := s.rdb.LLen(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("llen %s: %w", key, err)
	}
	if n == 0 {
		return nil, nil
	}
	items, err := s.rdb.LPopCount(ctx, key, int(n)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lpop %s: %w", key, err)
	}
	return items, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Pipeline queues fn's writes on a MULTI/EXEC transaction so the tick
// commit lands atomically.
func (s *RedisStore) Pipeline(ctx context.Context, fn func(Pipe)) error {
	pipe := s.rdb.TxPipeline()
	rp := &redisPipe{ctx: ctx, pipe: pipe}
	fn(rp)
	if rp.err != nil {
		return rp.err
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("executing tx pipeline: %w", err)
	}
	return nil
}

type redisPipe struct {
	ctx  context.Context
	pipe redis.Pipeliner
	err  error
}

func (p *redisPipe) HashSet(key string, fields map[string]string) {
	p.pipe.HSet(p.ctx, key, fields)
}

func (p *redisPipe) JSONSet(key, path string, value any) {
	doc, err := marshalJSON(value)
	if err != nil {
		p.err = err
		return
	}
	p.pipe.JSONSet(p.ctx, key, path, doc)
}

func (p *redisPipe) ListPush(key string, items ...string) {
	if len(items) == 0 {
		return
	}
	args := make([]any, len(items))
	for i, it := range items {
		args[i] = it
	}
	p.pipe.RPush(p.ctx, key, args...)
}

func (p *redisPipe) Expire(key string, ttl time.Duration) {
	p.pipe.Expire(p.ctx, key, ttl)
}

func (p *redisPipe) Delete(keys ...string) {
	p.pipe.Del(p.ctx, keys...)
}

// marshalJSON pre-serializes values so JSON.SET receives the exact
// bytes we decided on, not a driver-chosen encoding.
func marshalJSON(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshaling json value: %w", err)
	}
	return string(doc), nil
}
