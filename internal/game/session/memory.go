package session

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node dev
// runs. JSON documents support root-path access only, which is all the
// session manager uses. TTLs are tracked but only enforced lazily.
type MemoryStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	jsons   map[string][]byte
	lists   map[string][]string
	expires map[string]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes:  make(map[string]map[string]string),
		jsons:   make(map[string][]byte),
		lists:   make(map[string][]string),
		expires: make(map[string]time.Time),
	}
}

func isRootPath(path string) bool { return path == "" || path == "." || path == "$" }

func (s *MemoryStore) HashGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.hashes[key]), nil
}

func (s *MemoryStore) HashGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = maps.Clone(s.hashes[k])
	}
	return out, nil
}

func (s *MemoryStore) HashSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashSet(key, fields)
	return nil
}

func (s *MemoryStore) hashSet(key string, fields map[string]string) {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	maps.Copy(h, fields)
}

func (s *MemoryStore) JSONGet(_ context.Context, key, path string) ([]byte, error) {
	if !isRootPath(path) {
		return nil, fmt.Errorf("memory store supports root json paths only, got %q", path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.jsons[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemoryStore) JSONGetMulti(ctx context.Context, pairs []KeyPath) ([][]byte, error) {
	out := make([][]byte, len(pairs))
	for i, kp := range pairs {
		doc, err := s.JSONGet(ctx, kp.Key, kp.Path)
		if err != nil {
			return nil, err
		}
		out[i] = doc
	}
	return out, nil
}

func (s *MemoryStore) JSONSet(_ context.Context, key, path string, value any) error {
	if !isRootPath(path) {
		return fmt.Errorf("memory store supports root json paths only, got %q", path)
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling json for %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jsons[key] = doc
	return nil
}

func (s *MemoryStore) ListPush(_ context.Context, key string, items ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append(s.lists[key], items...)
	return nil
}

func (s *MemoryStore) ListRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.lists[key]
	n := int64(len(l))
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	if start >= n || stop < start {
		return nil, nil
	}
	stop = min(stop, n-1)
	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

func (s *MemoryStore) ListLen(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.lists[key])), nil
}

func (s *MemoryStore) ListPopAll(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.lists[key]
	delete(s.lists, key)
	return l, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[key] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delete(keys...)
	return nil
}

func (s *MemoryStore) delete(keys ...string) {
	for _, k := range keys {
		delete(s.hashes, k)
		delete(s.jsons, k)
		delete(s.lists, k)
		delete(s.expires, k)
	}
}

// Pipeline applies every queued write under one lock acquisition, which
// gives the same atomicity the redis TxPipeline provides.
func (s *MemoryStore) Pipeline(_ context.Context, fn func(Pipe)) error {
	p := &memoryPipe{}
	fn(p)
	if p.err != nil {
		return p.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range p.ops {
		op(s)
	}
	return nil
}

type memoryPipe struct {
	ops []func(*MemoryStore)
	err error
}

func (p *memoryPipe) HashSet(key string, fields map[string]string) {
	fields = maps.Clone(fields)
	p.ops = append(p.ops, func(s *MemoryStore) { s.hashSet(key, fields) })
}

func (p *memoryPipe) JSONSet(key, path string, value any) {
	if !isRootPath(path) {
		p.err = fmt.Errorf("memory store supports root json paths only, got %q", path)
		return
	}
	doc, err := json.Marshal(value)
	if err != nil {
		p.err = fmt.Errorf("marshaling json for %s: %w", key, err)
		return
	}
	p.ops = append(p.ops, func(s *MemoryStore) { s.jsons[key] = doc })
}

func (p *memoryPipe) ListPush(key string, items ...string) {
	p.ops = append(p.ops, func(s *MemoryStore) { s.lists[key] = append(s.lists[key], items...) })
}

func (p *memoryPipe) Expire(key string, ttl time.Duration) {
	p.ops = append(p.ops, func(s *MemoryStore) { s.expires[key] = time.Now().Add(ttl) })
}

func (p *memoryPipe) Delete(keys ...string) {
	p.ops = append(p.ops, func(s *MemoryStore) { s.delete(keys...) })
}
