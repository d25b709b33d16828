package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

type memoryRecord struct {
	data    json.RawMessage
	version int64
}

// MemoryStore keeps documents in process. Transactions lock their declared
// paths in sorted order, so bodies never run concurrently on the same path
// and never need a retry.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]memoryRecord
	locks sync.Map // path -> chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if err := ValidatePath(path); err != nil {
		return Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[path]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{Path: path, Data: cloneRaw(rec.data)}, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, value any) error {
	return s.Transact(ctx, []string{path}, func(tx Txn) error {
		return tx.Set(path, value)
	})
}

func (s *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.Transact(ctx, []string{path}, func(tx Txn) error {
		return tx.Update(path, fields)
	})
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.scan(ctx, collection, func(json.RawMessage) bool { return true })
}

func (s *MemoryStore) QueryByField(ctx context.Context, collection, field string, equals any) ([]Document, error) {
	want := normalizeJSON(equals)
	return s.scan(ctx, collection, func(data json.RawMessage) bool {
		return fieldEquals(data, field, want)
	})
}

func (s *MemoryStore) scan(ctx context.Context, collection string, match func(json.RawMessage) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	prefix := collection + "/"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for path, rec := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		if match(rec.data) {
			out = append(out, Document{Path: path, Data: cloneRaw(rec.data)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *MemoryStore) Transact(ctx context.Context, paths []string, fn TxFunc) error {
	paths, err := normalizedPaths(paths)
	if err != nil {
		return err
	}

	release, err := s.acquire(ctx, paths)
	if err != nil {
		return err
	}
	defer release()

	t := newTxn(paths)
	s.mu.RLock()
	for _, p := range paths {
		if rec, ok := s.docs[p]; ok {
			t.load(p, snapshot{data: cloneRaw(rec.data), exists: true, version: rec.version})
		}
	}
	s.mu.RUnlock()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range t.pending() {
		s.docs[w.path] = memoryRecord{data: w.data, version: w.previous.version + 1}
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) acquire(ctx context.Context, paths []string) (func(), error) {
	held := make([]chan struct{}, 0, len(paths))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}
	for _, p := range paths {
		v, _ := s.locks.LoadOrStore(p, make(chan struct{}, 1))
		lock := v.(chan struct{})
		select {
		case lock <- struct{}{}:
			held = append(held, lock)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
