package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"nearbyu-loyalty/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps each document as a JSON string and tracks collection
// membership in a set per collection. Transactions use WATCH on the document
// keys and commit with MULTI/EXEC.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	maxRetries int
}

func NewRedisStore(rdb *redis.Client, prefix string, maxRetries int) *RedisStore {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &RedisStore{rdb: rdb, prefix: prefix, maxRetries: maxRetries}
}

func (s *RedisStore) docKey(path string) string {
	return rediskey.BuildDocumentKey(s.prefix, path)
}

func (s *RedisStore) indexKey(collection string) string {
	return rediskey.BuildIndexKey(s.prefix, collection)
}

func (s *RedisStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ValidatePath(path); err != nil {
		return Document{}, err
	}

	raw, err := s.rdb.Get(ctx, s.docKey(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return Document{Path: path, Data: raw}, nil
}

func (s *RedisStore) Set(ctx context.Context, path string, value any) error {
	return s.Transact(ctx, []string{path}, func(tx Txn) error {
		return tx.Set(path, value)
	})
}

func (s *RedisStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.Transact(ctx, []string{path}, func(tx Txn) error {
		return tx.Update(path, fields)
	})
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.scan(ctx, collection, func(json.RawMessage) bool { return true })
}

func (s *RedisStore) QueryByField(ctx context.Context, collection, field string, equals any) ([]Document, error) {
	want := normalizeJSON(equals)
	return s.scan(ctx, collection, func(data json.RawMessage) bool {
		return fieldEquals(data, field, want)
	})
}

func (s *RedisStore) scan(ctx context.Context, collection string, match func(json.RawMessage) bool) ([]Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	keys, err := s.rdb.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	docKeys := make([]string, len(keys))
	for i, k := range keys {
		docKeys[i] = s.docKey(Join(collection, k))
	}
	vals, err := s.rdb.MGet(ctx, docKeys...).Result()
	if err != nil {
		return nil, err
	}

	var out []Document
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		raw := json.RawMessage(str)
		if match(raw) {
			out = append(out, Document{Path: Join(collection, keys[i]), Data: raw})
		}
	}
	return out, nil
}

func (s *RedisStore) Transact(ctx context.Context, paths []string, fn TxFunc) error {
	paths, err := normalizedPaths(paths)
	if err != nil {
		return err
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = s.docKey(p)
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, func(rtx *redis.Tx) error {
			return s.attempt(ctx, rtx, paths, keys, fn)
		}, keys...)

		var abort txAbort
		switch {
		case err == nil:
			return nil
		case errors.As(err, &abort):
			return abort.err
		case errors.Is(err, redis.TxFailedErr):
			zap.L().Debug("[docstore] transaction conflict, retrying",
				zap.Strings("paths", paths), zap.Int("attempt", attempt))
			continue
		default:
			return err
		}
	}
	return ErrConflict
}

func (s *RedisStore) attempt(ctx context.Context, rtx *redis.Tx, paths, keys []string, fn TxFunc) error {
	vals, err := rtx.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}

	t := newTxn(paths)
	for i, v := range vals {
		if str, ok := v.(string); ok {
			t.load(paths[i], snapshot{data: json.RawMessage(str), exists: true})
		}
	}

	if err := fn(t); err != nil {
		return txAbort{err: err}
	}

	writes := t.pending()
	if len(writes) == 0 {
		return nil
	}

	_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			collection, key := Split(w.path)
			pipe.Set(ctx, s.docKey(w.path), string(w.data), 0)
			pipe.SAdd(ctx, s.indexKey(collection), key)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
