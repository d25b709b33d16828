package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type counterDoc struct {
	N int `json:"n"`
}

// runContract exercises the behaviour every backend has to share.
func runContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing/one")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "people/1", map[string]any{"email": "a@u.edu", "coins": 5}))

		doc, err := s.Get(ctx, "people/1")
		require.NoError(t, err)
		require.Equal(t, "1", doc.Key())

		var got struct {
			Email string `json:"email"`
			Coins int    `json:"coins"`
		}
		require.NoError(t, doc.Decode(&got))
		require.Equal(t, "a@u.edu", got.Email)
		require.Equal(t, 5, got.Coins)
	})

	t.Run("update merges and deletes", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "merge/1", map[string]any{"a": 1, "b": 2}))
		require.NoError(t, s.Update(ctx, "merge/1", map[string]any{"b": nil, "c": "x"}))

		doc, err := s.Get(ctx, "merge/1")
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, doc.Decode(&got))
		require.Equal(t, map[string]any{"a": float64(1), "c": "x"}, got)

		require.NoError(t, s.Update(ctx, "merge/2", map[string]any{"fresh": true}))
		_, err = s.Get(ctx, "merge/2")
		require.NoError(t, err)
	})

	t.Run("list direct children in key order", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "shelf/b", map[string]any{"v": 2}))
		require.NoError(t, s.Set(ctx, "shelf/a", map[string]any{"v": 1}))
		require.NoError(t, s.Set(ctx, "shelf/a/nested", map[string]any{"v": 3}))

		docs, err := s.List(ctx, "shelf")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		require.Equal(t, "a", docs[0].Key())
		require.Equal(t, "b", docs[1].Key())

		docs, err = s.List(ctx, "empty")
		require.NoError(t, err)
		require.Empty(t, docs)
	})

	t.Run("query by field", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "users/1", map[string]any{"email": "a@u.edu", "coins": 3}))
		require.NoError(t, s.Set(ctx, "users/2", map[string]any{"email": "b@u.edu", "coins": 3}))
		require.NoError(t, s.Set(ctx, "users/3", map[string]any{"email": "a@u.edu", "coins": 7}))

		docs, err := s.QueryByField(ctx, "users", "email", "a@u.edu")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		require.Equal(t, "users/1", docs[0].Path)
		require.Equal(t, "users/3", docs[1].Path)

		docs, err = s.QueryByField(ctx, "users", "coins", 3)
		require.NoError(t, err)
		require.Len(t, docs, 2)

		docs, err = s.QueryByField(ctx, "users", "email", "nobody@u.edu")
		require.NoError(t, err)
		require.Empty(t, docs)
	})

	t.Run("transact commits all writes", func(t *testing.T) {
		err := s.Transact(ctx, []string{"tx/a", "tx/b"}, func(tx Txn) error {
			if err := tx.Set("tx/a", counterDoc{N: 1}); err != nil {
				return err
			}
			// reads see earlier writes of the same body
			doc, err := tx.Get("tx/a")
			if err != nil {
				return err
			}
			var c counterDoc
			if err := doc.Decode(&c); err != nil {
				return err
			}
			return tx.Set("tx/b", counterDoc{N: c.N + 1})
		})
		require.NoError(t, err)

		var b counterDoc
		doc, err := s.Get(ctx, "tx/b")
		require.NoError(t, err)
		require.NoError(t, doc.Decode(&b))
		require.Equal(t, 2, b.N)
	})

	t.Run("transact body error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Transact(ctx, []string{"abort/a"}, func(tx Txn) error {
			if err := tx.Set("abort/a", counterDoc{N: 1}); err != nil {
				return err
			}
			return boom
		})
		require.Same(t, boom, err)

		_, err = s.Get(ctx, "abort/a")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("transact rejects undeclared path", func(t *testing.T) {
		err := s.Transact(ctx, []string{"decl/a"}, func(tx Txn) error {
			return tx.Set("decl/b", counterDoc{N: 1})
		})
		require.ErrorIs(t, err, ErrUndeclaredPath)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		const workers = 10
		var g errgroup.Group
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				return s.Transact(ctx, []string{"race/counter"}, func(tx Txn) error {
					var c counterDoc
					doc, err := tx.Get("race/counter")
					switch {
					case errors.Is(err, ErrNotFound):
					case err != nil:
						return err
					default:
						if err := doc.Decode(&c); err != nil {
							return err
						}
					}
					return tx.Set("race/counter", counterDoc{N: c.N + 1})
				})
			})
		}
		require.NoError(t, g.Wait())

		doc, err := s.Get(ctx, "race/counter")
		require.NoError(t, err)
		var c counterDoc
		require.NoError(t, doc.Decode(&c))
		require.Equal(t, workers, c.N)
	})

	t.Run("invalid paths", func(t *testing.T) {
		_, err := s.Get(ctx, "nocollection")
		require.ErrorIs(t, err, ErrInvalidPath)
		err = s.Set(ctx, fmt.Sprintf("bad/%s", "a.b"), counterDoc{})
		require.ErrorIs(t, err, ErrInvalidPath)
	})
}
