package docstore

import (
	"context"
	"testing"
	"time"

	"nearbyu-loyalty/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestGormStoreContract(t *testing.T) {
	db := testutil.NewTestDB(t, &DocumentRow{})
	runContract(t, NewGormStore(db, 5))
}

func TestGormStoreBumpsVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewGormStore(db, 5)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.Set(ctx, "students/1", map[string]any{"coins": 1}))
	require.NoError(t, s.Update(ctx, "students/1", map[string]any{"coins": 2}))

	var row DocumentRow
	require.NoError(t, db.Where("path = ?", "students/1").Take(&row).Error)
	require.Equal(t, int64(2), row.Version)
	require.Equal(t, "students", row.Collection)
	require.Equal(t, "1", row.DocKey)
}

// A writer that commits between the read and the compare-and-set makes every
// attempt stale; once the retry budget is spent the store reports a conflict
// and leaves the row as the other writer left it.
func TestGormStoreGivesUpAfterRetryBudget(t *testing.T) {
	db := testutil.NewTestDB(t, &DocumentRow{})
	s := NewGormStore(db, 2)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "shops/a", map[string]any{"n": 1}))

	bumps := 0
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:interleaved_writer", func(tx *gorm.DB) {
		bumps++
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE documents SET version = version + 1 WHERE path = ?", "shops/a")
		if err != nil {
			_ = tx.AddError(err)
		}
	}))

	err := s.Update(ctx, "shops/a", map[string]any{"n": 2})
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, 2, bumps)

	var row DocumentRow
	require.NoError(t, db.Where("path = ?", "shops/a").Take(&row).Error)
	require.Equal(t, int64(3), row.Version)
	require.JSONEq(t, `{"n":1}`, string(row.Data))
}

// A document created by someone else after the read turns the insert into a
// no-op; the transaction retries against the new row and overwrites it.
func TestGormStoreRetriesStaleCreate(t *testing.T) {
	db := testutil.NewTestDB(t, &DocumentRow{})
	s := NewGormStore(db, 5)
	ctx := context.Background()

	inserted := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:interleaved_insert", func(tx *gorm.DB) {
		if inserted {
			return
		}
		inserted = true
		now := time.Now().UTC()
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO documents (path, collection, doc_key, data, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			"shops/b", "shops", "b", `{"n":7}`, 1, now, now)
		if err != nil {
			_ = tx.AddError(err)
		}
	}))

	calls := 0
	err := s.Transact(ctx, []string{"shops/b"}, func(tx Txn) error {
		calls++
		return tx.Set("shops/b", map[string]any{"n": 1})
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	var row DocumentRow
	require.NoError(t, db.Where("path = ?", "shops/b").Take(&row).Error)
	require.Equal(t, int64(2), row.Version)
	require.JSONEq(t, `{"n":1}`, string(row.Data))
}
