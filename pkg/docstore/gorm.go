package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errStale aborts a gorm transaction attempt whose snapshot was overtaken.
var errStale = errors.New("docstore: stale snapshot")

// DocumentRow is the relational layout of a document.
type DocumentRow struct {
	Path       string         `gorm:"column:path;primaryKey;size:512"`
	Collection string         `gorm:"column:collection;size:512;not null;index:idx_documents_collection_key,priority:1"`
	DocKey     string         `gorm:"column:doc_key;size:255;not null;index:idx_documents_collection_key,priority:2"`
	Data       datatypes.JSON `gorm:"column:data;not null"`
	Version    int64          `gorm:"column:version;not null;default:1"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (DocumentRow) TableName() string {
	return "documents"
}

// GormStore persists documents in a single table. Transactions read their
// paths with SELECT ... FOR UPDATE where the dialect supports it and commit
// with a version compare-and-set, so concurrent writers on dialects without
// row locks (sqlite) still cannot lose updates.
type GormStore struct {
	db         *gorm.DB
	maxRetries int
}

func NewGormStore(db *gorm.DB, maxRetries int) *GormStore {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &GormStore{db: db, maxRetries: maxRetries}
}

// Migrate creates or updates the documents table.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&DocumentRow{})
}

func (s *GormStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ValidatePath(path); err != nil {
		return Document{}, err
	}

	var row DocumentRow
	if err := s.db.WithContext(ctx).Where("path = ?", path).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return row.document(), nil
}

func (s *GormStore) Set(ctx context.Context, path string, value any) error {
	return s.Transact(ctx, []string{path}, func(tx Txn) error {
		return tx.Set(path, value)
	})
}

func (s *GormStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.Transact(ctx, []string{path}, func(tx Txn) error {
		return tx.Update(path, fields)
	})
}

func (s *GormStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	var rows []DocumentRow
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_key").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return documents(rows), nil
}

func (s *GormStore) QueryByField(ctx context.Context, collection, field string, equals any) ([]Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	var rows []DocumentRow
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(datatypes.JSONQuery("data").Equals(equals, field)).
		Order("doc_key").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	// JSON equality differs slightly between dialects (sqlite compares
	// booleans as integers); re-check in Go so every backend agrees.
	want := normalizeJSON(equals)
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		if fieldEquals(rawJSON(row.Data), field, want) {
			out = append(out, row.document())
		}
	}
	return out, nil
}

func (s *GormStore) Transact(ctx context.Context, paths []string, fn TxFunc) error {
	paths, err := normalizedPaths(paths)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.attempt(tx, paths, fn)
		})

		var abort txAbort
		switch {
		case err == nil:
			return nil
		case errors.As(err, &abort):
			return abort.err
		case errors.Is(err, errStale):
			zap.L().Debug("[docstore] transaction conflict, retrying",
				zap.Strings("paths", paths), zap.Int("attempt", attempt))
			continue
		default:
			return err
		}
	}
	return ErrConflict
}

func (s *GormStore) attempt(tx *gorm.DB, paths []string, fn TxFunc) error {
	var rows []DocumentRow
	q := tx.Where("path IN ?", paths)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	if err := q.Find(&rows).Error; err != nil {
		return err
	}

	t := newTxn(paths)
	for _, row := range rows {
		t.load(row.Path, snapshot{data: rawJSON(row.Data), exists: true, version: row.Version})
	}

	if err := fn(t); err != nil {
		return txAbort{err: err}
	}

	now := time.Now().UTC()
	for _, w := range t.pending() {
		if w.previous.exists {
			res := tx.Model(&DocumentRow{}).
				Where("path = ? AND version = ?", w.path, w.previous.version).
				Updates(map[string]any{
					"data":       datatypes.JSON(w.data),
					"version":    gorm.Expr("version + 1"),
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStale
			}
			continue
		}

		collection, key := Split(w.path)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&DocumentRow{
			Path:       w.path,
			Collection: collection,
			DocKey:     key,
			Data:       datatypes.JSON(w.data),
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStale
		}
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r DocumentRow) document() Document {
	return Document{Path: r.Path, Data: rawJSON(r.Data)}
}

func documents(rows []DocumentRow) []Document {
	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.document())
	}
	return out
}

func rawJSON(data datatypes.JSON) json.RawMessage {
	return json.RawMessage(data)
}
