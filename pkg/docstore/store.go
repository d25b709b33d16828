// Package docstore is the document-store contract the loyalty services are
// written against, with memory, gorm and redis backends.
//
// Documents are JSON objects addressed by slash separated paths such as
// "students/42" or "coin_logs/cafe_1/a%2Eb@u.edu". The parent of a path is
// its collection.
package docstore

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound       = errors.New("docstore: not found")
	ErrConflict       = errors.New("docstore: transaction conflict")
	ErrInvalidPath    = errors.New("docstore: invalid path")
	ErrUndeclaredPath = errors.New("docstore: path not declared in transaction")
	ErrNotObject      = errors.New("docstore: document is not an object")
)

// Document is a stored JSON value and the path it lives at.
type Document struct {
	Path string
	Data json.RawMessage
}

// Key is the last segment of the document path.
func (d Document) Key() string {
	_, key := Split(d.Path)
	return key
}

// Decode unmarshals the document into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Store is implemented by every backend.
type Store interface {
	// Get returns ErrNotFound when nothing is stored at path.
	Get(ctx context.Context, path string) (Document, error)
	// Set overwrites the document at path.
	Set(ctx context.Context, path string, value any) error
	// Update merges fields into the document at path, creating it if absent.
	// A nil field value removes the field.
	Update(ctx context.Context, path string, fields map[string]any) error
	// List returns the direct children of collection ordered by key.
	List(ctx context.Context, collection string) ([]Document, error)
	// QueryByField returns the children of collection whose top level field
	// equals the given value, ordered by key.
	QueryByField(ctx context.Context, collection, field string, equals any) ([]Document, error)
	// Transact runs fn against a consistent snapshot of paths and commits its
	// writes atomically. fn may run more than once if a concurrent writer
	// touched one of the paths; after the retry budget ErrConflict is returned.
	// An error returned by fn aborts the transaction and is returned as is.
	Transact(ctx context.Context, paths []string, fn TxFunc) error
	Ping(ctx context.Context) error
}

// TxFunc is the body of a transaction.
type TxFunc func(tx Txn) error

// Txn gives a transaction body access to its declared paths. Writes are
// buffered and only visible to later reads in the same body until commit.
type Txn interface {
	Get(path string) (Document, error)
	Set(path string, value any) error
	Update(path string, fields map[string]any) error
}
