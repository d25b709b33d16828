package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

type snapshot struct {
	data    json.RawMessage
	exists  bool
	version int64
}

// txn buffers the writes of one transaction attempt. Backends load the
// snapshot of every declared path before running the body and apply
// pending() afterwards.
type txn struct {
	reads  map[string]snapshot
	writes map[string]json.RawMessage
	order  []string
}

func newTxn(paths []string) *txn {
	t := &txn{
		reads:  make(map[string]snapshot, len(paths)),
		writes: make(map[string]json.RawMessage),
	}
	for _, p := range paths {
		t.reads[p] = snapshot{}
	}
	return t
}

func (t *txn) load(path string, snap snapshot) {
	t.reads[path] = snap
}

func (t *txn) view(path string) (json.RawMessage, bool, error) {
	snap, ok := t.reads[path]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUndeclaredPath, path)
	}
	if raw, ok := t.writes[path]; ok {
		return raw, true, nil
	}
	return snap.data, snap.exists, nil
}

func (t *txn) Get(path string) (Document, error) {
	raw, exists, err := t.view(path)
	if err != nil {
		return Document{}, err
	}
	if !exists {
		return Document{}, ErrNotFound
	}
	return Document{Path: path, Data: raw}, nil
}

func (t *txn) Set(path string, value any) error {
	if _, _, err := t.view(path); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	t.put(path, raw)
	return nil
}

func (t *txn) Update(path string, fields map[string]any) error {
	current, exists, err := t.view(path)
	if err != nil {
		return err
	}
	if !exists {
		current = nil
	}
	raw, err := mergeFields(current, fields)
	if err != nil {
		return err
	}
	t.put(path, raw)
	return nil
}

func (t *txn) put(path string, raw json.RawMessage) {
	if _, ok := t.writes[path]; !ok {
		t.order = append(t.order, path)
	}
	t.writes[path] = raw
}

type pendingWrite struct {
	path     string
	data     json.RawMessage
	previous snapshot
}

func (t *txn) pending() []pendingWrite {
	out := make([]pendingWrite, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, pendingWrite{path: p, data: t.writes[p], previous: t.reads[p]})
	}
	return out
}

// txAbort carries an error returned by a transaction body through backend
// plumbing so that it can be handed back to the caller unchanged.
type txAbort struct{ err error }

func (a txAbort) Error() string { return a.err.Error() }
func (a txAbort) Unwrap() error { return a.err }

func mergeFields(current json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	obj := map[string]any{}
	if len(current) > 0 {
		if err := json.Unmarshal(current, &obj); err != nil || obj == nil {
			return nil, ErrNotObject
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(obj, k)
			continue
		}
		obj[k] = v
	}
	return json.Marshal(obj)
}

// normalizedPaths returns the distinct paths in sorted order, which is also
// the lock acquisition order.
func normalizedPaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := ValidatePath(p); err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// fieldEquals compares a top level field of a JSON object with want using
// JSON semantics (numbers compare by value regardless of Go type).
func fieldEquals(data json.RawMessage, field string, want any) bool {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return false
	}
	got, ok := obj[field]
	if !ok {
		return false
	}
	return reflect.DeepEqual(got, normalizeJSON(want))
}

func normalizeJSON(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
