package docstore

import (
	"context"
	"errors"
	"time"

	"nearbyu-loyalty/pkg/errutil"
)

// Guarded bounds every backend call with a deadline and turns backend
// failures into errutil errors: StatusTimeout when the deadline passes and
// StatusServiceUnavailable for anything else the backend reports. Invalid
// paths become StatusBadRequest and exhausted transaction retries
// StatusConflict, both still matching their docstore sentinel. ErrNotFound
// and errors returned by transaction bodies pass through as is.
type Guarded struct {
	next    Store
	timeout time.Duration
}

func WithTimeout(next Store, timeout time.Duration) *Guarded {
	return &Guarded{next: next, timeout: timeout}
}

func (g *Guarded) Get(ctx context.Context, path string) (doc Document, err error) {
	err = g.call(ctx, func(ctx context.Context) error {
		doc, err = g.next.Get(ctx, path)
		return err
	})
	return doc, err
}

func (g *Guarded) Set(ctx context.Context, path string, value any) error {
	return g.call(ctx, func(ctx context.Context) error {
		return g.next.Set(ctx, path, value)
	})
}

func (g *Guarded) Update(ctx context.Context, path string, fields map[string]any) error {
	return g.call(ctx, func(ctx context.Context) error {
		return g.next.Update(ctx, path, fields)
	})
}

func (g *Guarded) List(ctx context.Context, collection string) (docs []Document, err error) {
	err = g.call(ctx, func(ctx context.Context) error {
		docs, err = g.next.List(ctx, collection)
		return err
	})
	return docs, err
}

func (g *Guarded) QueryByField(ctx context.Context, collection, field string, equals any) (docs []Document, err error) {
	err = g.call(ctx, func(ctx context.Context) error {
		docs, err = g.next.QueryByField(ctx, collection, field, equals)
		return err
	})
	return docs, err
}

func (g *Guarded) Transact(ctx context.Context, paths []string, fn TxFunc) error {
	var bodyErr error
	err := g.call(ctx, func(ctx context.Context) error {
		return g.next.Transact(ctx, paths, func(tx Txn) error {
			bodyErr = fn(tx)
			return bodyErr
		})
	})
	if bodyErr != nil && errors.Is(err, bodyErr) {
		return bodyErr
	}
	return err
}

func (g *Guarded) Ping(ctx context.Context) error {
	return g.call(ctx, g.next.Ping)
}

func (g *Guarded) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return classify(ctx, fn(ctx))
}

func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var be errutil.BaseError
	switch {
	case errors.As(err, &be),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUndeclaredPath):
		return err
	case errors.Is(err, ErrInvalidPath):
		return errutil.BadRequest("invalid document path", err)
	case errors.Is(err, ErrConflict):
		return errutil.Conflict("concurrent update, retry the request", err)
	case errors.Is(err, ErrNotObject):
		return errutil.UnprocessableEntity("document is not an object", err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errutil.Timeout("store call timed out", err)
	case errors.Is(err, context.Canceled):
		return errutil.New(errutil.StatusClientClosedRequest, "request cancelled", errutil.WithErr(err))
	default:
		return errutil.Unavailable("store unavailable", err)
	}
}
