package coin

import (
	"context"
	"errors"
	"time"

	"nearbyu-loyalty/pkg/cycle"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/services/student"
)

// CanAward reports whether the shop may award the student again at now:
// either it never did, or strictly more than one cycle has passed since the
// last award.
func (s *Service) CanAward(ctx context.Context, shopID, email string, now time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "coin.CanAward")
	defer span.End()

	doc, err := s.store.Get(ctx, LogPath(shopID, student.NormalizeEmail(email)))
	if errors.Is(err, docstore.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	var last CoinAward
	if err := doc.Decode(&last); err != nil {
		return false, err
	}
	return rateLimitAllows(&last, now, s.window), nil
}

// rateLimitAllows fails closed: an award log with an unreadable or future
// timestamp blocks the award.
func rateLimitAllows(last *CoinAward, now time.Time, window time.Duration) bool {
	if last == nil {
		return true
	}
	ts, ok := cycle.ParseTimestamp(last.LastCoinDate)
	if !ok {
		return false
	}
	return cycle.HasElapsed(ts, now, window)
}
