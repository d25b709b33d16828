package coin

import (
	"context"
	"errors"
	"time"

	"nearbyu-loyalty/pkg/cycle"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/services/student"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AwardCoin awards a coin at the current clock time.
func (s *Service) AwardCoin(ctx context.Context, shopID, email string) (*AwardResult, error) {
	return s.AwardCoinAt(ctx, shopID, email, s.clock.Now())
}

// AwardCoinAt gives one coin from a shop to the student with the given email,
// evaluating both windows at now.
//
// The student must exist and be eligible. The rate limit is evaluated
// inside the same transaction that increments the balance and refreshes the
// award log, so concurrent awards for one (shop, student) pair commit at
// most once per cycle. Awards for different students touch disjoint paths.
func (s *Service) AwardCoinAt(ctx context.Context, shopID, email string, now time.Time) (*AwardResult, error) {
	ctx, span := tracer.Start(ctx, "coin.AwardCoin")
	defer span.End()
	span.SetAttributes(attribute.String("shop_id", shopID))

	email = student.NormalizeEmail(email)
	log := s.logger.With(zap.String("shop_id", shopID), zap.String("student_email", email))

	res, err := s.awardCoin(ctx, shopID, email, now)
	if err != nil {
		log.Error("award failed", zap.Error(err))
		return nil, err
	}

	awardTotal.WithLabelValues(string(res.Outcome)).Inc()
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	log.Info("award processed", zap.String("outcome", string(res.Outcome)), zap.Int64("coins", res.Coins))
	return res, nil
}

func (s *Service) awardCoin(ctx context.Context, shopID, email string, now time.Time) (*AwardResult, error) {
	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return newAwardResult(AwardStudentNotFound), nil
	}

	eligible, err := s.IsEligible(ctx, shopID, email, now)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return newAwardResult(AwardRejectedNotEligible), nil
	}

	studentPath := student.Path(st.ID)
	logPath := LogPath(shopID, email)

	var res *AwardResult
	err = s.store.Transact(ctx, []string{studentPath, logPath}, func(tx docstore.Txn) error {
		doc, err := tx.Get(studentPath)
		if errors.Is(err, docstore.ErrNotFound) {
			res = newAwardResult(AwardStudentNotFound)
			return nil
		}
		if err != nil {
			return err
		}
		cur, err := student.Decode(doc)
		if err != nil {
			return err
		}

		logDoc, err := tx.Get(logPath)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
		case err != nil:
			return err
		default:
			var last CoinAward
			if err := logDoc.Decode(&last); err != nil {
				return err
			}
			if !rateLimitAllows(&last, now, s.window) {
				res = newAwardResult(AwardRejectedRateLimited)
				return nil
			}
		}

		coins := cur.Coins + 1
		if err := tx.Update(studentPath, map[string]any{"coins": coins}); err != nil {
			return err
		}
		if err := tx.Set(logPath, CoinAward{
			LastCoinDate: cycle.FormatTimestamp(now),
			ShopID:       shopID,
			StudentEmail: email,
		}); err != nil {
			return err
		}

		res = newAwardResult(AwardSuccess)
		res.StudentID = cur.ID
		res.Coins = coins
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
