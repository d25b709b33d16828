package coin

import (
	"context"
	"time"

	"nearbyu-loyalty/services/review"
	"nearbyu-loyalty/services/student"

	"go.opentelemetry.io/otel/attribute"
)

// IsEligible reports whether the student left a review for the shop that
// is still inside the cycle at now. Reviews with a missing or malformed
// timestamp never qualify.
func (s *Service) IsEligible(ctx context.Context, shopID, email string, now time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "coin.IsEligible")
	defer span.End()

	email = student.NormalizeEmail(email)
	reviews, err := review.ByStudent(ctx, s.store, shopID, email)
	if err != nil {
		return false, err
	}

	for _, r := range reviews {
		if r.Qualifies(email, now, s.window) {
			span.SetAttributes(attribute.Bool("eligible", true))
			return true, nil
		}
	}
	span.SetAttributes(attribute.Bool("eligible", false))
	return false, nil
}
