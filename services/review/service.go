package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/config"
	"nearbyu-loyalty/pkg/cycle"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"
	"nearbyu-loyalty/services/shop"
	"nearbyu-loyalty/services/student"

	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("nearbyu-loyalty/services/review")

type Service struct {
	store    docstore.Store
	clock    clock.Clock
	window   time.Duration
	students *student.Service
	logger   *zap.Logger
	loads    singleflight.Group
}

type ServiceParams struct {
	fx.In
	Store    docstore.Store
	Clock    clock.Clock
	Config   *config.Config
	Students *student.Service
	Logger   *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    p.Store,
		clock:    p.Clock,
		window:   p.Config.Window(),
		students: p.Students,
		logger:   logger.Named("review"),
	}
}

type SubmitInput struct {
	ShopID       string `json:"-"`
	StudentEmail string `json:"studentEmail" binding:"required"`
	Rating       int    `json:"rating" binding:"required"`
	Body         string `json:"body" binding:"required"`
}

var errAlreadyReviewed = errors.New("already reviewed")

// Submit stores a review. A student gets one counted review per shop per
// cycle; the per-(shop, student) marker is checked and written in the same
// transaction as the review.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	ctx, span := tracer.Start(ctx, "review.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("shop_id", in.ShopID))

	email := student.NormalizeEmail(in.StudentEmail)
	if err := validate(in, email); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, shop.Path(in.ShopID)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, errutil.NotFound("shop not found", nil)
		}
		return nil, err
	}

	st, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errutil.NotFound("student not found", nil)
	}

	now := s.clock.Now()
	r := &Review{
		ID:           reviewKey(st.Name, now.UnixMilli()),
		ShopID:       in.ShopID,
		StudentEmail: email,
		StudentName:  st.Name,
		Rating:       in.Rating,
		Body:         strings.TrimSpace(in.Body),
		Timestamp:    cycle.FormatTimestamp(now),
	}

	markPath := MarkPath(in.ShopID, email)
	reviewPath := Path(in.ShopID, r.ID)

	err = s.store.Transact(ctx, []string{markPath, reviewPath}, func(tx docstore.Txn) error {
		doc, err := tx.Get(markPath)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
		case err != nil:
			return err
		default:
			var m mark
			if err := doc.Decode(&m); err != nil {
				return err
			}
			if ts, ok := cycle.ParseTimestamp(m.Timestamp); ok && cycle.IsWithinCycle(ts, now, s.window) {
				return errAlreadyReviewed
			}
		}
		if _, err := tx.Get(reviewPath); err == nil {
			return errutil.Conflict("review key collision, retry", nil)
		}
		if err := tx.Set(reviewPath, r); err != nil {
			return err
		}
		return tx.Set(markPath, mark{ReviewID: r.ID, Timestamp: r.Timestamp})
	})
	if errors.Is(err, errAlreadyReviewed) {
		s.logger.Info("review rejected, already reviewed this cycle",
			zap.String("shop_id", in.ShopID), zap.String("student_email", email))
		return &SubmitResult{Outcome: SubmitAlreadyReviewed, Message: SubmitAlreadyReviewed.Message()}, nil
	}
	if err != nil {
		s.logger.Error("failed to submit review", zap.String("shop_id", in.ShopID), zap.Error(err))
		return nil, err
	}

	s.invalidate(in.ShopID)
	s.logger.Info("review submitted",
		zap.String("shop_id", in.ShopID),
		zap.String("review_id", r.ID),
		zap.Int("rating", r.Rating))
	return &SubmitResult{Outcome: SubmitSuccess, Message: SubmitSuccess.Message(), Review: r}, nil
}

func validate(in SubmitInput, email string) error {
	var details []errutil.Detail
	if in.ShopID == "" {
		details = append(details, errutil.Detail{Field: "shopId", Message: "required"})
	}
	if email == "" {
		details = append(details, errutil.Detail{Field: "studentEmail", Message: "required"})
	}
	if in.Rating < 1 || in.Rating > 5 {
		details = append(details, errutil.Detail{Field: "rating", Message: "must be between 1 and 5"})
	}
	if strings.TrimSpace(in.Body) == "" {
		details = append(details, errutil.Detail{Field: "body", Message: "required"})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid review", nil, errutil.WithDetails(details...))
	}
	return nil
}

// reviewKey is "{slug(name)}_{unixMillis}", or "anonymous_{unixMillis}".
func reviewKey(name string, millis int64) string {
	author := strings.ReplaceAll(slug.Make(name), "-", "_")
	if author == "" {
		author = "anonymous"
	}
	return fmt.Sprintf("%s_%d", author, millis)
}

// ListRecent returns the reviews of a shop that still count, newest first.
func (s *Service) ListRecent(ctx context.Context, shopID string, filter Filter) ([]*Review, error) {
	ctx, span := tracer.Start(ctx, "review.ListRecent")
	defer span.End()

	// The load is shared by every caller waiting on this shop, so it must
	// not end when the first caller goes away. The store bounds its duration.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(shopID, func() (any, error) {
		docs, err := s.store.List(loadCtx, ShopCollection(shopID))
		if err != nil {
			return nil, err
		}
		return decodeAll(docs), nil
	})

	var v any
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v = res.Val
	}

	now := s.clock.Now()
	var out []*Review
	for _, r := range v.([]*Review) {
		if r.IsRecent(now, s.window) && filter.Matches(r.Rating) {
			cp := *r
			out = append(out, &cp)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i].Time()
		tj, _ := out[j].Time()
		return ti.After(tj)
	})
	return out, nil
}

func (s *Service) invalidate(shopID string) {
	s.loads.Forget(shopID)
}
