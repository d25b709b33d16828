package student

import (
	"context"
	"errors"
	"net/mail"

	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"
	"nearbyu-loyalty/pkg/gen"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("nearbyu-loyalty/services/student")

type Service struct {
	store  docstore.Store
	ids    gen.IDGenerator
	logger *zap.Logger
}

type ServiceParams struct {
	fx.In
	Store  docstore.Store
	IDs    gen.IDGenerator
	Logger *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: p.Store, ids: p.IDs, logger: logger.Named("student")}
}

type RegisterInput struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
}

var errEmailTaken = errors.New("email already registered")

// Register creates a student with zero balances. The email marker and the
// student document are written in one transaction, so an email can never be
// claimed twice.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Student, error) {
	ctx, span := tracer.Start(ctx, "student.Register")
	defer span.End()

	email := NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errutil.BadRequest("invalid email", err,
			errutil.WithDetails(errutil.Detail{Field: "email", Message: "must be a valid address"}))
	}
	if in.Name == "" {
		return nil, errutil.BadRequest("name is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "required"}))
	}

	st := &Student{ID: s.ids.NextID(), Email: email, Name: in.Name}
	markerPath := EmailPath(email)
	studentPath := Path(st.ID)

	err := s.store.Transact(ctx, []string{markerPath, studentPath}, func(tx docstore.Txn) error {
		if _, err := tx.Get(markerPath); err == nil {
			return errEmailTaken
		} else if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		if err := tx.Set(markerPath, emailMarker{StudentID: st.ID}); err != nil {
			return err
		}
		return tx.Set(studentPath, st)
	})
	if errors.Is(err, errEmailTaken) {
		return nil, errutil.Conflict("email already registered", nil)
	}
	if err != nil {
		s.logger.Error("failed to register student", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student registered", zap.String("student_id", st.ID))
	return st, nil
}

// Get returns the student stored under id.
func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	doc, err := s.store.Get(ctx, Path(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, errutil.NotFound("student not found", nil)
	}
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// GetByEmail resolves a student by email. It returns (nil, nil) when no
// student uses the email. Seeded data may hold several documents with the
// same email; the first by key wins.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Student, error) {
	ctx, span := tracer.Start(ctx, "student.GetByEmail")
	defer span.End()

	email = NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}

	docs, err := s.store.QueryByField(ctx, Collection, "email", email)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) > 1 {
		s.logger.Warn("several students share an email, using the first",
			zap.String("email", email), zap.Int("matches", len(docs)))
	}
	return Decode(docs[0])
}
