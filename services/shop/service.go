package shop

import (
	"context"
	"errors"

	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("nearbyu-loyalty/services/shop")

type Service struct {
	store  docstore.Store
	logger *zap.Logger
}

type ServiceParams struct {
	fx.In
	Store  docstore.Store
	Logger *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: p.Store, logger: logger.Named("shop")}
}

type RegisterInput struct {
	Name           string    `json:"name" binding:"required"`
	Category       string    `json:"category"`
	VendorUsername string    `json:"vendorUsername" binding:"required"`
	Products       []Product `json:"products"`
}

var errShopExists = errors.New("shop exists")

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Shop, error) {
	ctx, span := tracer.Start(ctx, "shop.Register")
	defer span.End()

	id := DeriveShopID(in.Name)
	if id == "" {
		return nil, errutil.BadRequest("shop name must contain letters or digits", nil,
			errutil.WithDetails(errutil.Detail{Field: "name", Message: "invalid"}))
	}
	if in.VendorUsername == "" {
		return nil, errutil.BadRequest("vendor username is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "vendorUsername", Message: "required"}))
	}

	sh := &Shop{
		ID:             id,
		Name:           in.Name,
		Category:       in.Category,
		VendorUsername: in.VendorUsername,
		Status:         StatusOpen,
		Products:       in.Products,
	}

	path := Path(id)
	err := s.store.Transact(ctx, []string{path}, func(tx docstore.Txn) error {
		if _, err := tx.Get(path); err == nil {
			return errShopExists
		} else if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return tx.Set(path, sh)
	})
	if errors.Is(err, errShopExists) {
		return nil, errutil.Conflict("shop already exists", nil)
	}
	if err != nil {
		s.logger.Error("failed to register shop", zap.String("shop_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("shop registered", zap.String("shop_id", id), zap.String("vendor", in.VendorUsername))
	return sh, nil
}

func (s *Service) Get(ctx context.Context, shopID string) (*Shop, error) {
	doc, err := s.store.Get(ctx, Path(shopID))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, errutil.NotFound("shop not found", nil)
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// FindByVendor returns the shops owned by a vendor username.
func (s *Service) FindByVendor(ctx context.Context, vendor string) ([]*Shop, error) {
	ctx, span := tracer.Start(ctx, "shop.FindByVendor")
	defer span.End()

	docs, err := s.store.QueryByField(ctx, Collection, "vendorUsername", vendor)
	if err != nil {
		return nil, err
	}
	out := make([]*Shop, 0, len(docs))
	for _, doc := range docs {
		sh, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, nil
}
