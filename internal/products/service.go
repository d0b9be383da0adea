package products

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/cartflow/internal/cart"
	"github.com/angelmondragon/cartflow/pkg/bus"
	"github.com/angelmondragon/cartflow/pkg/db/models"
	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type publisher interface {
	Publish(ctx context.Context, channel string, data []byte) error
}

// AddProductInput is the payload for placing a product in the cart.
type AddProductInput struct {
	Name       string
	MSRP       decimal.Decimal
	Quantity   int
	PictureURL string
}

// CartUpdate is the payload published on the cart-updated channel.
type CartUpdate struct {
	ProductID string                 `json:"product_id,omitempty"`
	Reason    enums.CartUpdateReason `json:"reason"`
}

// Service is the cart products backend.
type Service struct {
	repo      Repository
	tx        txRunner
	publisher publisher
	logg      *logger.Logger
}

var _ cart.ProductStore = (*Service)(nil)

// NewService builds the cart products backend.
func NewService(repo Repository, tx txRunner, pub publisher, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, tx: tx, publisher: pub, logg: logg}, nil
}

// FetchProducts lists the cart in creation order. Store failures surface as
// CodeDependency with a fixed public message; the driver error is the cause.
func (s *Service) FetchProducts(ctx context.Context) ([]cart.Product, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart products")
	}
	out := make([]cart.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCartProduct(row))
	}
	return out, nil
}

// DeleteProducts removes every id in one transaction. If any id is missing nothing is removed.
func (s *Service) DeleteProducts(ctx context.Context, ids []string) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		return err
	}
	if len(parsed) == 0 {
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).DeleteByIDs(ctx, parsed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete cart products")
		}
		if affected != int64(len(parsed)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more cart products not found").
				WithDetails(map[string]any{"requested": len(parsed), "deleted": affected})
		}
		return nil
	})
}

func (s *Service) UpdateProductQuantity(ctx context.Context, product cart.Product) error {
	id, err := uuid.Parse(strings.TrimSpace(product.ID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	if product.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater")
	}
	affected, err := s.repo.UpdateQuantity(ctx, id, product.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update quantity")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart product not found")
	}
	return nil
}

// AddProduct stores a product and signals the cart-updated channel.
func (s *Service) AddProduct(ctx context.Context, input AddProductInput) (cart.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.MSRP.IsNegative() {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "msrp must be zero or greater")
	}
	if input.Quantity < 0 {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater")
	}

	row := &models.CartProduct{
		ID:         uuid.New(),
		Name:       name,
		MSRP:       input.MSRP.Round(2),
		Quantity:   input.Quantity,
		PictureURL: strings.TrimSpace(input.PictureURL),
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return cart.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to add cart product")
	}

	product := toCartProduct(*created)
	s.SignalCartUpdated(ctx, CartUpdate{ProductID: product.ID, Reason: enums.CartUpdateProductAdded})
	return product, nil
}

// SignalCartUpdated publishes on the cart-updated channel. Publish failures are logged.
func (s *Service) SignalCartUpdated(ctx context.Context, update CartUpdate) {
	if update.Reason == "" {
		update.Reason = enums.CartUpdateManual
	}
	data, err := json.Marshal(update)
	if err != nil {
		s.logg.Error(ctx, "products.cart_updated.encode_failed", err)
		return
	}
	if err := s.publisher.Publish(ctx, bus.CartUpdatedChannel, data); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "reason", update.Reason.String()), "products.cart_updated.publish_failed", err)
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "reason", update.Reason.String()), "products.cart_updated.published")
}

func parseIDs(ids []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id").
				WithDetails(map[string]any{"id": raw})
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func toCartProduct(row models.CartProduct) cart.Product {
	return cart.Product{
		ID:         row.ID.String(),
		Name:       row.Name,
		MSRP:       row.MSRP,
		Quantity:   row.Quantity,
		PictureURL: row.PictureURL,
	}
}
