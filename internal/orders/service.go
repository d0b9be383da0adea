package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/cartflow/internal/cart"
	"github.com/angelmondragon/cartflow/pkg/db/models"
	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service creates orders from confirmed cart lines.
type Service struct {
	repo Repository
	tx   txRunner
}

var _ cart.OrderCreator = (*Service)(nil)

// NewService builds an order service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{repo: repo, tx: tx}, nil
}

// CreateOrder stores the order and its lines in one transaction and returns the order id.
func (s *Service) CreateOrder(ctx context.Context, lines []cart.OrderLine) (string, error) {
	if len(lines) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "at least one order line is required")
	}

	orderID := uuid.New()
	rows := make([]models.OrderLine, 0, len(lines))
	total := decimal.Zero
	for i, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity <= 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID})
		}
		if line.ProductPrice.IsNegative() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater").
				WithDetails(map[string]any{"line": i, "product_id": line.ProductID})
		}
		total = total.Add(line.ProductPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		rows = append(rows, models.OrderLine{
			ID:           uuid.New(),
			OrderID:      orderID,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			ProductPrice: line.ProductPrice,
			Quantity:     line.Quantity,
			PictureURL:   line.PictureURL,
		})
	}

	order := &models.Order{
		ID:          orderID,
		Status:      enums.OrderStatusCreated,
		TotalAmount: total.Round(2),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return repo.CreateLines(ctx, rows)
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order")
	}
	return orderID.String(), nil
}

// Get returns a stored order with its lines.
func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	return order, nil
}
