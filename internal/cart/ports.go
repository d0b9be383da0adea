package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the backend shape of a cart product.
type Product struct {
	ID         string
	Name       string
	MSRP       decimal.Decimal
	Quantity   int
	PictureURL string
}

// OrderLine is the backend shape of one order line.
type OrderLine struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	PictureURL   string          `json:"picture_url"`
}

// ProductStore is the cart products backend.
type ProductStore interface {
	FetchProducts(ctx context.Context) ([]Product, error)
	// DeleteProducts removes every id or none of them.
	DeleteProducts(ctx context.Context, ids []string) error
	UpdateProductQuantity(ctx context.Context, product Product) error
}

// OrderCreator submits orders and returns the new order id.
type OrderCreator interface {
	CreateOrder(ctx context.Context, lines []OrderLine) (string, error)
}
