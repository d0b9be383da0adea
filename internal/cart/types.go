package cart

import (
	"github.com/angelmondragon/cartflow/internal/pricing"
	"github.com/shopspring/decimal"
)

// LineItem is one cart row.
type LineItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	PictureURL string          `json:"picture_url"`
	Selected   bool            `json:"selected"`
}

func lineItemFromProduct(p Product) LineItem {
	return LineItem{
		ID:         p.ID,
		Name:       p.Name,
		UnitPrice:  p.MSRP,
		Quantity:   p.Quantity,
		PictureURL: p.PictureURL,
	}
}

func (li LineItem) product() Product {
	return Product{
		ID:         li.ID,
		Name:       li.Name,
		MSRP:       li.UnitPrice,
		Quantity:   li.Quantity,
		PictureURL: li.PictureURL,
	}
}

func (li LineItem) orderLine() OrderLine {
	return OrderLine{
		ProductID:    li.ID,
		ProductName:  li.Name,
		ProductPrice: li.UnitPrice,
		Quantity:     li.Quantity,
		PictureURL:   li.PictureURL,
	}
}

// CartView is a read-only snapshot of the cart. Slices are copies.
type CartView struct {
	Items         []LineItem             `json:"items"`
	SelectedItems []LineItem             `json:"selected_items"`
	TotalPrice    decimal.Decimal        `json:"total_price"`
	SelectAll     pricing.SelectAllState `json:"select_all"`
	Checked       bool                   `json:"select_all_checked"`
	Indeterminate bool                   `json:"select_all_indeterminate"`
	Empty         bool                   `json:"empty"`
}

// CheckoutPayload is the message carried on the checkout channel.
type CheckoutPayload struct {
	SelectedProducts []LineItem `json:"selected_products"`
}

func newCheckoutPayload(items []LineItem) CheckoutPayload {
	return CheckoutPayload{SelectedProducts: copyItems(items)}
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func pricingLines(items []LineItem) []pricing.Line {
	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{
			ID:        item.ID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Selected:  item.Selected,
		}
	}
	return lines
}
