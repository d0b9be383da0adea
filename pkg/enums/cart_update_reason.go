package enums

import (
	"fmt"
	"strings"
)

// CartUpdateReason explains why a cart-updated signal was published.
type CartUpdateReason string

const (
	CartUpdateManual       CartUpdateReason = "manual"
	CartUpdateProductAdded CartUpdateReason = "product_added"
	CartUpdateRestock      CartUpdateReason = "restock"
	CartUpdatePriceChange  CartUpdateReason = "price_change"
)

var validCartUpdateReasons = []CartUpdateReason{
	CartUpdateManual,
	CartUpdateProductAdded,
	CartUpdateRestock,
	CartUpdatePriceChange,
}

func (r CartUpdateReason) String() string {
	return string(r)
}

func (r CartUpdateReason) IsValid() bool {
	for _, candidate := range validCartUpdateReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCartUpdateReason accepts any known reason, case-insensitively. Empty
// input maps to CartUpdateManual.
func ParseCartUpdateReason(value string) (CartUpdateReason, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return CartUpdateManual, nil
	}
	for _, candidate := range validCartUpdateReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart update reason %q", value)
}
