// Package pricing derives the selected subset, total and select-all state of a cart.
package pricing

import "github.com/shopspring/decimal"

// Line is the pricing view of one cart row.
type Line struct {
	ID        string
	UnitPrice decimal.Decimal
	Quantity  int
	Selected  bool
}

// Summary is the derived state of a cart.
type Summary struct {
	Selected  []int
	Total     decimal.Decimal
	SelectAll SelectAllState
}

// Summarize filters lines by Selected (indices into lines, in order) and
// totals UnitPrice*Quantity rounded half-up to 2 places.
func Summarize(lines []Line) Summary {
	selected := make([]int, 0, len(lines))
	total := decimal.Zero
	for i, line := range lines {
		if !line.Selected {
			continue
		}
		selected = append(selected, i)
		total = total.Add(LineTotal(line))
	}
	return Summary{
		Selected:  selected,
		Total:     Round(total),
		SelectAll: StateOf(len(selected), len(lines)),
	}
}

// LineTotal returns UnitPrice*Quantity without rounding.
func LineTotal(line Line) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// Round rounds half away from zero to 2 places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// SelectAllState is the tri-state of the select-all control.
type SelectAllState string

const (
	SelectNone  SelectAllState = "none"
	SelectMixed SelectAllState = "mixed"
	SelectAll   SelectAllState = "all"
)

// StateOf compares the selected count to 0 and to the item count. An empty cart is none.
func StateOf(selected, total int) SelectAllState {
	switch {
	case selected <= 0 || total == 0:
		return SelectNone
	case selected >= total:
		return SelectAll
	default:
		return SelectMixed
	}
}

func (s SelectAllState) Checked() bool {
	return s == SelectAll
}

func (s SelectAllState) Indeterminate() bool {
	return s == SelectMixed
}
