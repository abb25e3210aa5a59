package shop

import (
	"github.com/shopspring/decimal"
)

// CartLine is one line of the server cart, keyed by its line ID.
// Quantity is server-authoritative: after any mutation the client re-fetches
// rather than deriving the new quantity from a delta.
type CartLine struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image,omitempty"`
	Size        string          `json:"size"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineTotal returns unit price times quantity for this line.
func (l *CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// CartSubtotal sums the line totals of the given cart lines.
func CartSubtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].LineTotal())
	}
	return total
}

// AddToCartInput is the payload for a cart "add" intent.
type AddToCartInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Size      string `json:"size" validate:"required,max=20"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// UpdateQuantityInput is the payload for a cart "update quantity" intent.
type UpdateQuantityInput struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}
