package shop

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the backend. The client treats
// products as read-mostly; writes happen only through the admin console.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	Sizes       []string        `json:"sizes"`
	Bestseller  bool            `json:"bestseller,omitempty"`
}

// InStock reports whether any units remain.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// HasSize reports whether the product is offered in the given size.
// Size comparison is case-insensitive to match backend behavior.
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if strings.EqualFold(s, size) {
			return true
		}
	}
	return false
}

// ProductInput is the payload for admin product create/update calls.
// Validated client-side before any write is issued.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images" validate:"dive,url"`
	Category    string          `json:"category" validate:"required,max=100"`
	SubCategory string          `json:"sub_category" validate:"max=100"`
	Sizes       []string        `json:"sizes"`
}

// Validate checks constraints the validator tags cannot express.
func (in *ProductInput) Validate() error {
	if in.Price.IsNegative() {
		return NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
