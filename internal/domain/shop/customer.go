package shop

import "time"

// Customer is a shopper account as seen from the admin console.
type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Blocked    bool      `json:"blocked"`
	JoinedAt   time.Time `json:"joined_at"`
	OrderCount int64     `json:"order_count,omitempty"`
}
