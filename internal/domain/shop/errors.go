package shop

// DomainError represents a domain-level error with a stable code
// suitable for surfacing as a user-visible notification.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountBlocked     = NewDomainError("ACCOUNT_BLOCKED", "This account has been blocked")
	ErrNotSignedIn        = NewDomainError("NOT_SIGNED_IN", "Sign in to continue")
	ErrAdminOnly          = NewDomainError("ADMIN_ONLY", "Administrator access required")
	ErrInvalidQuantity    = NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero")
	ErrInvalidStatus      = NewDomainError("INVALID_STATUS", "Unknown order status")
	ErrOutOfStock         = NewDomainError("OUT_OF_STOCK", "Product is out of stock")
)
