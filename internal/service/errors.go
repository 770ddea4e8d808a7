package service

import (
	"errors"
	"fmt"
	"strings"
)

// Classified domain errors. Handlers translate these into HTTP status codes,
// so redemption callers can tell "already redeemed" from "expired" from
// "not found" instead of getting a generic failure.
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrVoucherNotFound        = errors.New("voucher not found")
	ErrVoucherAlreadyRedeemed = errors.New("voucher has already been redeemed")
	ErrVoucherExpired         = errors.New("voucher has expired")
	ErrStoreNotFound          = errors.New("store not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyExists     = errors.New("email is already registered")
)

// FieldViolation describes a single failed validation rule
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule for a request, not just the
// first one, so a caller can fix the whole payload in one round trip.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a violation to the error
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

// HasViolations reports whether any rule failed
func (e *ValidationError) HasViolations() bool {
	return len(e.Violations) > 0
}
