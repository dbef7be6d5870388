package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below report extra context and match these via errors.Is.
var (
	ErrUnauthorizedRole     = errors.New("unauthorized role")
	ErrDanglingStaffAccount = errors.New("staff account is not linked to a shop owner")
	ErrProductNotFound      = errors.New("product not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrDuplicateIdentifier  = errors.New("duplicate identifier")
	ErrStatusConflict       = errors.New("order status changed concurrently")
	ErrInvalidInput         = errors.New("invalid input")
)

// InsufficientStockError is returned when a decrement would drive quantity below zero.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ProductNotFoundError names the product that could not be found in the tenant's catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.ProductID)
}

func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }

// TransitionError is returned when a status change is not allowed.
// From is empty when the order is being created.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("orders cannot be created in status %q", e.To)
	}
	return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// DuplicateIdentifierError is returned when a unique identifier is already taken within a tenant.
type DuplicateIdentifierError struct {
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("identifier %q is already in use", e.Identifier)
}

func (e *DuplicateIdentifierError) Is(target error) bool { return target == ErrDuplicateIdentifier }

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }
