// Package storage provides the data persistence layer for the khata application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hridayan/khata/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidBill   = errors.New("invalid bill")
	ErrInvalidRecord = errors.New("invalid category record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateBill validates a bill before insertion.
func validateBill(bill *model.Bill) error {
	if bill == nil {
		return fmt.Errorf("%w: bill", ErrNilParameter)
	}
	if strings.TrimSpace(bill.UserID) == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidBill)
	}
	if bill.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %.2f", ErrInvalidBill, bill.Amount)
	}
	switch bill.Type {
	case model.TypeExpense, model.TypeIncome, model.TypeSaving:
	default:
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidBill, bill.Type)
	}
	return nil
}

// validateCategoryRecord validates a category record before insertion.
func validateCategoryRecord(record *model.CategoryRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.BillID) == "" {
		return fmt.Errorf("%w: bill ID is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(record.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidRecord)
	}
	return nil
}
