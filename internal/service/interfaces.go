// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/hridayan/khata/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Bill operations
	CreateBill(ctx context.Context, bill *model.Bill) (string, error)
	InsertLineItems(ctx context.Context, billID string, items []model.LineItem) error
	InsertCategoryRecord(ctx context.Context, record *model.CategoryRecord) error
	GetBillByID(ctx context.Context, id string) (*model.Bill, error)

	// Category memory operations
	LoadUserMemory(ctx context.Context, userID string) (*model.UserMemory, error)
	SaveUserMemory(ctx context.Context, userID string, memory *model.UserMemory) error

	// Summary operations for chat queries
	GetTotalsByType(ctx context.Context, userID string) (map[model.TransactionType]TypeSummary, error)
	GetCategoryTotals(ctx context.Context, userID string) ([]CategoryTotal, error)
	GetSpendingByCategory(ctx context.Context, userID, category string) (*CategoryTotal, error)
	GetTopExpenses(ctx context.Context, userID string, limit int) ([]model.Bill, error)
	GetRecentBills(ctx context.Context, userID string, limit int) ([]model.Bill, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TypeSummary aggregates bills of one transaction type.
type TypeSummary struct {
	Total float64
	Count int
}

// CategoryTotal aggregates expense bills for one category.
type CategoryTotal struct {
	Category string
	Total    float64
	Average  float64
	Count    int
}
