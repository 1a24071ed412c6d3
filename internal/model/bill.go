package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType distinguishes how money moved.
type TransactionType string

const (
	// TypeExpense represents money spent.
	TypeExpense TransactionType = "expense"
	// TypeIncome represents money received.
	TypeIncome TransactionType = "income"
	// TypeSaving represents money put aside.
	TypeSaving TransactionType = "saving"
)

// Bill is a persisted bill record derived from a ParsedBill or a chat entry.
type Bill struct {
	CreatedAt      time.Time
	ID             string
	UserID         string
	Merchant       string
	BillDate       string // ISO date, may be empty
	RawText        string // redacted before persistence
	Source         string // "ocr" or "chat"
	PaymentApp     string
	PaymentMode    string
	Type           TransactionType
	Amount         float64
	OCRConfidence  float64
	ProcessingTime float64
}

// GenerateHash creates a stable hash for duplicate detection.
func (b *Bill) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s",
		b.UserID,
		b.BillDate,
		b.Amount,
		b.Merchant)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// CategoryRecord attaches a category decision to a bill.
type CategoryRecord struct {
	CreatedAt  time.Time
	BillID     string
	Category   string
	Metadata   map[string]any
	Confidence float64
}
