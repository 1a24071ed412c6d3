// Package model defines the core domain types shared across the application.
package model

// RawDocument is the output of the OCR engine for a single uploaded image.
// Confidence is the engine's average word confidence in [0,100].
type RawDocument struct {
	Text           string
	Confidence     float64
	ProcessingTime float64
}

// LineItem is a single purchasable row parsed from a receipt.
// Quantity and UnitPrice may be absent even when LineTotal is known; the
// parser makes no guarantee that qty * unit_price == line_total.
type LineItem struct {
	Quantity    *float64
	UnitPrice   *float64
	LineTotal   *float64
	Description string
	RawLine     string
}

// ParsedBill is the structured result of running the extractors over raw OCR
// text. Nil pointer fields mean the extractor found nothing; that is an
// expected outcome for noisy receipts, not an error.
type ParsedBill struct {
	Merchant *string
	Amount   *float64
	BillDate *string // ISO calendar date, no timezone
	RawLines []string
	Items    []LineItem

	// Payment context detected from UPI/bank screenshots. Empty when unknown.
	PaymentApp  string
	PaymentMode string
	Direction   string
}
