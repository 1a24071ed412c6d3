package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/extract"
	"github.com/hridayan/khata/internal/hybrid"
	"github.com/hridayan/khata/internal/memory"
	"github.com/hridayan/khata/internal/model"
)

// IngestResult reports what one OCR document produced.
type IngestResult struct {
	Bill       *model.Bill
	Parsed     model.ParsedBill
	Suggestion *hybrid.Result
	Persisted  bool
	Duplicate  bool
	SkipReason string
}

// Pipeline runs the OCR-to-category flow: extract fields, redact, persist,
// suggest a category. Each invocation is synchronous and independent.
type Pipeline struct {
	store     Storage
	learner   *memory.Learner
	suggester *hybrid.Suggester
}

// NewPipeline wires the ingestion flow.
func NewPipeline(store Storage, learner *memory.Learner, suggester *hybrid.Suggester) *Pipeline {
	return &Pipeline{
		store:     store,
		learner:   learner,
		suggester: suggester,
	}
}

// IngestText processes one OCR'd document for a user. Unusable documents
// (no amount, or an implausible one) are skipped, not failed, so directory
// ingests keep going. Duplicates are flagged the same way.
func (p *Pipeline) IngestText(ctx context.Context, userID string, doc model.RawDocument) (*IngestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("userID is required")
	}

	parsed := extract.ExtractBillFields(doc.Text)
	result := &IngestResult{Parsed: parsed}

	if parsed.Amount == nil {
		result.SkipReason = "no amount found"
		return result, nil
	}

	merchant := ""
	if parsed.Merchant != nil {
		merchant = *parsed.Merchant
	}
	billDate := ""
	if parsed.BillDate != nil {
		billDate = *parsed.BillDate
	}

	txType := model.TypeExpense
	if parsed.Direction == "Received" {
		txType = model.TypeIncome
	}

	bill := &model.Bill{
		CreatedAt:      time.Now(),
		UserID:         userID,
		Merchant:       merchant,
		BillDate:       billDate,
		RawText:        extract.Redact(doc.Text),
		Source:         "ocr",
		PaymentApp:     parsed.PaymentApp,
		PaymentMode:    parsed.PaymentMode,
		Type:           txType,
		Amount:         *parsed.Amount,
		OCRConfidence:  doc.Confidence,
		ProcessingTime: doc.ProcessingTime,
	}

	billID, err := p.store.CreateBill(ctx, bill)
	if errors.Is(err, common.ErrDuplicateEntry) {
		result.Duplicate = true
		result.Bill = bill
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persisting bill: %w", err)
	}
	bill.ID = billID
	result.Bill = bill
	result.Persisted = true

	if len(parsed.Items) > 0 {
		if err := p.store.InsertLineItems(ctx, billID, parsed.Items); err != nil {
			return nil, fmt.Errorf("persisting line items: %w", err)
		}
	}

	suggestion, err := p.suggester.Suggest(ctx, userID,
		itemText(parsed.Items), merchant, parsed.PaymentMode, bill.Amount)
	if err != nil {
		// The bill is saved; a suggester failure shouldn't undo that.
		slog.Warn("category suggestion failed", "bill_id", billID, "error", err)
		return result, nil
	}
	result.Suggestion = suggestion

	if suggestion.FinalCategory != "" {
		record := &model.CategoryRecord{
			CreatedAt:  time.Now(),
			BillID:     billID,
			Category:   suggestion.FinalCategory,
			Confidence: suggestion.FinalScore,
			Metadata:   map[string]any{"source": "suggestion"},
		}
		if err := p.store.InsertCategoryRecord(ctx, record); err != nil {
			return nil, fmt.Errorf("recording suggested category: %w", err)
		}
	}

	return result, nil
}

// ConfirmCategory records the user's category decision for a bill and feeds
// it back into the learner.
func (p *Pipeline) ConfirmCategory(ctx context.Context, userID, billID, category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category is required")
	}

	bill, err := p.store.GetBillByID(ctx, billID)
	if err != nil {
		return fmt.Errorf("loading bill: %w", err)
	}
	if bill.UserID != userID {
		return fmt.Errorf("%w: bill %s", common.ErrNotFound, billID)
	}

	category = memory.TitleCase(category)
	record := &model.CategoryRecord{
		CreatedAt:  time.Now(),
		BillID:     billID,
		Category:   category,
		Confidence: 1.0,
		Metadata:   map[string]any{"source": "user"},
	}
	if err := p.store.InsertCategoryRecord(ctx, record); err != nil {
		return fmt.Errorf("recording category: %w", err)
	}

	// The record is already saved; learning stays best-effort.
	if err := p.learner.Learn(ctx, userID, bill.Merchant, bill.RawText, bill.Amount, category); err != nil {
		slog.Warn("category learning failed", "bill_id", billID, "user_id", userID, "error", err)
	}
	return nil
}

// itemText joins line-item descriptions into the classifier's item field.
func itemText(items []model.LineItem) string {
	descs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Description != "" {
			descs = append(descs, item.Description)
		}
	}
	return strings.Join(descs, " ")
}
