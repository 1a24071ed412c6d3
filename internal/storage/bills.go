package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/model"
	"github.com/hridayan/khata/internal/service"
)

// CreateBill persists a bill and returns its generated ID. A bill whose
// user/date/amount/merchant hash already exists is rejected with
// common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateBill(ctx context.Context, bill *model.Bill) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateBill(bill); err != nil {
		return "", err
	}

	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills (id, user_id, hash, merchant, bill_date, raw_text, source,
			payment_app, payment_mode, type, amount, ocr_confidence, processing_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.UserID, bill.GenerateHash(), bill.Merchant, bill.BillDate,
		bill.RawText, bill.Source, bill.PaymentApp, bill.PaymentMode,
		string(bill.Type), bill.Amount, bill.OCRConfidence, bill.ProcessingTime,
		bill.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", fmt.Errorf("%w: bill %s", common.ErrDuplicateEntry, bill.GenerateHash())
		}
		return "", fmt.Errorf("failed to insert bill: %w", err)
	}

	return bill.ID, nil
}

// InsertLineItems persists a bill's line items in one transaction.
func (s *SQLiteStorage) InsertLineItems(ctx context.Context, billID string, items []model.LineItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(billID, "billID"); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bill_items (bill_id, description, quantity, unit_price, line_total, raw_line)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, billID, item.Description,
			item.Quantity, item.UnitPrice, item.LineTotal, item.RawLine); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit line items: %w", err)
	}
	return nil
}

// InsertCategoryRecord attaches a category decision to a bill.
func (s *SQLiteStorage) InsertCategoryRecord(ctx context.Context, record *model.CategoryRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategoryRecord(record); err != nil {
		return err
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	var metadata any
	if record.Metadata != nil {
		data, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_records (bill_id, category, confidence, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		record.BillID, record.Category, record.Confidence, metadata, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category record: %w", err)
	}
	return nil
}

// GetBillByID retrieves one bill, or common.ErrNotFound.
func (s *SQLiteStorage) GetBillByID(ctx context.Context, id string) (*model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, merchant, bill_date, raw_text, source,
			payment_app, payment_mode, type, amount, ocr_confidence, processing_time, created_at
		FROM bills WHERE id = ?`, id)

	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bill %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*model.Bill, error) {
	var bill model.Bill
	var billType string
	err := row.Scan(&bill.ID, &bill.UserID, &bill.Merchant, &bill.BillDate,
		&bill.RawText, &bill.Source, &bill.PaymentApp, &bill.PaymentMode,
		&billType, &bill.Amount, &bill.OCRConfidence, &bill.ProcessingTime,
		&bill.CreatedAt)
	if err != nil {
		return nil, err
	}
	bill.Type = model.TransactionType(billType)
	return &bill, nil
}

// GetTotalsByType aggregates a user's bills per transaction type.
func (s *SQLiteStorage) GetTotalsByType(ctx context.Context, userID string) (map[model.TransactionType]service.TypeSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT type, SUM(amount), COUNT(*)
		FROM bills WHERE user_id = ?
		GROUP BY type`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[model.TransactionType]service.TypeSummary)
	for rows.Next() {
		var billType string
		var summary service.TypeSummary
		if err := rows.Scan(&billType, &summary.Total, &summary.Count); err != nil {
			return nil, fmt.Errorf("failed to scan totals: %w", err)
		}
		totals[model.TransactionType(billType)] = summary
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate totals: %w", err)
	}
	return totals, nil
}

// GetCategoryTotals aggregates a user's expenses per category, biggest first.
func (s *SQLiteStorage) GetCategoryTotals(ctx context.Context, userID string) ([]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cr.category, SUM(b.amount), AVG(b.amount), COUNT(*)
		FROM category_records cr
		JOIN bills b ON b.id = cr.bill_id
		WHERE b.user_id = ? AND b.type = ?
		GROUP BY cr.category
		ORDER BY SUM(b.amount) DESC, cr.category`, userID, string(model.TypeExpense))
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []service.CategoryTotal
	for rows.Next() {
		var ct service.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Average, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}

// GetSpendingByCategory aggregates one category's expenses for a user. A
// category with no bills comes back with a zero count, not an error.
func (s *SQLiteStorage) GetSpendingByCategory(ctx context.Context, userID, category string) (*service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	ct := service.CategoryTotal{Category: category}
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(b.amount), 0), COALESCE(AVG(b.amount), 0), COUNT(*)
		FROM category_records cr
		JOIN bills b ON b.id = cr.bill_id
		WHERE b.user_id = ? AND b.type = ? AND cr.category = ? COLLATE NOCASE`,
		userID, string(model.TypeExpense), category).
		Scan(&ct.Total, &ct.Average, &ct.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spending: %w", err)
	}
	return &ct, nil
}

// GetTopExpenses returns the user's largest expenses.
func (s *SQLiteStorage) GetTopExpenses(ctx context.Context, userID string, limit int) ([]model.Bill, error) {
	return s.queryBills(ctx, userID, `
		SELECT id, user_id, merchant, bill_date, raw_text, source,
			payment_app, payment_mode, type, amount, ocr_confidence, processing_time, created_at
		FROM bills WHERE user_id = ? AND type = ?
		ORDER BY amount DESC, created_at DESC
		LIMIT ?`, userID, string(model.TypeExpense), limit)
}

// GetRecentBills returns the user's most recent bills of any type.
func (s *SQLiteStorage) GetRecentBills(ctx context.Context, userID string, limit int) ([]model.Bill, error) {
	return s.queryBills(ctx, userID, `
		SELECT id, user_id, merchant, bill_date, raw_text, source,
			payment_app, payment_mode, type, amount, ocr_confidence, processing_time, created_at
		FROM bills WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?`, userID, limit)
}

func (s *SQLiteStorage) queryBills(ctx context.Context, userID, query string, args ...any) ([]model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bills []model.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}
