package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/extract"
	"github.com/hridayan/khata/internal/hybrid"
	"github.com/hridayan/khata/internal/memory"
	"github.com/hridayan/khata/internal/model"
	"github.com/hridayan/khata/internal/service"
)

// Confidence tiers for the heuristic confidence estimate.
const (
	confidenceFull       = 0.9  // amount and category both resolved
	confidenceAmountOnly = 0.55 // amount resolved, category pending
	confidencePending    = 0.45 // a pending transaction exists
	confidenceBase       = 0.3
	confidenceMerchant   = 0.03 // bonus when the merchant is known
	confidenceCap        = 0.95

	suggestionCount = 3
	listLimit       = 5
)

// Store is the slice of persistence the conversation needs. Satisfied by
// the full storage implementation.
type Store interface {
	CreateBill(ctx context.Context, bill *model.Bill) (string, error)
	InsertCategoryRecord(ctx context.Context, record *model.CategoryRecord) error
	GetTotalsByType(ctx context.Context, userID string) (map[model.TransactionType]service.TypeSummary, error)
	GetCategoryTotals(ctx context.Context, userID string) ([]service.CategoryTotal, error)
	GetSpendingByCategory(ctx context.Context, userID, category string) (*service.CategoryTotal, error)
	GetTopExpenses(ctx context.Context, userID string, limit int) ([]model.Bill, error)
	GetRecentBills(ctx context.Context, userID string, limit int) ([]model.Bill, error)
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Message    string
	Intent     model.Intent
	Pending    *model.PendingTransaction
	BillID     string
	Confidence float64
}

// Conversation drives the per-user chat state machine. The only state it
// keeps is the pending transaction per user; everything else round-trips
// through storage.
type Conversation struct {
	store   Store
	learner *memory.Learner
	chain   *hybrid.Chain

	mu      sync.Mutex
	pending map[string]*model.PendingTransaction
}

// NewConversation wires the chat flow.
func NewConversation(store Store, learner *memory.Learner, chain *hybrid.Chain) *Conversation {
	return &Conversation{
		store:   store,
		learner: learner,
		chain:   chain,
		pending: make(map[string]*model.PendingTransaction),
	}
}

// Pending returns the user's pending transaction, if any.
func (c *Conversation) Pending(userID string) *model.PendingTransaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[userID]
}

// Advance processes one message and returns the assistant's reply. Invalid
// input (empty message, non-positive amount) comes back as a UserError so
// callers can show it verbatim.
func (c *Conversation) Advance(ctx context.Context, userID, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, common.NewUserError("Please type a message.", common.ErrEmptyMessage)
	}

	pending := c.Pending(userID)
	intent := Parse(message, pending != nil)

	switch intent.Action {
	case model.ActionCompletePending:
		return c.completePending(ctx, userID, intent, pending)
	case model.ActionSaveTransaction:
		return c.saveTransaction(ctx, userID, intent)
	case model.ActionQuery:
		return c.answerQuery(ctx, userID, intent)
	case model.ActionAnalyze:
		return c.analyze(ctx, userID, intent)
	case model.ActionHelp:
		return c.help(intent), nil
	default:
		return &Reply{
			Message:    "I didn't catch that. Try \"spent 250 at Cafe Blue\" or \"show summary\".",
			Intent:     intent,
			Confidence: confidenceBase,
		}, nil
	}
}

func (c *Conversation) saveTransaction(ctx context.Context, userID string, intent model.Intent) (*Reply, error) {
	if intent.Amount == nil || *intent.Amount <= 0 {
		return nil, common.NewUserError(
			"I couldn't find a valid amount. Try something like \"spent 250 at Cafe Blue\".",
			common.ErrInvalidAmount)
	}
	amount := *intent.Amount

	category, resolved, err := c.chain.Resolve(ctx, hybrid.Query{
		UserID:   userID,
		Merchant: intent.Merchant,
		Text:     intent.Note,
		Amount:   amount,
	})
	if err != nil {
		return nil, err
	}

	suggestions, err := c.learner.Suggest(ctx, userID, intent.Merchant, intent.Note, amount)
	if err != nil {
		return nil, err
	}

	if !resolved {
		pending := &model.PendingTransaction{
			CreatedAt:   time.Now(),
			Merchant:    intent.Merchant,
			Note:        intent.Note,
			Type:        intent.Type,
			Amount:      amount,
			Suggestions: suggestions.TopN(suggestionCount).Categories(),
		}
		c.mu.Lock()
		c.pending[userID] = pending
		c.mu.Unlock()

		msg := fmt.Sprintf("Got ₹%.2f. Which category?", amount)
		if len(pending.Suggestions) > 0 {
			msg = fmt.Sprintf("Got ₹%.2f. Which category? Maybe: %s",
				amount, strings.Join(pending.Suggestions, ", "))
		}
		return &Reply{
			Message:    msg,
			Intent:     intent,
			Pending:    pending,
			Confidence: confidence(true, false, false, intent.Merchant != "", suggestions),
		}, nil
	}

	intent.Category = category
	billID, err := c.persist(ctx, userID, intent.Type, amount, intent.Merchant, intent.Note, category)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Message:    fmt.Sprintf("Saved ₹%.2f under %s.", amount, category),
		Intent:     intent,
		BillID:     billID,
		Confidence: confidence(true, true, false, intent.Merchant != "", suggestions),
	}, nil
}

func (c *Conversation) completePending(ctx context.Context, userID string, intent model.Intent, pending *model.PendingTransaction) (*Reply, error) {
	if pending == nil {
		return nil, fmt.Errorf("no pending transaction for user %s", userID)
	}

	category, resolved, err := c.chain.Resolve(ctx, hybrid.Query{
		UserID: userID,
		Text:   intent.Note,
		Amount: pending.Amount,
	})
	if err != nil {
		return nil, err
	}
	if !resolved {
		category = memory.TitleCase(intent.Note)
	}

	intent.Category = category
	intent.Type = pending.Type
	intent.Amount = &pending.Amount
	intent.Merchant = pending.Merchant

	billID, err := c.persist(ctx, userID, pending.Type, pending.Amount, pending.Merchant, pending.Note, category)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	delete(c.pending, userID)
	c.mu.Unlock()

	suggestions, err := c.learner.Suggest(ctx, userID, pending.Merchant, pending.Note, pending.Amount)
	if err != nil {
		return nil, err
	}

	return &Reply{
		Message:    fmt.Sprintf("Saved ₹%.2f under %s.", pending.Amount, category),
		Intent:     intent,
		BillID:     billID,
		Confidence: confidence(true, true, false, pending.Merchant != "", suggestions),
	}, nil
}

// persist writes the bill, its category record, and feeds the learner. A
// learner failure is logged, not surfaced, because the bill is already saved.
func (c *Conversation) persist(ctx context.Context, userID string, txType model.TransactionType, amount float64, merchant, note, category string) (string, error) {
	bill := &model.Bill{
		CreatedAt: time.Now(),
		UserID:    userID,
		Merchant:  merchant,
		RawText:   extract.Redact(note),
		Source:    "chat",
		Type:      txType,
		Amount:    amount,
	}
	billID, err := c.store.CreateBill(ctx, bill)
	if err != nil {
		return "", fmt.Errorf("creating bill: %w", err)
	}

	record := &model.CategoryRecord{
		CreatedAt:  time.Now(),
		BillID:     billID,
		Category:   category,
		Confidence: confidenceFull,
		Metadata:   map[string]any{"source": "chat"},
	}
	if err := c.store.InsertCategoryRecord(ctx, record); err != nil {
		return "", fmt.Errorf("recording category: %w", err)
	}

	if err := c.learner.Learn(ctx, userID, merchant, note, amount, category); err != nil {
		slog.Warn("category learning failed", "user_id", userID, "error", err)
	}
	return billID, nil
}

func (c *Conversation) answerQuery(ctx context.Context, userID string, intent model.Intent) (*Reply, error) {
	low := strings.ToLower(intent.Note)
	words := tokenize(low)

	var msg string
	var err error
	switch {
	case words["top"] || words["most"]:
		msg, err = c.formatTopExpenses(ctx, userID)
	case words["recent"]:
		msg, err = c.formatRecentBills(ctx, userID)
	default:
		if cat := c.mentionedCategory(ctx, userID, low); cat != "" {
			msg, err = c.formatCategorySpending(ctx, userID, cat)
		} else {
			msg, err = c.formatSummary(ctx, userID)
		}
	}
	if err != nil {
		return nil, err
	}

	return &Reply{Message: msg, Intent: intent, Confidence: confidenceFull}, nil
}

// mentionedCategory returns the first known category named in the message.
func (c *Conversation) mentionedCategory(ctx context.Context, userID, low string) string {
	cats, err := c.learner.AllCategories(ctx, userID)
	if err != nil {
		slog.Warn("listing categories failed", "user_id", userID, "error", err)
		return ""
	}
	words := tokenize(low)
	for _, cat := range cats {
		if words[strings.ToLower(cat)] {
			return cat
		}
	}
	return ""
}

func (c *Conversation) formatTopExpenses(ctx context.Context, userID string) (string, error) {
	bills, err := c.store.GetTopExpenses(ctx, userID, listLimit)
	if err != nil {
		return "", fmt.Errorf("top expenses: %w", err)
	}
	if len(bills) == 0 {
		return "No expenses recorded yet.", nil
	}

	var b strings.Builder
	b.WriteString("Your biggest expenses:\n")
	for i, bill := range bills {
		name := bill.Merchant
		if name == "" {
			name = "(no merchant)"
		}
		fmt.Fprintf(&b, "%d. ₹%.2f — %s\n", i+1, bill.Amount, name)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (c *Conversation) formatRecentBills(ctx context.Context, userID string) (string, error) {
	bills, err := c.store.GetRecentBills(ctx, userID, listLimit)
	if err != nil {
		return "", fmt.Errorf("recent bills: %w", err)
	}
	if len(bills) == 0 {
		return "No transactions recorded yet.", nil
	}

	var b strings.Builder
	b.WriteString("Recent transactions:\n")
	for _, bill := range bills {
		name := bill.Merchant
		if name == "" {
			name = "(no merchant)"
		}
		fmt.Fprintf(&b, "- ₹%.2f %s (%s)\n", bill.Amount, name, bill.Type)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (c *Conversation) formatCategorySpending(ctx context.Context, userID, category string) (string, error) {
	total, err := c.store.GetSpendingByCategory(ctx, userID, category)
	if err != nil {
		return "", fmt.Errorf("category spending: %w", err)
	}
	if total == nil || total.Count == 0 {
		return fmt.Sprintf("Nothing recorded under %s yet.", category), nil
	}
	return fmt.Sprintf("%s: ₹%.2f across %d transactions (avg ₹%.2f).",
		total.Category, total.Total, total.Count, total.Average), nil
}

func (c *Conversation) formatSummary(ctx context.Context, userID string) (string, error) {
	totals, err := c.store.GetTotalsByType(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("totals: %w", err)
	}
	if len(totals) == 0 {
		return "Nothing recorded yet. Tell me about a purchase to get started.", nil
	}

	var b strings.Builder
	b.WriteString("Summary:\n")
	for _, txType := range []model.TransactionType{model.TypeExpense, model.TypeIncome, model.TypeSaving} {
		if s, ok := totals[txType]; ok {
			fmt.Fprintf(&b, "- %s: ₹%.2f (%d)\n", txType, s.Total, s.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (c *Conversation) analyze(ctx context.Context, userID string, intent model.Intent) (*Reply, error) {
	totals, err := c.store.GetCategoryTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	if len(totals) == 0 {
		return &Reply{
			Message:    "Not enough data to analyze yet.",
			Intent:     intent,
			Confidence: confidenceFull,
		}, nil
	}

	var b strings.Builder
	b.WriteString("Spending by category:\n")
	for _, ct := range totals {
		fmt.Fprintf(&b, "- %s: ₹%.2f over %d transactions (avg ₹%.2f)\n",
			ct.Category, ct.Total, ct.Count, ct.Average)
	}
	return &Reply{
		Message:    strings.TrimRight(b.String(), "\n"),
		Intent:     intent,
		Confidence: confidenceFull,
	}, nil
}

func (c *Conversation) help(intent model.Intent) *Reply {
	msg := strings.Join([]string{
		"I can track your money. Try:",
		"- \"spent 250 at Cafe Blue\" to record an expense",
		"- \"earned 50000 salary\" to record income",
		"- \"show summary\" or \"top expenses\" to look back",
		"- \"analyze\" for a category breakdown",
	}, "\n")
	return &Reply{Message: msg, Intent: intent, Confidence: confidenceFull}
}

// confidence is the heuristic confidence estimate for a reply. It is not a
// model posterior.
func confidence(hasAmount, hasCategory, hasPending, merchantKnown bool, suggestions model.Suggestions) float64 {
	var conf float64
	switch {
	case hasAmount && hasCategory:
		conf = confidenceFull
	case hasAmount:
		conf = confidenceAmountOnly
	case hasPending:
		conf = confidencePending
	default:
		conf = confidenceBase
	}
	if merchantKnown {
		conf += confidenceMerchant
	}
	if top := suggestions.Top(); top != nil {
		if rescaled := top.Score / 100.0; rescaled > conf {
			conf = rescaled
			if conf > confidenceCap {
				conf = confidenceCap
			}
		}
	}
	return conf
}
