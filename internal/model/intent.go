package model

import "time"

// Action is the high-level intent of a chat message.
type Action string

const (
	// ActionSaveTransaction records an expense, income or saving.
	ActionSaveTransaction Action = "save_transaction"
	// ActionQuery asks about spending history.
	ActionQuery Action = "query"
	// ActionAnalyze asks for spending analysis and insights.
	ActionAnalyze Action = "analyze"
	// ActionHelp asks what the assistant can do.
	ActionHelp Action = "help"
	// ActionCompletePending supplies the category for a pending transaction.
	ActionCompletePending Action = "complete_pending"
	// ActionUnknown is anything the parser could not classify.
	ActionUnknown Action = "unknown"
)

// Intent is the structured interpretation of a single chat message.
type Intent struct {
	Amount   *float64
	Action   Action
	Type     TransactionType // only set for save_transaction
	Category string
	Merchant string
	Note     string
}

// PendingTransaction is a partially specified transaction waiting for a
// category before it can be persisted.
type PendingTransaction struct {
	CreatedAt   time.Time
	Merchant    string
	Note        string
	Type        TransactionType
	Suggestions []string
	Amount      float64
}
