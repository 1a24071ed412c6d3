package intent

import (
	"regexp"
	"strings"

	"github.com/hridayan/khata/internal/extract"
	"github.com/hridayan/khata/internal/model"
)

// Words that turn a message into a history question rather than a new entry.
var queryWords = []string{
	"how", "what", "show", "list", "which", "most", "top",
	"recent", "summary", "analyze", "help",
}

// Verbs that indicate the user is recording money movement.
var transactionVerbs = []string{"spent", "paid", "bought", "saved", "earned", "made"}

var (
	bareNumberPattern = regexp.MustCompile(`^₹?\s*\d+(?:[.,]\d+)?$`)
	// Merchant follows a preposition: "at Starbucks", "from Amazon".
	merchantPattern = regexp.MustCompile(`(?i)\b(?:at|from|in|on)\s+([A-Za-z][A-Za-z0-9&.'\- ]{1,60})`)
)

// Tokens that end a merchant candidate.
var merchantStopWords = map[string]struct{}{
	"for": {}, "spent": {}, "paid": {}, "rs": {}, "rupees": {},
	"today": {}, "yesterday": {}, "and": {},
}

// Parse classifies a single chat message. hasPending reflects whether the
// user has a transaction waiting for a category, in which case the whole
// message is treated as the category answer.
func Parse(message string, hasPending bool) model.Intent {
	trimmed := strings.TrimSpace(message)
	low := strings.ToLower(trimmed)

	intent := model.Intent{Action: model.ActionUnknown, Note: trimmed}
	if trimmed == "" {
		return intent
	}

	if hasPending {
		intent.Action = model.ActionCompletePending
		return intent
	}

	words := tokenize(low)

	if hasAnyWord(words, queryWords) {
		switch {
		case words["help"]:
			intent.Action = model.ActionHelp
		case words["analyze"] || words["analysis"]:
			intent.Action = model.ActionAnalyze
		default:
			intent.Action = model.ActionQuery
		}
		return intent
	}

	if hasAnyWord(words, transactionVerbs) || bareNumberPattern.MatchString(trimmed) {
		intent.Action = model.ActionSaveTransaction
		intent.Type = transactionType(words)
		// Amount extraction runs on the original casing so currency
		// markers survive.
		intent.Amount = extract.ExtractAmount(trimmed)
		intent.Merchant = extractMerchant(trimmed)
		return intent
	}

	return intent
}

func tokenize(low string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(low, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		words[w] = true
	}
	return words
}

func hasAnyWord(words map[string]bool, candidates []string) bool {
	for _, c := range candidates {
		if words[c] {
			return true
		}
	}
	return false
}

func transactionType(words map[string]bool) model.TransactionType {
	switch {
	case words["saved"]:
		return model.TypeSaving
	case words["earned"] || words["made"] || words["received"]:
		return model.TypeIncome
	default:
		return model.TypeExpense
	}
}

// extractMerchant pulls a merchant candidate out of "at/from/in/on <name>",
// cutting the candidate at the first stop word or number.
func extractMerchant(message string) string {
	m := merchantPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}

	var kept []string
	for _, tok := range strings.Fields(m[1]) {
		low := strings.ToLower(tok)
		if _, stop := merchantStopWords[low]; stop {
			break
		}
		if bareNumberPattern.MatchString(tok) {
			break
		}
		kept = append(kept, tok)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}
