package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hridayan/khata/internal/model"
)

// Aggregate/metadata rows that must never become line items.
var itemIgnoreKeywords = []string{
	"subtotal", "gst", "tax", "cgst", "sgst", "discount", "savings",
	"round off", "service charge", "delivery charge", "payment",
	"order total", "grand total", "total payable",
}

var (
	priceTokenPattern = regexp.MustCompile(`(?i)^(?:₹\s*|rs\.?\s*)?([\d,]+(?:\.\d{1,2})?)$`)
	quantityPattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:x|qty|pcs|pc|nos|no)\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ParseLineItems converts receipt text into line-item candidates.
//
// Per line: skip aggregate rows (tax/subtotal/etc), then scan tokens right to
// left for the first price-looking token; that token is the line total and
// everything before it is the description. A quantity is matched anywhere in
// the line but may be absent. The unit price is never derived. Lines without
// a parsable price are dropped.
func ParseLineItems(text string) []model.LineItem {
	if text == "" {
		return nil
	}

	var items []model.LineItem
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(whitespacePattern.ReplaceAllString(raw, " "))
		if line == "" {
			continue
		}
		if containsAny(strings.ToLower(line), itemIgnoreKeywords) {
			continue
		}

		tokens := strings.Fields(line)
		var lineTotal *float64
		var description string
		for j := len(tokens) - 1; j >= 0; j-- {
			if v, ok := parsePriceToken(tokens[j]); ok {
				lineTotal = &v
				description = strings.TrimSpace(strings.Join(tokens[:j], " "))
				break
			}
		}
		if lineTotal == nil {
			continue
		}

		var quantity *float64
		if m := quantityPattern.FindStringSubmatch(line); m != nil {
			if q, err := strconv.ParseFloat(m[1], 64); err == nil {
				quantity = &q
			}
		}

		items = append(items, model.LineItem{
			Description: description,
			Quantity:    quantity,
			LineTotal:   lineTotal,
			RawLine:     line,
		})
	}
	return items
}

func parsePriceToken(token string) (float64, bool) {
	m := priceTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
