package memory

import (
	"regexp"
	"sort"
	"strings"
)

// baseKnowledge is the fixed, hand-authored category vocabulary used as a
// classifier-independent fallback. Read-only and shared across users.
var baseKnowledge = map[string][]string{
	"Food":          {"food", "restaurant", "dining", "meal", "pizza", "burger", "cafe", "swiggy", "zomato"},
	"Groceries":     {"grocery", "supermarket", "dmart", "market", "mart", "provision"},
	"Fuel":          {"petrol", "diesel", "fuel", "hp", "ioc", "bpcl"},
	"Shopping":      {"shopping", "clothes", "fashion", "store", "mall", "lifestyle", "myntra", "ajio"},
	"Bills":         {"electricity", "bill", "water", "postpaid", "prepaid", "mobile", "broadband", "wifi"},
	"Health":        {"medical", "chemist", "pharmacy", "hospital", "clinic", "medicine"},
	"Travel":        {"ola", "uber", "bus", "train", "flight", "travel"},
	"Entertainment": {"movie", "cinema", "pvr", "inox", "entertainment"},
	"Subscriptions": {"subscription", "netflix", "amazon prime", "spotify"},
	"Others":        {},
}

// BaseCategories returns the base category names in sorted order.
func BaseCategories() []string {
	names := make([]string, 0, len(baseKnowledge))
	for name := range baseKnowledge {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchBaseCategory returns the first base category whose keyword appears in
// the text as a whole word, or "" when none matches. Categories are scanned
// in sorted order so the result never depends on map iteration.
func MatchBaseCategory(text string) string {
	low := strings.ToLower(text)
	for _, cat := range BaseCategories() {
		for _, kw := range baseKnowledge[cat] {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			if re.MatchString(low) {
				return cat
			}
		}
	}
	return ""
}
