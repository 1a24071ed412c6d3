// Package extract turns raw OCR text into structured bill fields. Every
// extractor degrades to a nil result on unreadable input; a bad receipt is
// never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Amounts outside this range are treated as OCR noise or fraud.
const (
	minPlausibleAmount = 0.0
	maxPlausibleAmount = 10_000_000.0
)

var (
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:grand total|grand|net amount|amount payable|amount|total|paid|payment|debited|credited)[\s:\-–]*₹?\s*([\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`₹\s*([\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)rs\.?\s*([\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)inr\s*([\d,]+(?:\.\d{1,2})?)`),
	}

	bareAmountPattern = regexp.MustCompile(`₹?\s*([\d,]+(?:\.\d{1,2})?)`)

	// Keywords that usually sit next to the grand total on a receipt.
	amountKeywords = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btotal\b`),
		regexp.MustCompile(`(?i)\bgrand\b`),
		regexp.MustCompile(`(?i)\bnet amount\b`),
		regexp.MustCompile(`(?i)\bamount payable\b`),
		regexp.MustCompile(`(?i)\bpaid\b`),
		regexp.MustCompile(`(?i)\bdebited\b`),
	}
)

type amountCandidate struct {
	value  float64
	offset int
}

// ExtractAmount returns the most likely grand total in the text, or nil.
//
// All numeric matches are collected with their offsets. When a total-like
// keyword appears anywhere in the text, the amount closest to a keyword
// occurrence wins; this picks the "Total" figure over line-item prices.
// Without keywords the largest value wins, on the assumption that the grand
// total is usually the biggest number on a receipt.
func ExtractAmount(text string) *float64 {
	if text == "" {
		return nil
	}

	var candidates []amountCandidate
	for _, re := range amountPatterns {
		candidates = append(candidates, findAmounts(re, text)...)
	}
	if len(candidates) == 0 {
		candidates = findAmounts(bareAmountPattern, text)
	}
	if len(candidates) == 0 {
		return nil
	}

	var keywordOffsets []int
	for _, re := range amountKeywords {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			keywordOffsets = append(keywordOffsets, loc[0])
		}
	}

	if len(keywordOffsets) > 0 {
		best := candidates[0]
		bestDist := -1
		for _, c := range candidates {
			dist := nearestDistance(c.offset, keywordOffsets)
			if bestDist < 0 || dist < bestDist {
				best = c
				bestDist = dist
			}
		}
		return &best.value
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.value > best.value {
			best = c
		}
	}
	return &best.value
}

func findAmounts(re *regexp.Regexp, text string) []amountCandidate {
	var out []amountCandidate
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if m[2] < 0 {
			continue
		}
		raw := strings.ReplaceAll(text[m[2]:m[3]], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if v <= minPlausibleAmount || v >= maxPlausibleAmount {
			continue
		}
		out = append(out, amountCandidate{value: v, offset: m[0]})
	}
	return out
}

func nearestDistance(offset int, keywordOffsets []int) int {
	best := -1
	for _, k := range keywordOffsets {
		d := offset - k
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
		regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
		regexp.MustCompile(`(?i)(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?,?\s*\d{2,4})`),
		regexp.MustCompile(`(?i)(?:date|txn date|transaction date|bill date|invoice date)[\s:\-]*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
	}

	dateLayouts = []string{
		"2-1-2006", "2/1/2006",
		"2-1-06", "2/1/06",
		"2006-1-2", "2006/1/2",
		"2 Jan 2006", "2 January 2006",
	}
)

// ExtractDate returns the first parseable date in the text as an ISO calendar
// date string, or nil. Dates carry no timezone.
func ExtractDate(text string) *string {
	if text == "" {
		return nil
	}
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if iso := parseDateString(m[1]); iso != "" {
			return &iso
		}
	}
	return nil
}

func parseDateString(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

var (
	emailPattern     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	merchantNoise    = []string{"transaction", "successful", "utr", "paid", "payment", "powered by"}
	fallbackNoise    = []string{"transaction", "successful", "payment", "paid", "banking name"}
	nonNamePattern   = regexp.MustCompile(`[^A-Za-z0-9\s.,&()/-]`)
	noLettersPattern = regexp.MustCompile(`^[\d\W]+$`)
	hasLetterPattern = regexp.MustCompile(`[A-Za-z]`)
)

// isUPIHandle reports whether the text looks like a UPI id (name@bank).
func isUPIHandle(text string) bool {
	t := strings.TrimSpace(text)
	if !strings.Contains(t, "@") {
		return false
	}
	parts := strings.Split(t, "@")
	return len(parts[0]) > 1 && len(parts[len(parts)-1]) <= 20
}

func looksLikeEmail(text string) bool {
	return emailPattern.MatchString(text)
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ExtractMerchant pulls a merchant name from receipt lines.
//
// Phase one handles UPI payment screenshots: the lines following a "paid to"
// marker usually hold the payee name, mixed with UPI ids, UTR numbers and app
// chrome that must be filtered out. Phase two falls back to the top of a
// printed receipt, where the store name conventionally appears.
func ExtractMerchant(lines []string) *string {
	if m := merchantFromUPILines(lines); m != nil {
		return m
	}
	return merchantFromTopLines(lines)
}

func merchantFromUPILines(lines []string) *string {
	for i, ln := range lines {
		low := strings.ToLower(ln)
		if !strings.Contains(low, "paid to") && !strings.HasPrefix(strings.TrimSpace(low), "paid") {
			continue
		}

		var candidates []string
		end := i + 5
		if end > len(lines) {
			end = len(lines)
		}
		for _, next := range lines[i+1 : end] {
			clean := strings.TrimSpace(next)
			if clean == "" {
				continue
			}
			if containsAny(strings.ToLower(clean), merchantNoise) {
				continue
			}
			if isUPIHandle(clean) || looksLikeEmail(clean) {
				continue
			}
			if noLettersPattern.MatchString(clean) {
				continue
			}
			filtered := strings.TrimSpace(nonNamePattern.ReplaceAllString(clean, ""))
			if filtered != "" {
				candidates = append(candidates, filtered)
			}
		}
		if len(candidates) > 0 {
			if len(candidates) > 2 {
				candidates = candidates[:2]
			}
			merged := strings.ToUpper(strings.TrimSpace(strings.Join(candidates, " ")))
			return &merged
		}
	}
	return nil
}

func merchantFromTopLines(lines []string) *string {
	limit := 6
	if limit > len(lines) {
		limit = len(lines)
	}
	for _, ln := range lines[:limit] {
		clean := strings.TrimSpace(ln)
		if clean == "" || len(clean) < 3 {
			continue
		}
		if isUPIHandle(clean) || looksLikeEmail(clean) {
			continue
		}
		if containsAny(strings.ToLower(clean), fallbackNoise) {
			continue
		}
		if !hasLetterPattern.MatchString(clean) {
			continue
		}
		filtered := strings.TrimSpace(nonNamePattern.ReplaceAllString(clean, ""))
		if filtered != "" {
			upper := strings.ToUpper(filtered)
			return &upper
		}
	}
	return nil
}

// SplitLines returns the trimmed, non-empty lines of the text.
func SplitLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, t)
		}
	}
	return out
}
