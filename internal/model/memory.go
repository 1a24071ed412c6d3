package model

// UserMemory holds a single user's learned category associations. Each map
// entry holds exactly one category; learning overwrites, never merges.
type UserMemory struct {
	// MerchantMap maps a lowercase merchant name to a category.
	MerchantMap map[string]string `json:"merchant_map"`
	// KeywordMap maps a lowercase word (length > 3) to a category.
	KeywordMap map[string]string `json:"keyword_map"`
	// AmountBuckets maps floor(amount/100) to a category.
	AmountBuckets map[int]string `json:"amount_buckets"`
}

// NewUserMemory returns an empty memory with all maps initialized.
func NewUserMemory() *UserMemory {
	return &UserMemory{
		MerchantMap:   make(map[string]string),
		KeywordMap:    make(map[string]string),
		AmountBuckets: make(map[int]string),
	}
}

// Normalize ensures all maps are non-nil after JSON decoding.
func (m *UserMemory) Normalize() {
	if m.MerchantMap == nil {
		m.MerchantMap = make(map[string]string)
	}
	if m.KeywordMap == nil {
		m.KeywordMap = make(map[string]string)
	}
	if m.AmountBuckets == nil {
		m.AmountBuckets = make(map[int]string)
	}
}

// MemoryStats summarizes how much a user's memory has learned.
type MemoryStats struct {
	MerchantLinks  int
	KeywordLinks   int
	AmountPatterns int
}
