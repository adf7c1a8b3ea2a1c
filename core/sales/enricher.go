package sales

import (
	"regexp"

	"sales-enrich/core/catalog"
)

// productIDPattern finds the first "P<digits>" run anywhere in a ProductID, any case.
// Only ASCII digits count.
var productIDPattern = regexp.MustCompile(`(?i)P(\d+)`)

// ExtractNumericID returns the digit run following the first P in productID.
func ExtractNumericID(productID string) (string, bool) {
	m := productIDPattern.FindStringSubmatch(productID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// RemapID wraps n into 1..size as ((n-1) mod size) + 1.
// n == 0 maps to size. size <= 0 returns 0, which is never a catalog id.
func RemapID(n uint64, size int) int {
	if size <= 0 {
		return 0
	}
	if n == 0 {
		return size
	}
	return int((n-1)%uint64(size)) + 1
}

// remapDigits is RemapID over a decimal digit string of any length.
func remapDigits(digits string, size int) int {
	if size <= 0 {
		return 0
	}
	m := uint64(size)
	var r uint64
	for i := 0; i < len(digits); i++ {
		r = (r*10 + uint64(digits[i]-'0')) % m
	}
	// r is n mod size; shift to the 1-based range
	return int((r+m-1)%m) + 1
}

// Enrich joins every transaction against m, preserving input order.
// It never fails: unmatched transactions get empty catalog fields and APIMatch false.
func Enrich(txs []Transaction, m catalog.Mapping) []EnrichedTransaction {
	out := make([]EnrichedTransaction, 0, len(txs))
	size := m.Size()

	for _, tx := range txs {
		row := EnrichedTransaction{Transaction: tx}

		if digits, ok := ExtractNumericID(tx.ProductID); ok {
			if entry, found := m.Lookup(remapDigits(digits, size)); found {
				rating := entry.Rating
				row.APICategory = entry.Category
				row.APIBrand = entry.Brand
				row.APIRating = &rating
				row.APIMatch = true
			}
		}

		out = append(out, row)
	}
	return out
}

// CountMatched returns how many rows matched a catalog entry
func CountMatched(rows []EnrichedTransaction) int {
	n := 0
	for _, r := range rows {
		if r.APIMatch {
			n++
		}
	}
	return n
}
