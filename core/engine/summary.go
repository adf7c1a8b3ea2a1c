package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-enrich/core/sales"
)

// Summary describes one enrichment run
type Summary struct {
	RunID       string          `json:"run_id"`
	Total       int             `json:"total"`
	Matched     int             `json:"matched"`
	Unmatched   int             `json:"unmatched"`
	MatchRate   float64         `json:"match_rate"`
	Revenue     decimal.Decimal `json:"revenue"`
	PricedRows  int             `json:"priced_rows"`
	CatalogSize int             `json:"catalog_size"`
	Location    string          `json:"location"`
	StartedAt   time.Time       `json:"started_at"`
	Duration    time.Duration   `json:"duration"`
}

// Summarize counts matches and sums Quantity x UnitPrice.
// Rows whose quantity or price does not parse as a decimal add nothing to Revenue.
func Summarize(rows []sales.EnrichedTransaction) Summary {
	s := Summary{Total: len(rows), Revenue: decimal.Zero}

	for _, r := range rows {
		if r.APIMatch {
			s.Matched++
		}
		amount, ok := lineAmount(r.Quantity, r.UnitPrice)
		if ok {
			s.Revenue = s.Revenue.Add(amount)
			s.PricedRows++
		}
	}

	s.Unmatched = s.Total - s.Matched
	if s.Total > 0 {
		s.MatchRate = float64(s.Matched) / float64(s.Total)
	}
	return s
}

func lineAmount(quantity, unitPrice string) (decimal.Decimal, bool) {
	q, err := decimal.NewFromString(strings.TrimSpace(quantity))
	if err != nil {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(strings.TrimSpace(unitPrice))
	if err != nil {
		return decimal.Zero, false
	}
	return q.Mul(p), true
}
