package models

import "errors"

// MaxOfficialSpread is the plausibility ceiling for ask-bid in THB. The
// association's published spread is typically 50-200 THB; anything above
// this means the wrong numbers were captured.
const MaxOfficialSpread = 500

// OfficialQuote is the latest bid/ask pair published by the Thai Gold Traders
// Association for 96.5% bullion, in THB per baht-weight. A new quote replaces
// the previous one wholesale; quotes are never merged.
type OfficialQuote struct {
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Updated string  `json:"updated"` // local time of fetch, "15:04:05"
}

// Validate enforces the plausibility envelope: both prices positive,
// ask >= bid, spread within MaxOfficialSpread.
func (q *OfficialQuote) Validate() error {
	if q.Bid <= 0 {
		return errors.New("bid must be positive")
	}
	if q.Ask <= 0 {
		return errors.New("ask must be positive")
	}
	if q.Ask < q.Bid {
		return errors.New("ask must not be below bid")
	}
	if q.Ask-q.Bid > MaxOfficialSpread {
		return errors.New("spread exceeds plausibility ceiling")
	}
	return nil
}

// Spread is ask minus bid.
func (q *OfficialQuote) Spread() float64 {
	return q.Ask - q.Bid
}

// PriceSource selects which scalar feeds profit computation. Exactly one is
// active at a time; switching re-derives all profit figures from already-held
// quotes without a refetch.
type PriceSource string

const (
	// SourceThaiOfficial uses the association's published ask.
	SourceThaiOfficial PriceSource = "thai_official"
	// SourceThai965 uses the spot price rescaled to 96.5% purity.
	SourceThai965 PriceSource = "thai965"
	// SourceSpot uses the 99.99% spot price converted to baht-weight.
	SourceSpot PriceSource = "spot"
	// SourceManual uses a user-entered override.
	SourceManual PriceSource = "manual"
)

// ParsePriceSource converts a string into a PriceSource.
func ParsePriceSource(s string) (PriceSource, error) {
	switch PriceSource(s) {
	case SourceThaiOfficial, SourceThai965, SourceSpot, SourceManual:
		return PriceSource(s), nil
	}
	return "", errors.New("unknown price source: " + s)
}
