// Package pricing holds the pure price-derivation math: converting the
// ounce-denominated spot price into THB per baht-weight, rescaling to the
// 96.5% retail purity, selecting the active price under a PriceSource, and
// computing per-record and aggregate profit. Everything here is side-effect
// free so callers can recompute instantly when the source selection changes.
package pricing

import "goldwatch/internal/models"

// Physical constants for weight conversion and purity rescaling.
const (
	GramsPerOunce      = 31.1035
	GramsPerBahtWeight = 15.244
	PurityRetail       = 0.965  // Thai retail/jewelry standard
	PuritySpot         = 0.9999 // investment-grade spot purity
)

// SpotPerBaht converts a spot price per troy ounce into THB per baht-weight
// at spot purity. A non-positive input (no spot quote held yet) yields 0.
func SpotPerBaht(perOunce float64) float64 {
	if perOunce <= 0 {
		return 0
	}
	return perOunce / GramsPerOunce * GramsPerBahtWeight
}

// Retail965 rescales a spot-purity baht-weight price to its 96.5% equivalent.
func Retail965(spotPerBaht float64) float64 {
	if spotPerBaht <= 0 {
		return 0
	}
	return spotPerBaht * (PurityRetail / PuritySpot)
}

// CurrentPrice picks the scalar that feeds profit computation for the given
// source. officialAsk and spotPerOunce are the currently held quotes (0 when
// nothing has been fetched yet); manual is the user-entered override.
func CurrentPrice(source models.PriceSource, officialAsk, spotPerOunce, manual float64) float64 {
	switch source {
	case models.SourceThaiOfficial:
		return officialAsk
	case models.SourceThai965:
		return Retail965(SpotPerBaht(spotPerOunce))
	case models.SourceSpot:
		return SpotPerBaht(spotPerOunce)
	case models.SourceManual:
		return manual
	}
	return 0
}

// Profit is the unrealized gain of one purchase at the current price:
// market value of the held weight minus total cost including the block fee.
func Profit(r models.PurchaseRecord, current float64) float64 {
	return current*r.Weight - r.Cost()
}

// TotalProfit sums Profit over the whole collection.
func TotalProfit(records []models.PurchaseRecord, current float64) float64 {
	var total float64
	for _, r := range records {
		total += Profit(r, current)
	}
	return total
}
