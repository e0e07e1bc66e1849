// Package models defines the core domain entities for the goldwatch application:
// purchase records, the two kinds of market quote, the price-source selector,
// and price alerts. Entities that cross a trust boundary (user input, upstream
// pages) carry a Validate method.
package models

import "errors"

// PurchaseRecord is one logged gold purchase. Price is per baht-weight unit,
// Weight is in baht-weight, Block is the fixed fabrication surcharge.
// Records are immutable once created except via whole-record replacement
// keyed by ID.
type PurchaseRecord struct {
	ID     int64   `json:"id"`
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Weight float64 `json:"weight"`
	Block  float64 `json:"block,omitempty"`
	Shop   string  `json:"shop,omitempty"`
}

// Validate checks the creation invariant: date and price must be present.
// Weight and block are optional but may not be negative.
func (r *PurchaseRecord) Validate() error {
	if r.Date == "" {
		return errors.New("purchase date must not be empty")
	}
	if r.Price <= 0 {
		return errors.New("purchase price must be positive")
	}
	if r.Weight < 0 {
		return errors.New("weight must not be negative")
	}
	if r.Block < 0 {
		return errors.New("block fee must not be negative")
	}
	return nil
}

// Cost is the total amount paid for the purchase including the block fee.
func (r *PurchaseRecord) Cost() float64 {
	return r.Price*r.Weight + r.Block
}
