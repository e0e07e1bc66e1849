package models

import "time"

// PriceAlert describes a significant move of the official ask price, measured
// against the last alerted value (or the previous quote for the first alert).
type PriceAlert struct {
	ID        string    `json:"id"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	PrevAsk   float64   `json:"prev_ask"`
	Delta     float64   `json:"delta"`
	Direction string    `json:"direction"` // "up" or "down"
	At        time.Time `json:"at"`
}
