package domain

import "time"

// PriceQuote represents a single bid/ask tick for a currency pair.
type PriceQuote struct {
	Pair      string    // Currency pair symbol (e.g., "EURUSD")
	Bid       float64   // Best bid price
	Ask       float64   // Best ask price
	Timestamp time.Time // Time the quote was produced
}

// Spread returns the ask/bid spread in price units.
func (q PriceQuote) Spread() float64 {
	return q.Ask - q.Bid
}
