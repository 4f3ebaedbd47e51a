package domain

import "time"

// Candle represents a single fixed-duration OHLCV bar.
type Candle struct {
	Timestamp time.Time // Start time of the bar
	Pair      string    // Currency pair symbol
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Traded volume
}

// Contains reports whether price falls within the candle's low/high range.
func (c Candle) Contains(price float64) bool {
	return price >= c.Low && price <= c.High
}
