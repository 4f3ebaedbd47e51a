package domain

import "time"

// EquityPoint is one sample of the running account balance. Backtests append
// one point per processed candle; the sequence is ordered by timestamp.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}
