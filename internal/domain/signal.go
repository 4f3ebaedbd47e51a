package domain

import (
	"fmt"
	"time"
)

// TradingSignal is a directional trading recommendation produced by one
// evaluation of the signal generator. It is a stateless value.
type TradingSignal struct {
	Pair       string    // Currency pair the signal applies to
	Action     Direction // Buy or Sell
	Confidence float64   // Confidence score in [0, 1]
	Reason     string    // Human-readable rule that fired
	Timestamp  time.Time // Time of evaluation
}

// String renders the signal for logs and notifications.
func (s TradingSignal) String() string {
	return fmt.Sprintf("%s %s - %.1f%% confidence (%s)",
		s.Action, s.Pair, s.Confidence*100, s.Reason)
}
