package indicators

import (
	"fmt"

	"forexscalper/internal/ports"
)

// RSICalculator accumulates per-tick gains and losses and computes the
// relative strength index over them. It is not safe for concurrent use.
type RSICalculator struct {
	gains     []float64
	losses    []float64
	lastPrice float64
	hasPrice  bool
}

// NewRSICalculator creates an empty RSI calculator.
func NewRSICalculator() *RSICalculator {
	return &RSICalculator{
		gains:  make([]float64, 0, maxHistory),
		losses: make([]float64, 0, maxHistory),
	}
}

// AddPrice records the gain or loss relative to the previous price. The
// first price has no predecessor and contributes a zero gain and loss.
func (r *RSICalculator) AddPrice(price float64) {
	var gain, loss float64
	if r.hasPrice {
		delta := price - r.lastPrice
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
	}
	r.lastPrice = price
	r.hasPrice = true

	r.gains = append(r.gains, gain)
	r.losses = append(r.losses, loss)
	if len(r.gains) > maxHistory {
		r.gains = r.gains[1:]
		r.losses = r.losses[1:]
	}
}

// Count returns the number of recorded observations.
func (r *RSICalculator) Count() int {
	return len(r.gains)
}

// Reset discards all accumulated state.
func (r *RSICalculator) Reset() {
	r.gains = r.gains[:0]
	r.losses = r.losses[:0]
	r.hasPrice = false
	r.lastPrice = 0
}

// RSI computes the relative strength index over the last 'period'
// observations. A series with no losses reads 100.
func (r *RSICalculator) RSI(period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("RSI period must be positive, got %d", period)
	}
	if len(r.gains) < period {
		return 0, fmt.Errorf("%w: have %d observations, RSI period %d", ports.ErrInsufficientHistory, len(r.gains), period)
	}

	var avgGain, avgLoss float64
	for i := len(r.gains) - period; i < len(r.gains); i++ {
		avgGain += r.gains[i]
		avgLoss += r.losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// Signal maps the current RSI value to an action using the given thresholds.
// An oversold reading is bullish, an overbought reading is bearish.
func (r *RSICalculator) Signal(period int, overbought, oversold float64) (Action, error) {
	value, err := r.RSI(period)
	if err != nil {
		return ActionNone, err
	}
	switch {
	case value <= oversold:
		return ActionBuy, nil
	case value >= overbought:
		return ActionSell, nil
	default:
		return ActionNone, nil
	}
}
