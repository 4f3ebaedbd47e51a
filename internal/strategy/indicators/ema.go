package indicators

import (
	"fmt"

	"forexscalper/internal/ports"
)

// EMACalculator accumulates a price series and computes exponential moving
// averages over it. It is not safe for concurrent use.
type EMACalculator struct {
	prices []float64
}

// NewEMACalculator creates an empty EMA calculator.
func NewEMACalculator() *EMACalculator {
	return &EMACalculator{prices: make([]float64, 0, maxHistory)}
}

// AddPrice appends a price to the series, discarding the oldest entry once
// the history bound is reached.
func (e *EMACalculator) AddPrice(price float64) {
	e.prices = append(e.prices, price)
	if len(e.prices) > maxHistory {
		e.prices = e.prices[1:]
	}
}

// Count returns the number of accumulated prices.
func (e *EMACalculator) Count() int {
	return len(e.prices)
}

// Reset discards all accumulated prices.
func (e *EMACalculator) Reset() {
	e.prices = e.prices[:0]
}

// EMA returns the latest EMA value for the given period. The average is
// seeded with the simple mean of the first 'period' prices, then the
// standard recurrence is applied across the rest of the series.
func (e *EMACalculator) EMA(period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("EMA period must be positive, got %d", period)
	}
	if len(e.prices) < period {
		return 0, fmt.Errorf("%w: have %d prices, EMA period %d", ports.ErrInsufficientHistory, len(e.prices), period)
	}

	multiplier := 2.0 / float64(period+1)

	var seed float64
	for _, p := range e.prices[:period] {
		seed += p
	}
	ema := seed / float64(period)

	for _, p := range e.prices[period:] {
		ema = (p-ema)*multiplier + ema
	}
	return ema, nil
}

// EMAArray returns the EMA value at every index of the series. Unlike EMA,
// the recurrence is seeded with the raw first price, so the two methods give
// slightly different values for short histories. The crossover detector uses
// this per-index form.
func (e *EMACalculator) EMAArray(period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("EMA period must be positive, got %d", period)
	}
	if len(e.prices) < period {
		return nil, fmt.Errorf("%w: have %d prices, EMA period %d", ports.ErrInsufficientHistory, len(e.prices), period)
	}

	multiplier := 2.0 / float64(period+1)
	out := make([]float64, len(e.prices))
	out[0] = e.prices[0]
	for i := 1; i < len(e.prices); i++ {
		out[i] = (e.prices[i]-out[i-1])*multiplier + out[i-1]
	}
	return out, nil
}

// CrossoverSignal inspects the last two values of a fast and slow EMA series
// and reports whether the fast line crossed the slow line on the latest step.
// A cross from below gives ActionBuy, a cross from above gives ActionSell.
func CrossoverSignal(fast, slow []float64) Action {
	if len(fast) < 2 || len(slow) < 2 {
		return ActionNone
	}

	prevFast, lastFast := fast[len(fast)-2], fast[len(fast)-1]
	prevSlow, lastSlow := slow[len(slow)-2], slow[len(slow)-1]

	if prevFast <= prevSlow && lastFast > lastSlow {
		return ActionBuy
	}
	if prevFast >= prevSlow && lastFast < lastSlow {
		return ActionSell
	}
	return ActionNone
}
