package domain

// Direction represents the side of a trade (buy or sell).
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Opposite returns the opposing trade direction.
func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	StatusPending   TradeStatus = "pending"
	StatusOpen      TradeStatus = "open"
	StatusClosed    TradeStatus = "closed"
	StatusCancelled TradeStatus = "cancelled"
)

// Strategy identifies one of the signal-generation strategies.
type Strategy string

const (
	StrategyEMACrossover  Strategy = "ema_crossover"
	StrategyRSIDivergence Strategy = "rsi_divergence"
	StrategyBreakout      Strategy = "breakout"
	StrategyReversal      Strategy = "reversal"
)

// IsValid reports whether s names a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyEMACrossover, StrategyRSIDivergence, StrategyBreakout, StrategyReversal:
		return true
	}
	return false
}
