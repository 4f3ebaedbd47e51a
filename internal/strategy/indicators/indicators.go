// Package indicators implements the technical indicators used by the
// signal generator: exponential moving averages and the relative strength
// index. Calculators are stateful; prices are fed tick by tick.
package indicators

// Action is a directional reading produced by an indicator comparison.
type Action int

const (
	// ActionNone means no actionable condition was detected.
	ActionNone Action = iota
	// ActionBuy indicates a bullish condition.
	ActionBuy
	// ActionSell indicates a bearish condition.
	ActionSell
)

// String returns the string representation of the Action.
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionSell:
		return "sell"
	default:
		return "none"
	}
}

// maxHistory bounds the price history kept by the calculators. Old prices
// beyond this window cannot influence any supported period.
const maxHistory = 500
