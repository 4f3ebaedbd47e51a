// Package analytics computes performance statistics over closed trades and
// equity curves. All functions are pure and treat degenerate inputs (no
// trades, flat returns) as zero rather than an error.
package analytics

import (
	"math"

	"forexscalper/internal/domain"
)

// Metrics aggregates the performance statistics of a trade series.
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	TotalPnL    float64
	GrossProfit float64
	GrossLoss   float64 // Reported as a positive magnitude
	AverageWin  float64
	AverageLoss float64 // Reported as a negative value

	WinRate      float64 // Fraction in [0, 1]
	ProfitFactor float64
	Expectancy   float64 // Average PnL per trade
	SharpeRatio  float64
	MaxDrawdown  float64 // Largest peak-to-trough equity drop, in currency units
	MaxEquity    float64

	LongestWinStreak  int
	LongestLossStreak int
}

// Analyze computes the full metric set for a series of closed trades and the
// equity curve they produced. Trades that are still open are ignored.
// Breakeven trades count toward the total but neither the win nor the loss
// side.
func Analyze(trades []*domain.Trade, curve []domain.EquityPoint, startingBalance float64) Metrics {
	m := Metrics{MaxEquity: startingBalance}

	var winStreak, lossStreak int
	for _, trade := range trades {
		pnl, ok := trade.RealizedPnL()
		if !ok {
			continue
		}
		m.TotalTrades++
		m.TotalPnL += pnl

		switch {
		case pnl > 0:
			m.WinningTrades++
			m.GrossProfit += pnl
			winStreak++
			lossStreak = 0
		case pnl < 0:
			m.LosingTrades++
			m.GrossLoss += -pnl
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > m.LongestWinStreak {
			m.LongestWinStreak = winStreak
		}
		if lossStreak > m.LongestLossStreak {
			m.LongestLossStreak = lossStreak
		}
	}

	if m.WinningTrades > 0 {
		m.AverageWin = m.GrossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = -m.GrossLoss / float64(m.LosingTrades)
	}

	m.WinRate = WinRate(m.WinningTrades, m.TotalTrades)
	m.ProfitFactor = ProfitFactor(m.GrossProfit, m.GrossLoss)
	m.Expectancy = Expectancy(m.TotalPnL, m.TotalTrades)
	m.SharpeRatio = SharpeRatio(trades)
	m.MaxDrawdown = MaxDrawdown(curve, startingBalance)

	for _, p := range curve {
		if p.Equity > m.MaxEquity {
			m.MaxEquity = p.Equity
		}
	}
	return m
}

// WinRate returns wins as a fraction of total, or 0 when total is zero.
func WinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// ProfitFactor returns gross profit divided by gross loss magnitude, or 0
// when there are no losses.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		return 0
	}
	return grossProfit / grossLoss
}

// Expectancy returns the average PnL per trade, or 0 when there are none.
func Expectancy(totalPnL float64, totalTrades int) float64 {
	if totalTrades == 0 {
		return 0
	}
	return totalPnL / float64(totalTrades)
}

// SharpeRatio returns the mean over the population standard deviation of
// non-zero per-trade PnL, with no risk-free rate. Fewer than two non-zero
// outcomes, or zero variance, yield 0.
func SharpeRatio(trades []*domain.Trade) float64 {
	var returns []float64
	for _, trade := range trades {
		pnl, ok := trade.RealizedPnL()
		if !ok || pnl == 0 {
			continue
		}
		returns = append(returns, pnl)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}

// MaxDrawdown returns the largest peak-to-trough equity drop along the
// curve, in currency units. The peak is seeded with the starting balance so
// a curve that only falls still reports a drawdown.
func MaxDrawdown(curve []domain.EquityPoint, startingBalance float64) float64 {
	peak := startingBalance
	var maxDD float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if dd := peak - p.Equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
