// Package risk sizes positions and derives stop and target levels from
// pip distances.
package risk

import "forexscalper/internal/domain"

// PipSize is the price increment of one pip for a standard four-decimal
// forex pair.
const PipSize = 0.0001

// Config holds configuration for risk management.
type Config struct {
	RiskPerTradePercent float64 // Balance percentage risked per trade
	ProfitTargetPips    float64 // Take-profit distance in pips
	StopLossPips        float64 // Stop-loss distance in pips
	MaxTradesPerDay     int
	MaxOpenTrades       int // 0 means the default of 1
}

// Manager computes position sizes and price levels for new trades.
type Manager struct {
	cfg Config
}

// NewManager creates a risk manager.
func NewManager(cfg Config) *Manager {
	if cfg.MaxOpenTrades <= 0 {
		cfg.MaxOpenTrades = 1
	}
	return &Manager{cfg: cfg}
}

// LotSize returns the position size in standard lots for the given account
// balance. The risked amount is the configured percentage of the balance.
func (m *Manager) LotSize(balance float64) float64 {
	if balance <= 0 {
		return 0
	}
	riskAmount := balance * m.cfg.RiskPerTradePercent / 100
	return riskAmount / domain.StandardLotUnits
}

// StopPrice returns the stop-loss level for an entry in the given direction.
func (m *Manager) StopPrice(entry float64, dir domain.Direction) float64 {
	offset := m.cfg.StopLossPips * PipSize
	if dir == domain.Buy {
		return entry - offset
	}
	return entry + offset
}

// TargetPrice returns the take-profit level for an entry in the given
// direction.
func (m *Manager) TargetPrice(entry float64, dir domain.Direction) float64 {
	offset := m.cfg.ProfitTargetPips * PipSize
	if dir == domain.Buy {
		return entry + offset
	}
	return entry - offset
}

// CanTrade reports whether a new trade is allowed given the day's trade
// count and the number of currently open trades.
func (m *Manager) CanTrade(tradesToday, openTrades int) bool {
	if m.cfg.MaxTradesPerDay > 0 && tradesToday >= m.cfg.MaxTradesPerDay {
		return false
	}
	return openTrades < m.cfg.MaxOpenTrades
}

// PipsToPrice converts a pip distance to a price distance.
func PipsToPrice(pips float64) float64 {
	return pips * PipSize
}

// PriceToPips converts a price distance to pips.
func PriceToPips(delta float64) float64 {
	return delta / PipSize
}
