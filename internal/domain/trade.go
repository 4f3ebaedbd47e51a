package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StandardLotUnits is the notional size of one standard forex lot.
const StandardLotUnits = 100000.0

// Trade represents a single paper trade through its lifecycle.
// ExitPrice, ClosedAt and PnL are nil until the trade is closed; they are set
// together, exactly once, by Close.
type Trade struct {
	ID         uuid.UUID   // Unique identifier for the trade
	Pair       string      // Currency pair symbol (e.g., "EURUSD")
	Direction  Direction   // Buy or Sell
	EntryPrice float64     // Price at which the trade was entered
	ExitPrice  *float64    // Price at which the trade was exited (nil while open)
	StopLoss   float64     // Stop-loss price level
	TakeProfit float64     // Take-profit price level
	LotSize    float64     // Position size in standard lots
	OpenedAt   time.Time   // Timestamp when the trade was opened
	ClosedAt   *time.Time  // Timestamp when the trade was closed (nil while open)
	PnL        *float64    // Realised profit/loss (nil while open)
	Strategy   Strategy    // Strategy that produced the entry signal
	Status     TradeStatus // Current lifecycle state
}

// NewTrade creates a new open trade with a fresh ID.
func NewTrade(pair string, dir Direction, entry, stopLoss, takeProfit, lotSize float64, strat Strategy, openedAt time.Time) *Trade {
	return &Trade{
		ID:         uuid.New(),
		Pair:       pair,
		Direction:  dir,
		EntryPrice: entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		LotSize:    lotSize,
		OpenedAt:   openedAt,
		Strategy:   strat,
		Status:     StatusOpen,
	}
}

// IsClosed reports whether the trade has been closed.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// Close transitions the trade to closed at the given exit price, computing the
// realised PnL from the price move and lot size. A trade can be closed exactly
// once; closing a cancelled or already-closed trade is an error.
func (t *Trade) Close(exitPrice float64, at time.Time) error {
	switch t.Status {
	case StatusClosed:
		return fmt.Errorf("trade %s is already closed", t.ID)
	case StatusCancelled:
		return fmt.Errorf("trade %s is cancelled", t.ID)
	}

	var pnl float64
	if t.Direction == Buy {
		pnl = (exitPrice - t.EntryPrice) * t.LotSize * StandardLotUnits
	} else {
		pnl = (t.EntryPrice - exitPrice) * t.LotSize * StandardLotUnits
	}

	t.ExitPrice = &exitPrice
	t.ClosedAt = &at
	t.PnL = &pnl
	t.Status = StatusClosed
	return nil
}

// Cancel marks a pending or open trade as cancelled. Cancelling a closed
// trade is an error; cancelling twice is a no-op.
func (t *Trade) Cancel() error {
	if t.Status == StatusClosed {
		return fmt.Errorf("trade %s is already closed", t.ID)
	}
	t.Status = StatusCancelled
	return nil
}

// RealizedPnL returns the trade's profit/loss and whether it is defined.
// PnL is defined if and only if the trade is closed.
func (t *Trade) RealizedPnL() (float64, bool) {
	if t.PnL == nil {
		return 0, false
	}
	return *t.PnL, true
}

// Duration returns how long the trade was held, or zero if still open.
func (t *Trade) Duration() time.Duration {
	if t.ClosedAt == nil {
		return 0
	}
	return t.ClosedAt.Sub(t.OpenedAt)
}
