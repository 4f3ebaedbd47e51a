package strategy

import (
	"context"
	"fmt"
	"time"

	"forexscalper/internal/domain"
	"forexscalper/internal/ports"
	"forexscalper/internal/strategy/indicators"
)

// Snapshot is the indicator state the generator evaluates against. The OK
// flags report whether the corresponding readings could be computed from the
// available history; a false flag suppresses the rules that depend on it.
type Snapshot struct {
	Pair      string
	Price     float64
	Timestamp time.Time

	FastEMA  float64
	SlowEMA  float64
	EMAOK    bool
	EMACross indicators.Action

	RSI   float64
	RSIOK bool

	RecentHigh float64
	RecentLow  float64
	RangeOK    bool

	TradesToday int
}

// Generator evaluates the configured strategy against market snapshots.
// Evaluation is stateless; all history lives in the caller's indicators.
type Generator struct {
	cfg    Config
	logger ports.Logger
}

// NewGenerator creates a signal generator for the given configuration.
func NewGenerator(cfg Config, logger ports.Logger) (*Generator, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for signal generator")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Config returns the generator's configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Evaluate applies the configured strategy to the snapshot and returns a
// signal, or nil when no rule fires. Insufficient history and exhausted
// daily trade limits yield nil rather than an error.
func (g *Generator) Evaluate(ctx context.Context, snap Snapshot) *domain.TradingSignal {
	if snap.TradesToday >= g.cfg.MaxTradesPerDay {
		g.logger.Debug(ctx, "Daily trade limit reached, skipping evaluation", map[string]interface{}{
			"pair": snap.Pair, "tradesToday": snap.TradesToday,
		})
		return nil
	}

	var signal *domain.TradingSignal
	switch g.cfg.Strategy {
	case domain.StrategyEMACrossover:
		signal = g.emaCrossover(snap)
	case domain.StrategyRSIDivergence:
		signal = g.rsiDivergence(snap)
	case domain.StrategyBreakout:
		signal = g.breakout(snap)
	case domain.StrategyReversal:
		signal = g.reversal(snap)
	}

	if signal != nil {
		g.logger.Debug(ctx, "Signal generated", map[string]interface{}{
			"pair": signal.Pair, "action": string(signal.Action), "reason": signal.Reason,
		})
	}
	return signal
}

// emaCrossover trades the instant the fast EMA crosses the slow EMA. A fast
// line that merely sits above or below the slow one does not signal; only the
// bar on which the lines cross does.
func (g *Generator) emaCrossover(snap Snapshot) *domain.TradingSignal {
	if !snap.EMAOK {
		return nil
	}
	switch snap.EMACross {
	case indicators.ActionBuy:
		return g.signal(snap, domain.Buy, 0.75, "EMA crossover - fast above slow")
	case indicators.ActionSell:
		return g.signal(snap, domain.Sell, 0.75, "EMA crossover - fast below slow")
	default:
		return nil
	}
}

// rsiDivergence trades RSI extremes back toward the mean.
func (g *Generator) rsiDivergence(snap Snapshot) *domain.TradingSignal {
	if !snap.RSIOK {
		return nil
	}
	switch {
	case snap.RSI <= g.cfg.RSIOversold:
		return g.signal(snap, domain.Buy, 0.65, "RSI oversold signal")
	case snap.RSI >= g.cfg.RSIOverbought:
		return g.signal(snap, domain.Sell, 0.65, "RSI overbought signal")
	default:
		return nil
	}
}

// breakout trades closes beyond the recent high/low range.
func (g *Generator) breakout(snap Snapshot) *domain.TradingSignal {
	if !snap.RangeOK {
		return nil
	}
	switch {
	case snap.Price > snap.RecentHigh:
		return g.signal(snap, domain.Buy, 0.60, "Price breakout above resistance")
	case snap.Price < snap.RecentLow:
		return g.signal(snap, domain.Sell, 0.60, "Price breakout below support")
	default:
		return nil
	}
}

// reversal requires an EMA cross and an agreeing RSI extreme on the same bar.
func (g *Generator) reversal(snap Snapshot) *domain.TradingSignal {
	if !snap.EMAOK || !snap.RSIOK {
		return nil
	}
	if snap.EMACross == indicators.ActionBuy && snap.RSI <= g.cfg.RSIOversold {
		return g.signal(snap, domain.Buy, 0.70, "EMA + RSI reversal confirmation")
	}
	if snap.EMACross == indicators.ActionSell && snap.RSI >= g.cfg.RSIOverbought {
		return g.signal(snap, domain.Sell, 0.70, "EMA + RSI reversal confirmation")
	}
	return nil
}

func (g *Generator) signal(snap Snapshot, action domain.Direction, confidence float64, reason string) *domain.TradingSignal {
	return &domain.TradingSignal{
		Pair:       snap.Pair,
		Action:     action,
		Confidence: confidence,
		Reason:     reason,
		Timestamp:  snap.Timestamp,
	}
}
