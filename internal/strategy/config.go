// Package strategy produces trading signals from indicator state. The
// generator evaluates one of four rule sets against a market snapshot and
// emits at most one directional signal per evaluation.
package strategy

import (
	"fmt"
	"strings"

	"forexscalper/internal/domain"
)

// Config holds the tunable parameters shared by the signal generator and
// the backtester.
type Config struct {
	Pair            string
	Strategy        domain.Strategy
	MaxTradesPerDay int

	EMAFastPeriod    int
	EMASlowPeriod    int
	RSIPeriod        int
	RSIOverbought    float64
	RSIOversold      float64
	BreakoutLookback int

	ProfitTargetPips    float64
	StopLossPips        float64
	RiskPerTradePercent float64
}

// DefaultConfig returns the parameter set the bot ships with.
func DefaultConfig(pair string, strat domain.Strategy) Config {
	return Config{
		Pair:                pair,
		Strategy:            strat,
		MaxTradesPerDay:     10,
		EMAFastPeriod:       5,
		EMASlowPeriod:       13,
		RSIPeriod:           14,
		RSIOverbought:       70.0,
		RSIOversold:         30.0,
		BreakoutLookback:    20,
		ProfitTargetPips:    5.0,
		StopLossPips:        3.0,
		RiskPerTradePercent: 1.0,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	var errs []string

	if c.Pair == "" {
		errs = append(errs, "pair is required")
	}
	if !c.Strategy.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown strategy %q", c.Strategy))
	}
	if c.MaxTradesPerDay <= 0 {
		errs = append(errs, "max trades per day must be positive")
	}
	if c.EMAFastPeriod <= 0 || c.EMASlowPeriod <= 0 || c.RSIPeriod <= 0 {
		errs = append(errs, "EMA and RSI periods must be positive")
	}
	if c.EMAFastPeriod >= c.EMASlowPeriod {
		errs = append(errs, "fast EMA period must be less than slow EMA period")
	}
	if c.RSIOverbought <= c.RSIOversold || c.RSIOverbought > 100 || c.RSIOversold < 0 {
		errs = append(errs, "invalid RSI thresholds")
	}
	if c.BreakoutLookback <= 0 {
		errs = append(errs, "breakout lookback must be positive")
	}
	if c.ProfitTargetPips <= 0 || c.StopLossPips <= 0 {
		errs = append(errs, "profit target and stop loss pips must be positive")
	}
	if c.RiskPerTradePercent <= 0 || c.RiskPerTradePercent > 100 {
		errs = append(errs, "risk per trade percent must be between 0 and 100")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid strategy config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// WarmupBars returns the number of bars that must be observed before the
// configured strategy can produce signals.
func (c Config) WarmupBars() int {
	warmup := c.EMASlowPeriod
	if c.RSIPeriod > warmup {
		warmup = c.RSIPeriod
	}
	return warmup
}
