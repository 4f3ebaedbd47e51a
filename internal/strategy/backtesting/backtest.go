// Package backtesting replays candle history through the signal generator
// and simulates trade execution against subsequent bars.
package backtesting

import (
	"context"
	"fmt"

	"forexscalper/internal/domain"
	"forexscalper/internal/ports"
	"forexscalper/internal/risk"
	"forexscalper/internal/strategy"
	"forexscalper/internal/strategy/analytics"
	"forexscalper/internal/strategy/indicators"
)

// Config holds configuration for a backtest run.
type Config struct {
	Strategy        strategy.Config
	StartingBalance float64
}

// Result holds the outcome of a backtest: per-trade records, the equity
// curve, and the aggregate statistics derived from them.
type Result struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	TotalPnL         float64
	FinalBalance     float64
	NetReturnPercent float64

	WinRate      float64
	ProfitFactor float64
	SharpeRatio  float64
	Expectancy   float64
	MaxDrawdown  float64
	MaxEquity    float64

	Trades      []*domain.Trade
	EquityCurve []domain.EquityPoint
}

// Run replays the candle series through the configured strategy. Candles
// must be ordered by timestamp; bars that do not advance the clock are
// logged and skipped. An empty series yields an all-zero result.
//
// Execution is simulated one bar forward: a signal on bar N opens a trade
// at N's close, and the trade resolves on bar N+1. If the stop level falls
// inside N+1's range the trade exits there; the stop is checked before the
// target so overlapping bars resolve pessimistically. If neither level is
// touched the trade exits at N+1's close.
func Run(ctx context.Context, cfg Config, candles []domain.Candle, logger ports.Logger) (*Result, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for backtest")
	}
	if cfg.StartingBalance <= 0 {
		cfg.StartingBalance = 50000.0
	}

	gen, err := strategy.NewGenerator(cfg.Strategy, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create signal generator: %w", err)
	}
	riskMgr := risk.NewManager(risk.Config{
		RiskPerTradePercent: cfg.Strategy.RiskPerTradePercent,
		ProfitTargetPips:    cfg.Strategy.ProfitTargetPips,
		StopLossPips:        cfg.Strategy.StopLossPips,
		MaxTradesPerDay:     cfg.Strategy.MaxTradesPerDay,
	})

	balance := cfg.StartingBalance
	emaCalc := indicators.NewEMACalculator()
	rsiCalc := indicators.NewRSICalculator()

	var (
		trades      []*domain.Trade
		curve       []domain.EquityPoint
		openTrade   *domain.Trade
		tradesToday int
		currentDay  string
		lastTS      = int64(0)
		processed   []domain.Candle
	)

	warmup := cfg.Strategy.WarmupBars()
	lookback := cfg.Strategy.BreakoutLookback

	for i, candle := range candles {
		if ts := candle.Timestamp.UnixNano(); i > 0 && ts <= lastTS {
			logger.Warn(ctx, "Skipping candle with non-advancing timestamp", map[string]interface{}{
				"index": i, "timestamp": candle.Timestamp,
			})
			continue
		}
		lastTS = candle.Timestamp.UnixNano()

		// Daily trade counter resets on UTC day boundaries.
		if day := candle.Timestamp.UTC().Format("2006-01-02"); day != currentDay {
			currentDay = day
			tradesToday = 0
		}

		// Resolve the trade opened on the previous bar.
		if openTrade != nil {
			exit := resolveExit(openTrade, candle)
			if err := openTrade.Close(exit, candle.Timestamp); err != nil {
				return nil, fmt.Errorf("failed to close simulated trade: %w", err)
			}
			pnl, _ := openTrade.RealizedPnL()
			balance += pnl
			trades = append(trades, openTrade)
			openTrade = nil
		}

		emaCalc.AddPrice(candle.Close)
		rsiCalc.AddPrice(candle.Close)
		processed = append(processed, candle)

		if len(processed) > warmup && openTrade == nil {
			snap := buildSnapshot(candle, emaCalc, rsiCalc, cfg.Strategy, processed, lookback)
			snap.TradesToday = tradesToday

			if signal := gen.Evaluate(ctx, snap); signal != nil {
				entry := candle.Close
				openTrade = domain.NewTrade(
					cfg.Strategy.Pair,
					signal.Action,
					entry,
					riskMgr.StopPrice(entry, signal.Action),
					riskMgr.TargetPrice(entry, signal.Action),
					riskMgr.LotSize(balance),
					cfg.Strategy.Strategy,
					candle.Timestamp,
				)
				tradesToday++
			}
		}

		curve = append(curve, domain.EquityPoint{Timestamp: candle.Timestamp, Equity: balance})
	}

	// A trade opened on the final bar has no next bar; flatten it at the
	// last close.
	if openTrade != nil {
		last := processed[len(processed)-1]
		if err := openTrade.Close(last.Close, last.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to close final trade: %w", err)
		}
		pnl, _ := openTrade.RealizedPnL()
		balance += pnl
		trades = append(trades, openTrade)
		if len(curve) > 0 {
			curve[len(curve)-1].Equity = balance
		}
	}

	return buildResult(cfg, balance, trades, curve), nil
}

// resolveExit determines the deterministic exit price for a trade against
// the bar after entry. The stop takes priority over the target.
func resolveExit(trade *domain.Trade, candle domain.Candle) float64 {
	if candle.Contains(trade.StopLoss) {
		return trade.StopLoss
	}
	if candle.Contains(trade.TakeProfit) {
		return trade.TakeProfit
	}
	return candle.Close
}

func buildSnapshot(candle domain.Candle, emaCalc *indicators.EMACalculator, rsiCalc *indicators.RSICalculator, cfg strategy.Config, processed []domain.Candle, lookback int) strategy.Snapshot {
	snap := strategy.Snapshot{
		Pair:      cfg.Pair,
		Price:     candle.Close,
		Timestamp: candle.Timestamp,
	}

	fast, errFast := emaCalc.EMA(cfg.EMAFastPeriod)
	slow, errSlow := emaCalc.EMA(cfg.EMASlowPeriod)
	if errFast == nil && errSlow == nil {
		snap.FastEMA, snap.SlowEMA, snap.EMAOK = fast, slow, true
		fastArr, errA := emaCalc.EMAArray(cfg.EMAFastPeriod)
		slowArr, errB := emaCalc.EMAArray(cfg.EMASlowPeriod)
		if errA == nil && errB == nil {
			snap.EMACross = indicators.CrossoverSignal(fastArr, slowArr)
		}
	}

	if rsi, err := rsiCalc.RSI(cfg.RSIPeriod); err == nil {
		snap.RSI, snap.RSIOK = rsi, true
	}

	// Breakout levels come from the bars before the current one.
	if prior := processed[:len(processed)-1]; len(prior) >= lookback {
		window := prior[len(prior)-lookback:]
		high, low := window[0].High, window[0].Low
		for _, c := range window[1:] {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
		}
		snap.RecentHigh, snap.RecentLow, snap.RangeOK = high, low, true
	}
	return snap
}

func buildResult(cfg Config, balance float64, trades []*domain.Trade, curve []domain.EquityPoint) *Result {
	m := analytics.Analyze(trades, curve, cfg.StartingBalance)
	return &Result{
		TotalTrades:      m.TotalTrades,
		WinningTrades:    m.WinningTrades,
		LosingTrades:     m.LosingTrades,
		TotalPnL:         m.TotalPnL,
		FinalBalance:     balance,
		NetReturnPercent: (balance - cfg.StartingBalance) / cfg.StartingBalance * 100,
		WinRate:          m.WinRate,
		ProfitFactor:     m.ProfitFactor,
		SharpeRatio:      m.SharpeRatio,
		Expectancy:       m.Expectancy,
		MaxDrawdown:      m.MaxDrawdown,
		MaxEquity:        m.MaxEquity,
		Trades:           trades,
		EquityCurve:      curve,
	}
}
