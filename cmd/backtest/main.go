// Command backtest replays candle history through a strategy and prints
// the performance summary. Candles come from a CSV file or, when none is
// given, from the simulated feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"forexscalper/internal/adapters/logger"
	"forexscalper/internal/adapters/marketdata"
	"forexscalper/internal/domain"
	"forexscalper/internal/strategy"
	"forexscalper/internal/strategy/backtesting"
	"forexscalper/internal/utils"
)

func main() {
	var (
		pair       = flag.String("pair", "EURUSD", "currency pair to backtest")
		stratName  = flag.String("strategy", string(domain.StrategyEMACrossover), "strategy: ema_crossover, rsi_divergence, breakout or reversal")
		candleFile = flag.String("candles", "", "CSV file of candles; empty generates synthetic history")
		days       = flag.Int("days", 30, "days of synthetic history when no CSV is given")
		seed       = flag.Int64("seed", 1, "seed for the synthetic feed")
		balance    = flag.Float64("balance", 50000, "starting balance")
		tradesOut  = flag.String("trades-out", "", "optional CSV path for the trade log")
		equityOut  = flag.String("equity-out", "", "optional CSV path for the equity curve")
		logLevel   = flag.String("log-level", "WARN", "log level: DEBUG, INFO, WARN or ERROR")
	)
	flag.Parse()

	appLogger := logger.NewStdLogger(logger.ParseLevel(*logLevel))
	ctx := context.Background()

	strat := domain.Strategy(*stratName)
	if !strat.IsValid() {
		log.Fatalf("FATAL: unknown strategy %q", *stratName)
	}

	candles, err := loadCandles(ctx, *candleFile, *pair, *days, *seed, appLogger)
	if err != nil {
		log.Fatalf("FATAL: failed to load candles: %v", err)
	}
	appLogger.Info(ctx, "Candles loaded", map[string]interface{}{"count": len(candles)})

	result, err := backtesting.Run(ctx, backtesting.Config{
		Strategy:        strategy.DefaultConfig(*pair, strat),
		StartingBalance: *balance,
	}, candles, appLogger)
	if err != nil {
		log.Fatalf("FATAL: backtest failed: %v", err)
	}

	printSummary(*pair, strat, len(candles), result)

	if *tradesOut != "" {
		if err := utils.WriteTradesToCSV(result.Trades, *tradesOut); err != nil {
			log.Fatalf("FATAL: failed to write trade log: %v", err)
		}
		fmt.Printf("Trade log written to %s\n", *tradesOut)
	}
	if *equityOut != "" {
		if err := utils.WriteEquityCurveToCSV(result.EquityCurve, *equityOut); err != nil {
			log.Fatalf("FATAL: failed to write equity curve: %v", err)
		}
		fmt.Printf("Equity curve written to %s\n", *equityOut)
	}
}

func loadCandles(ctx context.Context, file, pair string, days int, seed int64, appLogger *logger.StdLogger) ([]domain.Candle, error) {
	if file != "" {
		return utils.ReadCandlesFromCSV(file)
	}

	feed, err := marketdata.NewSimulatedFeed(marketdata.Config{Seed: seed, Logger: appLogger})
	if err != nil {
		return nil, err
	}
	to := time.Now().UTC().Truncate(time.Hour)
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	return feed.FetchHistory(ctx, pair, from, to)
}

func printSummary(pair string, strat domain.Strategy, candles int, r *backtesting.Result) {
	fmt.Printf("Backtest: %s / %s over %d candles\n", pair, strat, candles)
	fmt.Printf("  Trades:        %d (%d wins, %d losses)\n", r.TotalTrades, r.WinningTrades, r.LosingTrades)
	fmt.Printf("  Win rate:      %.1f%%\n", r.WinRate*100)
	fmt.Printf("  Total PnL:     %.2f\n", r.TotalPnL)
	fmt.Printf("  Final balance: %.2f (%.2f%%)\n", r.FinalBalance, r.NetReturnPercent)
	fmt.Printf("  Profit factor: %.2f\n", r.ProfitFactor)
	fmt.Printf("  Expectancy:    %.2f\n", r.Expectancy)
	fmt.Printf("  Sharpe ratio:  %.2f\n", r.SharpeRatio)
	fmt.Printf("  Max drawdown:  %.2f\n", r.MaxDrawdown)
}
