// Command optimize grid-searches strategy parameters against candle
// history and prints the top-ranked combinations.
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
	"forexscalper/internal/strategy/optimization"
	"forexscalper/internal/utils"
)

func main() {
	var (
		pair       = flag.String("pair", "EURUSD", "currency pair to optimize")
		stratName  = flag.String("strategy", string(domain.StrategyEMACrossover), "strategy to optimize")
		candleFile = flag.String("candles", "", "CSV file of candles; empty generates synthetic history")
		days       = flag.Int("days", 30, "days of synthetic history when no CSV is given")
		seed       = flag.Int64("seed", 1, "seed for the synthetic feed")
		balance    = flag.Float64("balance", 50000, "starting balance")
		top        = flag.Int("top", 5, "number of top results to print")
	)
	flag.Parse()

	appLogger := logger.NewStdLogger(logger.LevelWarn)
	ctx := context.Background()

	strat := domain.Strategy(*stratName)
	if !strat.IsValid() {
		log.Fatalf("FATAL: unknown strategy %q", *stratName)
	}

	var candles []domain.Candle
	var err error
	if *candleFile != "" {
		candles, err = utils.ReadCandlesFromCSV(*candleFile)
	} else {
		var feed *marketdata.SimulatedFeed
		feed, err = marketdata.NewSimulatedFeed(marketdata.Config{Seed: *seed, Logger: appLogger})
		if err == nil {
			to := time.Now().UTC().Truncate(time.Hour)
			candles, err = feed.FetchHistory(ctx, *pair, to.Add(-time.Duration(*days)*24*time.Hour), to)
		}
	}
	if err != nil {
		log.Fatalf("FATAL: failed to load candles: %v", err)
	}

	opt, err := optimization.NewOptimizer(optimization.Config{
		Base: strategy.DefaultConfig(*pair, strat),
		Ranges: []optimization.ParameterRange{
			{Name: optimization.ParamEMAFast, Min: 3, Max: 8, Step: 1, IsInt: true},
			{Name: optimization.ParamEMASlow, Min: 10, Max: 21, Step: 3, IsInt: true},
			{Name: optimization.ParamProfitTargetPips, Min: 3, Max: 8, Step: 1},
			{Name: optimization.ParamStopLossPips, Min: 2, Max: 5, Step: 1},
		},
		StartingBalance: *balance,
		Logger:          appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: failed to create optimizer: %v", err)
	}

	results, err := opt.Optimize(ctx, candles)
	if err != nil {
		log.Fatalf("FATAL: optimization failed: %v", err)
	}
	if len(results) == 0 {
		log.Fatal("FATAL: no valid parameter combinations")
	}

	limit := *top
	if limit > len(results) {
		limit = len(results)
	}
	fmt.Printf("Top %d of %d combinations for %s / %s over %d candles:\n", limit, len(results), *pair, strat, len(candles))
	for i := 0; i < limit; i++ {
		r := results[i]
		fmt.Printf("%2d. score=%.2f params=%v trades=%d winRate=%.1f%% pnl=%.2f drawdown=%.2f\n",
			i+1, r.Score, r.Parameters, r.Backtest.TotalTrades,
			r.Backtest.WinRate*100, r.Backtest.TotalPnL, r.Backtest.MaxDrawdown)
	}
}
