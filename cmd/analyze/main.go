// Command analyze reads a trade log CSV produced by the backtest command
// (or exported from the live journal) and prints performance metrics.
package main

import (
	"flag"
	"fmt"
	"log"

	"forexscalper/internal/strategy/analytics"
	"forexscalper/internal/utils"
)

func main() {
	var (
		tradesFile = flag.String("trades", "", "CSV file of trades to analyze (required)")
		balance    = flag.Float64("balance", 50000, "starting balance the trades were taken against")
	)
	flag.Parse()

	if *tradesFile == "" {
		log.Fatal("FATAL: -trades is required")
	}

	trades, err := utils.ReadTradesFromCSV(*tradesFile)
	if err != nil {
		log.Fatalf("FATAL: failed to read trades: %v", err)
	}

	m := analytics.Analyze(trades, nil, *balance)

	fmt.Printf("Analyzed %d trades from %s\n", m.TotalTrades, *tradesFile)
	fmt.Printf("  Wins / losses:   %d / %d (%.1f%% win rate)\n", m.WinningTrades, m.LosingTrades, m.WinRate*100)
	fmt.Printf("  Total PnL:       %.2f\n", m.TotalPnL)
	fmt.Printf("  Gross profit:    %.2f\n", m.GrossProfit)
	fmt.Printf("  Gross loss:      %.2f\n", m.GrossLoss)
	fmt.Printf("  Average win:     %.2f\n", m.AverageWin)
	fmt.Printf("  Average loss:    %.2f\n", m.AverageLoss)
	fmt.Printf("  Profit factor:   %.2f\n", m.ProfitFactor)
	fmt.Printf("  Expectancy:      %.2f\n", m.Expectancy)
	fmt.Printf("  Sharpe ratio:    %.2f\n", m.SharpeRatio)
	fmt.Printf("  Longest streaks: %d wins, %d losses\n", m.LongestWinStreak, m.LongestLossStreak)
}
