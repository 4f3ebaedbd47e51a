package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"forexscalper/internal/domain"
	"forexscalper/internal/ports"

	"github.com/google/uuid"
)

// WriteCandlesToCSV writes a candle series to filename with a header row.
func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"timestamp", "pair", "open", "high", "low", "close", "volume"})
	for _, c := range candles {
		writer.Write([]string{
			c.Timestamp.Format(time.RFC3339),
			c.Pair,
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
		})
	}
	return writer.Error()
}

// ReadCandlesFromCSV reads a candle series written by WriteCandlesToCSV.
// Timestamps must strictly increase; a stalled or backwards clock in the
// file fails the load with ports.ErrDataGap.
func ReadCandlesFromCSV(filename string) ([]domain.Candle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read candle csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) != 7 {
			return nil, fmt.Errorf("row %d: expected 7 fields, got %d", i+2, len(rec))
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid timestamp %q: %w", i+2, rec[0], err)
		}
		if n := len(candles); n > 0 && !ts.After(candles[n-1].Timestamp) {
			return nil, fmt.Errorf("row %d: %w: %s does not advance past %s",
				i+2, ports.ErrDataGap, rec[0], candles[n-1].Timestamp.Format(time.RFC3339))
		}
		values := make([]float64, 5)
		for j, field := range rec[2:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid number %q: %w", i+2, field, err)
			}
			values[j] = v
		}
		candles = append(candles, domain.Candle{
			Timestamp: ts,
			Pair:      rec[1],
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}
	return candles, nil
}

// WriteTradesToCSV writes closed and open trades to filename. Open trades
// leave the exit fields empty.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{
		"id", "pair", "direction", "entry_price", "exit_price",
		"stop_loss", "take_profit", "lot_size", "strategy", "status",
		"opened_at", "closed_at", "pnl",
	})
	for _, t := range trades {
		var exitPrice, closedAt, pnl string
		if t.ExitPrice != nil {
			exitPrice = formatFloat(*t.ExitPrice)
		}
		if t.ClosedAt != nil {
			closedAt = t.ClosedAt.Format(time.RFC3339)
		}
		if t.PnL != nil {
			pnl = formatFloat(*t.PnL)
		}
		writer.Write([]string{
			t.ID.String(),
			t.Pair,
			string(t.Direction),
			formatFloat(t.EntryPrice),
			exitPrice,
			formatFloat(t.StopLoss),
			formatFloat(t.TakeProfit),
			formatFloat(t.LotSize),
			string(t.Strategy),
			string(t.Status),
			t.OpenedAt.Format(time.RFC3339),
			closedAt,
			pnl,
		})
	}
	return writer.Error()
}

// ReadTradesFromCSV reads trades written by WriteTradesToCSV.
func ReadTradesFromCSV(filename string) ([]*domain.Trade, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read trade csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	trades := make([]*domain.Trade, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 13 {
			return nil, fmt.Errorf("row %d: expected 13 fields, got %d", i+2, len(rec))
		}
		id, err := uuid.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid trade id %q: %w", i+2, rec[0], err)
		}
		entry, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid entry price: %w", i+2, err)
		}
		stopLoss, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid stop loss: %w", i+2, err)
		}
		takeProfit, err := strconv.ParseFloat(rec[6], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid take profit: %w", i+2, err)
		}
		lotSize, err := strconv.ParseFloat(rec[7], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid lot size: %w", i+2, err)
		}
		openedAt, err := time.Parse(time.RFC3339, rec[10])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid opened_at: %w", i+2, err)
		}

		trade := &domain.Trade{
			ID:         id,
			Pair:       rec[1],
			Direction:  domain.Direction(rec[2]),
			EntryPrice: entry,
			StopLoss:   stopLoss,
			TakeProfit: takeProfit,
			LotSize:    lotSize,
			Strategy:   domain.Strategy(rec[8]),
			Status:     domain.TradeStatus(rec[9]),
			OpenedAt:   openedAt,
		}
		if rec[4] != "" {
			exitPrice, err := strconv.ParseFloat(rec[4], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid exit price: %w", i+2, err)
			}
			trade.ExitPrice = &exitPrice
		}
		if rec[11] != "" {
			closedAt, err := time.Parse(time.RFC3339, rec[11])
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid closed_at: %w", i+2, err)
			}
			trade.ClosedAt = &closedAt
		}
		if rec[12] != "" {
			pnl, err := strconv.ParseFloat(rec[12], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid pnl: %w", i+2, err)
			}
			trade.PnL = &pnl
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// WriteEquityCurveToCSV writes an equity curve to filename.
func WriteEquityCurveToCSV(curve []domain.EquityPoint, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"timestamp", "equity"})
	for _, p := range curve {
		writer.Write([]string{
			p.Timestamp.Format(time.RFC3339),
			formatFloat(p.Equity),
		})
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
