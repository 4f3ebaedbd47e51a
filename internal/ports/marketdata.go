package ports

import (
	"context"
	"time"

	"forexscalper/internal/domain"
)

// MarketDataSource provides live quotes and historical candles for a
// currency pair. Implementations may connect to a broker feed or
// synthesize data for paper trading and backtests.
type MarketDataSource interface {
	// Subscribe returns a channel of live price quotes for the pair.
	// The channel is closed when ctx is cancelled.
	Subscribe(ctx context.Context, pair string) (<-chan domain.PriceQuote, error)

	// FetchHistory returns hourly candles for the pair covering [from, to],
	// ordered by timestamp ascending.
	FetchHistory(ctx context.Context, pair string, from, to time.Time) ([]domain.Candle, error)
}
