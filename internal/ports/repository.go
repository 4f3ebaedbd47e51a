package ports

import (
	"context"

	"forexscalper/internal/domain"
)

// TradeRepository persists executed trades for journaling and analysis.
type TradeRepository interface {
	// CreateTrade stores a new trade record.
	CreateTrade(ctx context.Context, trade *domain.Trade) error

	// UpdateTrade persists changes to an existing trade, typically on close.
	UpdateTrade(ctx context.Context, trade *domain.Trade) error

	// GetTradeByID retrieves a trade by its identifier.
	// Returns ErrNotFound if no such trade exists.
	GetTradeByID(ctx context.Context, id string) (*domain.Trade, error)

	// ListTradesByPair returns the most recent trades for a pair,
	// newest first, up to limit.
	ListTradesByPair(ctx context.Context, pair string, limit int) ([]*domain.Trade, error)

	// CountTradesToday returns the number of trades opened for the pair
	// during the current UTC calendar day.
	CountTradesToday(ctx context.Context, pair string) (int, error)

	// TotalRealizedPnL returns the sum of realized profit and loss
	// across all closed trades.
	TotalRealizedPnL(ctx context.Context) (float64, error)
}
