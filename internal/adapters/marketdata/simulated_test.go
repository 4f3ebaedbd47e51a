package marketdata

import (
	"context"
	"testing"
	"time"

	"forexscalper/internal/adapters/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T, seed int64) *SimulatedFeed {
	t.Helper()
	feed, err := NewSimulatedFeed(Config{
		Seed:         seed,
		TickInterval: time.Millisecond,
		Logger:       logger.NewStdLogger(logger.LevelError),
	})
	require.NoError(t, err)
	return feed
}

func TestNewSimulatedFeed_RequiresLogger(t *testing.T) {
	_, err := NewSimulatedFeed(Config{})
	assert.Error(t, err)
}

func TestFetchHistory_Deterministic(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)

	a, err := newTestFeed(t, 42).FetchHistory(context.Background(), "EURUSD", from, to)
	require.NoError(t, err)
	b, err := newTestFeed(t, 42).FetchHistory(context.Background(), "EURUSD", from, to)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFetchHistory_CandleInvariants(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	candles, err := newTestFeed(t, 7).FetchHistory(context.Background(), "EURUSD", from, to)
	require.NoError(t, err)
	require.Len(t, candles, 25)

	for i, c := range candles {
		assert.Equal(t, "EURUSD", c.Pair)
		assert.GreaterOrEqual(t, c.High, c.Low)
		assert.True(t, c.Contains(c.Open), "open outside range at %d", i)
		assert.True(t, c.Contains(c.Close), "close outside range at %d", i)
		if i > 0 {
			assert.True(t, c.Timestamp.After(candles[i-1].Timestamp), "timestamps not ascending at %d", i)
		}
	}
}

func TestFetchHistory_InvalidRange(t *testing.T) {
	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := newTestFeed(t, 1).FetchHistory(context.Background(), "EURUSD", from, to)
	assert.Error(t, err)
}

func TestSubscribe_DeliversQuotesAndClosesOnCancel(t *testing.T) {
	feed := newTestFeed(t, 99)
	ctx, cancel := context.WithCancel(context.Background())

	quotes, err := feed.Subscribe(ctx, "EURUSD")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		select {
		case q, ok := <-quotes:
			require.True(t, ok)
			assert.Equal(t, "EURUSD", q.Pair)
			assert.Greater(t, q.Ask, q.Bid)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for quote")
		}
	}

	cancel()
	select {
	case _, ok := <-quotes:
		for ok {
			_, ok = <-quotes
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSubscribe_RequiresPair(t *testing.T) {
	feed := newTestFeed(t, 1)
	_, err := feed.Subscribe(context.Background(), "")
	assert.Error(t, err)
}
