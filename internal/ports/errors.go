package ports

import "errors"

var (
	// ErrInsufficientHistory is returned when an operation needs more
	// price history than has been accumulated so far.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrConfigurationError indicates a missing or invalid configuration value.
	ErrConfigurationError = errors.New("configuration error")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDataGap indicates a candle series with a missing or
	// non-monotonic timestamp.
	ErrDataGap = errors.New("data gap in candle series")
)
