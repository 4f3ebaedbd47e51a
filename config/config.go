package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"forexscalper/internal/adapters/logger"
	"forexscalper/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Trading Parameters
	Pair            string          // Currency pair to trade, e.g. "EURUSD"
	ActiveStrategy  domain.Strategy // Strategy used by the live session
	MaxTradesPerDay int             // Daily trade limit
	StartingBalance float64         // Paper account starting balance

	// Signal Parameters
	EMAFastPeriod    int
	EMASlowPeriod    int
	RSIPeriod        int
	RSIOverbought    float64
	RSIOversold      float64
	BreakoutLookback int // Candles considered for breakout levels

	// Risk Parameters
	ProfitTargetPips    float64 // Take-profit distance in pips
	StopLossPips        float64 // Stop-loss distance in pips
	RiskPerTradePercent float64 // Balance percentage risked per trade

	// Execution
	PollInterval   time.Duration // Strategy evaluation interval
	ExecutionDelay time.Duration // Simulated order fill delay
	FeedSeed       int64         // Seed for the simulated price feed

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Trading Parameters
	cfg.Pair = getEnv("PAIR", "EURUSD")
	if cfg.Pair == "" {
		errs = append(errs, "PAIR must be set")
	}

	cfg.ActiveStrategy = domain.Strategy(getEnv("STRATEGY", string(domain.StrategyEMACrossover)))
	if !cfg.ActiveStrategy.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown STRATEGY %q", cfg.ActiveStrategy))
	}

	cfg.MaxTradesPerDay, err = getEnvAsIntRequired("MAX_TRADES_PER_DAY", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_TRADES_PER_DAY: %v", err))
	} else if cfg.MaxTradesPerDay <= 0 {
		errs = append(errs, "MAX_TRADES_PER_DAY must be positive")
	}

	cfg.StartingBalance, err = getEnvAsFloatRequired("STARTING_BALANCE", 50000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_BALANCE: %v", err))
	} else if cfg.StartingBalance <= 0 {
		errs = append(errs, "STARTING_BALANCE must be positive")
	}

	// Signal Parameters (using defaults if not set)
	cfg.EMAFastPeriod = getEnvAsInt("EMA_FAST_PERIOD", 5)
	cfg.EMASlowPeriod = getEnvAsInt("EMA_SLOW_PERIOD", 13)
	cfg.RSIPeriod = getEnvAsInt("RSI_PERIOD", 14)
	cfg.RSIOverbought = getEnvAsFloat("RSI_OVERBOUGHT", 70.0)
	cfg.RSIOversold = getEnvAsFloat("RSI_OVERSOLD", 30.0)
	cfg.BreakoutLookback = getEnvAsInt("BREAKOUT_LOOKBACK", 20)

	if cfg.EMAFastPeriod <= 0 || cfg.EMASlowPeriod <= 0 || cfg.RSIPeriod <= 0 {
		errs = append(errs, "EMA and RSI periods must be positive")
	}
	if cfg.EMAFastPeriod >= cfg.EMASlowPeriod {
		errs = append(errs, "EMA_FAST_PERIOD must be less than EMA_SLOW_PERIOD")
	}
	if cfg.RSIOverbought <= cfg.RSIOversold || cfg.RSIOverbought > 100 || cfg.RSIOversold < 0 {
		errs = append(errs, "invalid RSI thresholds (Overbought must be > Oversold, between 0-100)")
	}
	if cfg.BreakoutLookback <= 0 {
		errs = append(errs, "BREAKOUT_LOOKBACK must be positive")
	}

	// Risk Parameters
	cfg.ProfitTargetPips, err = getEnvAsFloatRequired("PROFIT_TARGET_PIPS", 5.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PROFIT_TARGET_PIPS: %v", err))
	} else if cfg.ProfitTargetPips <= 0 {
		errs = append(errs, "PROFIT_TARGET_PIPS must be positive")
	}

	cfg.StopLossPips, err = getEnvAsFloatRequired("STOP_LOSS_PIPS", 3.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_LOSS_PIPS: %v", err))
	} else if cfg.StopLossPips <= 0 {
		errs = append(errs, "STOP_LOSS_PIPS must be positive")
	}

	cfg.RiskPerTradePercent, err = getEnvAsFloatRequired("RISK_PER_TRADE_PERCENT", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_PER_TRADE_PERCENT: %v", err))
	} else if cfg.RiskPerTradePercent <= 0 || cfg.RiskPerTradePercent > 100 {
		errs = append(errs, "RISK_PER_TRADE_PERCENT must be between 0 and 100")
	}

	// Execution
	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 5)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	delaySeconds := getEnvAsInt("EXECUTION_DELAY_SECONDS", 2)
	if delaySeconds < 0 {
		errs = append(errs, "EXECUTION_DELAY_SECONDS cannot be negative")
	}
	cfg.ExecutionDelay = time.Duration(delaySeconds) * time.Second

	cfg.FeedSeed = int64(getEnvAsInt("FEED_SEED", 1))

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/scalper.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
