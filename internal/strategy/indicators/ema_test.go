package indicators

import (
	"errors"
	"math"
	"testing"

	"forexscalper/internal/ports"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestEMACalculator_EMA(t *testing.T) {
	prices := []float64{100.0, 102.0, 101.0, 103.0, 104.0}

	tests := []struct {
		name          string
		prices        []float64
		period        int
		expectedValue float64
		expectError   bool
	}{
		{
			name:   "SMA seed then recurrence",
			prices: prices,
			period: 3,
			// Seed (100+102+101)/3 = 101, then 103 -> 102, then 104 -> 103
			expectedValue: 103.0,
		},
		{
			name:          "Exactly period prices returns seed average",
			prices:        []float64{100.0, 102.0, 101.0},
			period:        3,
			expectedValue: 101.0,
		},
		{
			name:          "Constant series stays at the constant",
			prices:        []float64{100.0, 100.0, 100.0, 100.0, 100.0, 100.0, 100.0, 100.0},
			period:        5,
			expectedValue: 100.0,
		},
		{
			name:        "Insufficient data",
			prices:      prices,
			period:      6,
			expectError: true,
		},
		{
			name:        "Empty series",
			prices:      nil,
			period:      3,
			expectError: true,
		},
		{
			name:        "Invalid period",
			prices:      prices,
			period:      0,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewEMACalculator()
			for _, p := range tt.prices {
				calc.AddPrice(p)
			}

			value, err := calc.EMA(tt.period)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !almostEqual(value, tt.expectedValue) {
				t.Errorf("Expected %f, got %f", tt.expectedValue, value)
			}
		})
	}
}

func TestEMACalculator_EMAArray(t *testing.T) {
	calc := NewEMACalculator()
	for _, p := range []float64{100.0, 102.0, 101.0, 103.0, 104.0} {
		calc.AddPrice(p)
	}

	out, err := calc.EMAArray(3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := []float64{100.0, 101.0, 101.0, 102.0, 103.0}
	if len(out) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(out))
	}
	for i := range expected {
		if !almostEqual(out[i], expected[i]) {
			t.Errorf("Index %d: expected %f, got %f", i, expected[i], out[i])
		}
	}
}

func TestEMACalculator_EMAArray_InsufficientData(t *testing.T) {
	calc := NewEMACalculator()
	calc.AddPrice(100.0)
	calc.AddPrice(101.0)

	if _, err := calc.EMAArray(3); err == nil {
		t.Error("Expected error but got none")
	}
}

func TestEMACalculator_InsufficientHistorySentinel(t *testing.T) {
	calc := NewEMACalculator()
	calc.AddPrice(100.0)
	calc.AddPrice(101.0)

	if _, err := calc.EMA(3); !errors.Is(err, ports.ErrInsufficientHistory) {
		t.Errorf("Expected ErrInsufficientHistory from EMA, got %v", err)
	}
	if _, err := calc.EMAArray(3); !errors.Is(err, ports.ErrInsufficientHistory) {
		t.Errorf("Expected ErrInsufficientHistory from EMAArray, got %v", err)
	}
}

func TestEMACalculator_Reset(t *testing.T) {
	calc := NewEMACalculator()
	for i := 0; i < 5; i++ {
		calc.AddPrice(100.0)
	}
	calc.Reset()
	if calc.Count() != 0 {
		t.Errorf("Expected empty calculator after reset, got %d prices", calc.Count())
	}
	if _, err := calc.EMA(3); err == nil {
		t.Error("Expected error after reset but got none")
	}
}

func TestEMACalculator_HistoryBound(t *testing.T) {
	calc := NewEMACalculator()
	for i := 0; i < maxHistory+50; i++ {
		calc.AddPrice(float64(i))
	}
	if calc.Count() != maxHistory {
		t.Errorf("Expected history capped at %d, got %d", maxHistory, calc.Count())
	}
}

func TestCrossoverSignal(t *testing.T) {
	tests := []struct {
		name     string
		fast     []float64
		slow     []float64
		expected Action
	}{
		{
			name:     "Fast crosses above slow",
			fast:     []float64{1.0, 3.0},
			slow:     []float64{2.0, 2.0},
			expected: ActionBuy,
		},
		{
			name:     "Fast crosses below slow",
			fast:     []float64{3.0, 1.0},
			slow:     []float64{2.0, 2.0},
			expected: ActionSell,
		},
		{
			name:     "Cross from equality counts",
			fast:     []float64{2.0, 3.0},
			slow:     []float64{2.0, 2.0},
			expected: ActionBuy,
		},
		{
			name:     "Fast stays above slow",
			fast:     []float64{3.0, 4.0},
			slow:     []float64{2.0, 2.0},
			expected: ActionNone,
		},
		{
			name:     "Lines end equal",
			fast:     []float64{1.0, 2.0},
			slow:     []float64{2.0, 2.0},
			expected: ActionNone,
		},
		{
			name:     "Too few values",
			fast:     []float64{3.0},
			slow:     []float64{2.0, 2.0},
			expected: ActionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CrossoverSignal(tt.fast, tt.slow); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
