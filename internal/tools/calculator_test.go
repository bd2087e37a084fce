package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
}

func TestCalculatorRun(t *testing.T) {
	calc := NewCalculator(fixedClock(2026))

	tests := []struct {
		name      string
		input     string
		want      string
		wantInput string
	}{
		{"simple addition", "2 + 2", "4", "2 + 2"},
		{"embedded in text", "what is 12*3?", "36", "12*3"},
		{"caret power", "2^8", "256", "2^8"},
		{"true division", "9 / 4", "2.25", "9 / 4"},
		{"age", "born in 1990", "If you were born in 1990, you would be approximately 36 years old in 2026.", "born in 1990"},
		{"square root phrase", "what is the square root of 16", "The square root of 16.0 is 4.000000", "what is the square root of 16"},
		{"sqrt call", "sqrt(2)", "The square root of 2.0 is 1.414214", "sqrt(2)"},
		{"square root decimal", "square root of 2.25", "The square root of 2.25 is 1.500000", "square root of 2.25"},
		{"prose rejected", "tell me about the history of the company", NotMathMessage, "tell me about the history of the company"},
		{"prose with math allowed", "please kindly compute this value 3*4", "12", "3*4"},
		{"no digits", "+ - *", NoExpressionMessage, "+ - *"},
		{"division by zero", "1/0", "Error: division by zero", "1/0"},
		{"syntax error", "2 + * 3", "Error: unexpected \"*\" at position 4", "2 + * 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.Run(context.Background(), tt.input)
			assert.Equal(t, CalculatorName, res.Tool)
			assert.Equal(t, tt.want, res.Output)
			assert.Equal(t, tt.wantInput, res.Input)
		})
	}
}

func TestCalculatorAgePrecedesSquareRoot(t *testing.T) {
	res := NewCalculator(fixedClock(2030)).Run(context.Background(), "born in 2000, square root of 9")
	assert.Contains(t, res.Output, "approximately 30 years old in 2030")
}

func TestCalculatorDefaultClock(t *testing.T) {
	res := NewCalculator(nil).Run(context.Background(), "born in 1990")
	assert.Contains(t, res.Output, "born in 1990")
	assert.Contains(t, res.Output, time.Now().Format("2006"))
}
