package lib

import (
	"math"
	"strconv"
)

// Calculate lexes and evaluates one line of input.
func Calculate(input string) (float64, error) {
	tokens, err := Lex(input)
	if err != nil {
		return 0, err
	}
	return Evaluate(tokens)
}

// FormatResult renders a result as plain decimal, never in exponent form.
func FormatResult(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
