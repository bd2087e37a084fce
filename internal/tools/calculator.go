// Package tools holds the utilities the router can dispatch a query to.
// Tools never return errors: every fault is reported in ToolResult.Output.
package tools

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ragagent/internal/domain"
)

// CalculatorName identifies the calculator tool in route decisions and results.
const CalculatorName = "calculator"

// Fixed advisory outputs.
const (
	NotMathMessage      = "This doesn't appear to be a mathematical calculation. Please try a different query."
	NoExpressionMessage = "No valid mathematical expression found in the input."
)

var (
	bornInRe     = regexp.MustCompile(`born in (\d{4})`)
	squareRootRe = regexp.MustCompile(`square root of (\d+(?:\.\d+)?)|sqrt\s*\(?\s*(\d+(?:\.\d+)?)\s*\)?`)
	longWordRe   = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	binaryOpRe   = regexp.MustCompile(`[0-9][+\-*/][0-9]`)
	mathRunRe    = regexp.MustCompile(`[\d+\-*/()^\s.]+`)
	digitRe      = regexp.MustCompile(`\d`)
)

// Calculator evaluates arithmetic and a couple of natural-language
// shortcuts (age from birth year, square roots).
type Calculator struct {
	now func() time.Time
}

// NewCalculator creates a calculator. now supplies the current year for age
// questions; nil means time.Now.
func NewCalculator(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

// Name returns the tool name.
func (c *Calculator) Name() string { return CalculatorName }

// Run evaluates expression.
func (c *Calculator) Run(_ context.Context, expression string) domain.ToolResult {
	lower := strings.ToLower(expression)

	if m := bornInRe.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		current := c.now().Year()
		return c.result(expression, fmt.Sprintf(
			"If you were born in %d, you would be approximately %d years old in %d.", year, current-year, current))
	}

	if m := squareRootRe.FindStringSubmatch(lower); m != nil {
		number := m[1]
		if number == "" {
			number = m[2]
		}
		n, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return c.result(expression, "Error: "+err.Error())
		}
		return c.result(expression, fmt.Sprintf("The square root of %s is %.6f", formatFloat(n), math.Sqrt(n)))
	}

	if len(longWordRe.FindAllString(lower, -1)) > 3 && !binaryOpRe.MatchString(expression) {
		return c.result(expression, NotMathMessage)
	}

	if clean := strings.TrimSpace(strings.Join(mathRunRe.FindAllString(expression, -1), "")); clean != "" {
		expression = clean
	}
	if !digitRe.MatchString(expression) {
		return c.result(expression, NoExpressionMessage)
	}

	v, err := Eval(expression)
	if err != nil {
		return c.result(expression, "Error: "+err.Error())
	}
	return c.result(expression, v.String())
}

func (c *Calculator) result(input, output string) domain.ToolResult {
	return domain.ToolResult{Tool: CalculatorName, Input: input, Output: output}
}
