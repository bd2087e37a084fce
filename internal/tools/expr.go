package tools

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// maxIntBits bounds the size of an integer power so a single expression
// cannot exhaust memory.
const maxIntBits = 1 << 22

// Value is the result of evaluating an arithmetic expression. Integers are
// exact and unbounded; any operation involving a float, and true division,
// produces a float. So "2+2" prints as "4" while "7/2" prints as "3.5".
type Value struct {
	// Int is set for integer values; Float is used otherwise.
	Int   *big.Int
	Float float64
}

func intValue(x *big.Int) Value  { return Value{Int: x} }
func floatValue(f float64) Value { return Value{Float: f} }
func smallInt(n int64) Value     { return intValue(big.NewInt(n)) }

// IsInt reports whether v is an exact integer.
func (v Value) IsInt() bool { return v.Int != nil }

func (v Value) isZero() bool {
	if v.Int != nil {
		return v.Int.Sign() == 0
	}
	return v.Float == 0
}

func (v Value) isNegative() bool {
	if v.Int != nil {
		return v.Int.Sign() < 0
	}
	return v.Float < 0
}

// String renders integers in full and floats in shortest form with at
// least one decimal.
func (v Value) String() string {
	if v.Int != nil {
		return v.Int.String()
	}
	return formatFloat(v.Float)
}

// toFloat converts v for float arithmetic. Integers too large for a
// float64 are an error rather than infinity.
func (v Value) toFloat() (float64, error) {
	if v.Int == nil {
		return v.Float, nil
	}
	f, _ := new(big.Float).SetInt(v.Int).Float64()
	if math.IsInf(f, 0) {
		return 0, errIntTooLarge
	}
	return f, nil
}

// approx is toFloat without the overflow check, for comparisons.
func (v Value) approx() float64 {
	if v.Int == nil {
		return v.Float
	}
	f, _ := new(big.Float).SetInt(v.Int).Float64()
	return f
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var (
	errDivisionByZero = errors.New("division by zero")
	errMathDomain     = errors.New("math domain error")
	errIntTooLarge    = errors.New("int too large to convert to float")
	errOutOfRange     = errors.New("numerical result out of range")
	errTooLarge       = errors.New("result too large")
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	for i := 0; i < len(src); {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || c == '.':
			start := i
			seenDot := false
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || (src[i] == '.' && !seenDot)) {
				if src[i] == '.' {
					seenDot = true
				}
				i++
			}
			if src[start:i] == "." {
				return nil, fmt.Errorf("invalid syntax at position %d", start)
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case unicode.IsLetter(c):
			start := i
			for i < len(src) && (unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i]))) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: strings.ToLower(src[start:i]), pos: start})
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		default:
			return nil, fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// Eval parses and evaluates an arithmetic expression. Supported syntax:
// numeric literals, + - * / ^ (or **), parentheses, and the functions
// abs, max, min, pow, round, sum and sqrt.
func Eval(src string) (Value, error) {
	toks, err := tokenize(src)
	if err != nil {
		return Value{}, err
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return Value{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Value{}, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
	return v, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (Value, error) {
	left, err := p.term()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return Value{}, err
		}
		if t.text == "+" {
			left, err = add(left, right)
		} else {
			left, err = sub(left, right)
		}
		if err != nil {
			return Value{}, err
		}
	}
}

// term := unary (('*'|'/') unary)*
func (p *parser) term() (Value, error) {
	left, err := p.unary()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		if t.text == "*" {
			left, err = mul(left, right)
		} else {
			left, err = div(left, right)
		}
		if err != nil {
			return Value{}, err
		}
	}
}

// unary := ('+'|'-') unary | power
func (p *parser) unary() (Value, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		v, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		if t.text == "-" {
			return neg(v), nil
		}
		return v, nil
	}
	return p.power()
}

// power := primary ('^' unary)?
// The exponent may carry its own sign, and -2^2 is -(2^2).
func (p *parser) power() (Value, error) {
	base, err := p.primary()
	if err != nil {
		return Value{}, err
	}
	t := p.peek()
	if t.kind != tokOp || t.text != "^" {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return Value{}, err
	}
	return pow(base, exp)
}

func (p *parser) primary() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		if !strings.Contains(t.text, ".") {
			n, ok := new(big.Int).SetString(t.text, 10)
			if !ok {
				return Value{}, fmt.Errorf("invalid number %q", t.text)
			}
			return intValue(n), nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", t.text)
		}
		return floatValue(f), nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return Value{}, err
		}
		if r := p.next(); r.kind != tokRParen {
			return Value{}, fmt.Errorf("expected ')' at position %d", r.pos)
		}
		return v, nil
	case tokIdent:
		return p.call(t)
	case tokEOF:
		return Value{}, errors.New("unexpected end of expression")
	default:
		return Value{}, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
}

func (p *parser) call(name token) (Value, error) {
	fn, ok := functions[name.text]
	if !ok {
		return Value{}, fmt.Errorf("name %q is not defined", name.text)
	}
	if t := p.next(); t.kind != tokLParen {
		return Value{}, fmt.Errorf("expected '(' after %s", name.text)
	}
	var args []Value
	if p.peek().kind == tokRParen {
		p.next()
	} else {
		for {
			v, err := p.expr()
			if err != nil {
				return Value{}, err
			}
			args = append(args, v)
			t := p.next()
			if t.kind == tokRParen {
				break
			}
			if t.kind != tokComma {
				return Value{}, fmt.Errorf("expected ',' or ')' at position %d", t.pos)
			}
		}
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return Value{}, fmt.Errorf("%s() takes %s, %d given", name.text, fn.arity(), len(args))
	}
	return fn.apply(args)
}

type function struct {
	minArgs int
	maxArgs int // -1 for variadic
	apply   func(args []Value) (Value, error)
}

func (f function) arity() string {
	switch {
	case f.maxArgs < 0:
		return fmt.Sprintf("at least %d arguments", f.minArgs)
	case f.minArgs == f.maxArgs:
		return fmt.Sprintf("exactly %d arguments", f.minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", f.minArgs, f.maxArgs)
	}
}

var functions = map[string]function{
	"abs": {1, 1, func(a []Value) (Value, error) {
		if a[0].IsInt() {
			return intValue(new(big.Int).Abs(a[0].Int)), nil
		}
		return floatValue(math.Abs(a[0].Float)), nil
	}},
	"max": {1, -1, func(a []Value) (Value, error) {
		best := a[0]
		for _, v := range a[1:] {
			if compare(v, best) > 0 {
				best = v
			}
		}
		return best, nil
	}},
	"min": {1, -1, func(a []Value) (Value, error) {
		best := a[0]
		for _, v := range a[1:] {
			if compare(v, best) < 0 {
				best = v
			}
		}
		return best, nil
	}},
	"pow": {2, 2, func(a []Value) (Value, error) { return pow(a[0], a[1]) }},
	"round": {1, 2, func(a []Value) (Value, error) {
		if len(a) == 1 {
			if a[0].IsInt() {
				return a[0], nil
			}
			f := math.RoundToEven(a[0].Float)
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return Value{}, errors.New("cannot convert float to integer")
			}
			n, _ := new(big.Float).SetFloat64(f).Int(nil)
			return intValue(n), nil
		}
		if !a[1].IsInt() {
			return Value{}, errors.New("round() digits must be an integer")
		}
		if !a[1].Int.IsInt64() {
			return Value{}, errTooLarge
		}
		digits := a[1].Int.Int64()
		if a[0].IsInt() {
			if digits >= 0 {
				return a[0], nil
			}
			if -digits > maxIntBits {
				return smallInt(0), nil
			}
			q := new(big.Int).Exp(big.NewInt(10), big.NewInt(-digits), nil)
			return intValue(roundToMultiple(a[0].Int, q)), nil
		}
		if digits > 308 {
			return a[0], nil
		}
		scale := math.Pow(10, float64(digits))
		return floatValue(math.RoundToEven(a[0].Float*scale) / scale), nil
	}},
	"sum": {0, -1, func(a []Value) (Value, error) {
		out := smallInt(0)
		for _, v := range a {
			var err error
			if out, err = add(out, v); err != nil {
				return Value{}, err
			}
		}
		return out, nil
	}},
	"sqrt": {1, 1, func(a []Value) (Value, error) {
		f, err := a[0].toFloat()
		if err != nil {
			return Value{}, err
		}
		if f < 0 {
			return Value{}, errMathDomain
		}
		return floatValue(math.Sqrt(f)), nil
	}},
}

// floatOp applies op in float arithmetic after converting both operands.
func floatOp(a, b Value, op func(x, y float64) float64) (Value, error) {
	x, err := a.toFloat()
	if err != nil {
		return Value{}, err
	}
	y, err := b.toFloat()
	if err != nil {
		return Value{}, err
	}
	return floatValue(op(x, y)), nil
}

func add(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return intValue(new(big.Int).Add(a.Int, b.Int)), nil
	}
	return floatOp(a, b, func(x, y float64) float64 { return x + y })
}

func sub(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return intValue(new(big.Int).Sub(a.Int, b.Int)), nil
	}
	return floatOp(a, b, func(x, y float64) float64 { return x - y })
}

func mul(a, b Value) (Value, error) {
	if a.IsInt() && b.IsInt() {
		return intValue(new(big.Int).Mul(a.Int, b.Int)), nil
	}
	return floatOp(a, b, func(x, y float64) float64 { return x * y })
}

// div is true division; the result is always a float.
func div(a, b Value) (Value, error) {
	if b.isZero() {
		return Value{}, errDivisionByZero
	}
	if a.IsInt() && b.IsInt() {
		f, _ := new(big.Rat).SetFrac(a.Int, b.Int).Float64()
		if math.IsInf(f, 0) {
			return Value{}, errIntTooLarge
		}
		return floatValue(f), nil
	}
	return floatOp(a, b, func(x, y float64) float64 { return x / y })
}

func neg(v Value) Value {
	if v.IsInt() {
		return intValue(new(big.Int).Neg(v.Int))
	}
	return floatValue(-v.Float)
}

func compare(a, b Value) int {
	if a.IsInt() && b.IsInt() {
		return a.Int.Cmp(b.Int)
	}
	x, y := a.approx(), b.approx()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// pow keeps integer powers exact. A negative integer exponent or any float
// operand gives a float.
func pow(base, exp Value) (Value, error) {
	if base.isZero() && exp.isNegative() {
		return Value{}, errDivisionByZero
	}
	if base.IsInt() && exp.IsInt() && exp.Int.Sign() >= 0 {
		if base.Int.CmpAbs(big.NewInt(1)) > 0 {
			if !exp.Int.IsInt64() || exp.Int.Int64() > maxIntBits || int64(base.Int.BitLen()-1)*exp.Int.Int64() > maxIntBits {
				return Value{}, errTooLarge
			}
		}
		return intValue(new(big.Int).Exp(base.Int, exp.Int, nil)), nil
	}

	b, err := base.toFloat()
	if err != nil {
		return Value{}, err
	}
	e, err := exp.toFloat()
	if err != nil {
		return Value{}, err
	}
	if b < 0 && e != math.Trunc(e) {
		return Value{}, errMathDomain
	}
	r := math.Pow(b, e)
	if math.IsInf(r, 0) && !math.IsInf(b, 0) && !math.IsInf(e, 0) {
		return Value{}, errOutOfRange
	}
	return floatValue(r), nil
}

// roundToMultiple rounds x to the nearest multiple of q, ties to even.
func roundToMultiple(x, q *big.Int) *big.Int {
	abs := new(big.Int).Abs(x)
	quo, rem := new(big.Int).QuoRem(abs, q, new(big.Int))
	switch c := new(big.Int).Lsh(rem, 1).Cmp(q); {
	case c > 0, c == 0 && quo.Bit(0) == 1:
		quo.Add(quo, big.NewInt(1))
	}
	out := quo.Mul(quo, q)
	if x.Sign() < 0 {
		out.Neg(out)
	}
	return out
}
