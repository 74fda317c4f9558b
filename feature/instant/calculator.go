// Package instant computes calculator, unit-conversion, currency,
// dictionary, and world-time instant answers triggered directly off the
// query text rather than any engine's results.
package instant

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/privasearch/search/types"
)

type calcTokenKind int

const (
	calcNumber calcTokenKind = iota
	calcPlus
	calcMinus
	calcStar
	calcSlash
	calcCaret
	calcPercent
	calcLParen
	calcRParen
	calcEOF
)

type calcToken struct {
	kind calcTokenKind
	num  decimal.Decimal
}

// calcTokenize turns an arithmetic expression into tokens, recognizing
// both the ASCII and the × ÷ − Unicode operator variants.
func calcTokenize(s string) ([]calcToken, error) {
	var tokens []calcToken
	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+':
			tokens = append(tokens, calcToken{kind: calcPlus})
			i++
		case r == '-' || r == '−':
			tokens = append(tokens, calcToken{kind: calcMinus})
			i++
		case r == '*' || r == '×':
			tokens = append(tokens, calcToken{kind: calcStar})
			i++
		case r == '/' || r == '÷':
			tokens = append(tokens, calcToken{kind: calcSlash})
			i++
		case r == '^':
			tokens = append(tokens, calcToken{kind: calcCaret})
			i++
		case r == '%':
			tokens = append(tokens, calcToken{kind: calcPercent})
			i++
		case r == '(':
			tokens = append(tokens, calcToken{kind: calcLParen})
			i++
		case r == ')':
			tokens = append(tokens, calcToken{kind: calcRParen})
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			d, err := decimal.NewFromString(string(runes[start:i]))
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", string(runes[start:i]))
			}
			tokens = append(tokens, calcToken{kind: calcNumber, num: d})
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return append(tokens, calcToken{kind: calcEOF}), nil
}

// calcParser is a recursive-descent parser over the grammar
//
//	expr    -> term (('+' | '-') term)*
//	term    -> unary (('*' | '/' | '%') unary)*
//	unary   -> '-' unary | power
//	power   -> primary ('^' unary)?
//	primary -> NUMBER | '(' expr ')'
//
// '^' binds tighter than unary minus and is right-associative, matching
// the usual calculator convention (2^-2 = 0.25, 2^3^2 = 2^(3^2)).
type calcParser struct {
	tokens []calcToken
	pos    int
}

func (p *calcParser) peek() calcToken { return p.tokens[p.pos] }

func (p *calcParser) next() calcToken {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *calcParser) parseExpr() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Decimal{}, err
	}
	for {
		switch p.peek().kind {
		case calcPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return decimal.Decimal{}, err
			}
			left = left.Add(right)
		case calcMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return decimal.Decimal{}, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

func (p *calcParser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseUnary()
	if err != nil {
		return decimal.Decimal{}, err
	}
	for {
		switch p.peek().kind {
		case calcStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Decimal{}, err
			}
			left = left.Mul(right)
		case calcSlash:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Decimal{}, err
			}
			if right.IsZero() {
				return decimal.Decimal{}, fmt.Errorf("division by zero")
			}
			left = left.DivRound(right, 10).Truncate(10)
		case calcPercent:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Decimal{}, err
			}
			if right.IsZero() {
				return decimal.Decimal{}, fmt.Errorf("modulo by zero")
			}
			left = left.Mod(right)
		default:
			return left, nil
		}
	}
}

func (p *calcParser) parseUnary() (decimal.Decimal, error) {
	if p.peek().kind == calcMinus {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return v.Neg(), nil
	}
	return p.parsePower()
}

func (p *calcParser) parsePower() (decimal.Decimal, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return decimal.Decimal{}, err
	}
	if p.peek().kind != calcCaret {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return base.Pow(exp), nil
}

func (p *calcParser) parsePrimary() (decimal.Decimal, error) {
	switch t := p.next(); t.kind {
	case calcNumber:
		return t.num, nil
	case calcLParen:
		v, err := p.parseExpr()
		if err != nil {
			return decimal.Decimal{}, err
		}
		if p.peek().kind != calcRParen {
			return decimal.Decimal{}, fmt.Errorf("expected closing parenthesis")
		}
		p.next()
		return v, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected token")
	}
}

func calcNumberCount(tokens []calcToken) int {
	n := 0
	for _, t := range tokens {
		if t.kind == calcNumber {
			n++
		}
	}
	return n
}

// TryCalculate recognizes an arithmetic expression over +, -, *, /, ^, %,
// and parentheses ("5+3*2", "2^10", "(4+1)%3") and returns its result as
// exact decimal arithmetic, evaluated with the usual operator precedence.
// It returns ok=false for anything it doesn't recognize — a single bare
// number, invalid syntax, division or modulo by zero — rather than an
// error, since unrecognized input isn't a calculator query.
func TryCalculate(query string) (types.InstantAnswer, bool) {
	trimmed := strings.TrimSpace(query)
	tokens, err := calcTokenize(trimmed)
	if err != nil || calcNumberCount(tokens) < 2 {
		return types.InstantAnswer{}, false
	}
	p := &calcParser{tokens: tokens}
	result, err := p.parseExpr()
	if err != nil || p.peek().kind != calcEOF {
		return types.InstantAnswer{}, false
	}
	return types.InstantAnswer{
		Type:  "calculation",
		Query: query,
		Value: result.String(),
		Text:  fmt.Sprintf("%s = %s", trimmed, result.String()),
	}, true
}
