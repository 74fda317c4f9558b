package instant

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTryCalculateOperatorPrecedence(t *testing.T) {
	a, ok := TryCalculate("5+3*2")
	if !ok {
		t.Fatalf("expected 5+3*2 to be recognized as a calculation")
	}
	if a.Value != "11" {
		t.Fatalf("expected 11, got %v", a.Value)
	}
}

func TestTryCalculatePower(t *testing.T) {
	a, ok := TryCalculate("2^10")
	if !ok || a.Value != "1024" {
		t.Fatalf("expected 2^10 = 1024, got ok=%v value=%v", ok, a.Value)
	}
}

func TestTryCalculateModulo(t *testing.T) {
	a, ok := TryCalculate("10%3")
	if !ok || a.Value != "1" {
		t.Fatalf("expected 10%%3 = 1, got ok=%v value=%v", ok, a.Value)
	}
}

func TestTryCalculateParentheses(t *testing.T) {
	a, ok := TryCalculate("(5+3)*2")
	if !ok || a.Value != "16" {
		t.Fatalf("expected (5+3)*2 = 16, got ok=%v value=%v", ok, a.Value)
	}
}

func TestTryCalculateRightAssociativePower(t *testing.T) {
	a, ok := TryCalculate("2^3^2")
	if !ok || a.Value != "512" {
		t.Fatalf("expected 2^3^2 = 2^(3^2) = 512, got ok=%v value=%v", ok, a.Value)
	}
}

func TestTryCalculateDivisionByZeroIsNotRecognized(t *testing.T) {
	if _, ok := TryCalculate("5/0"); ok {
		t.Fatalf("expected division by zero to be rejected, not answered")
	}
}

func TestTryCalculateModuloByZeroIsNotRecognized(t *testing.T) {
	if _, ok := TryCalculate("5%0"); ok {
		t.Fatalf("expected modulo by zero to be rejected, not answered")
	}
}

func TestTryCalculateRejectsBareNumber(t *testing.T) {
	if _, ok := TryCalculate("42"); ok {
		t.Fatalf("expected a bare number to not be treated as a calculation")
	}
}

func TestTryCalculateRejectsNonArithmeticText(t *testing.T) {
	if _, ok := TryCalculate("golang tutorial"); ok {
		t.Fatalf("expected plain text to not be treated as a calculation")
	}
}

func TestTryCalculateUnaryMinus(t *testing.T) {
	a, ok := TryCalculate("-5+10")
	if !ok || a.Value != "5" {
		t.Fatalf("expected -5+10 = 5, got ok=%v value=%v", ok, a.Value)
	}
}

func TestTryCalculateUnicodeOperators(t *testing.T) {
	a, ok := TryCalculate("4×2÷2")
	if !ok {
		t.Fatalf("expected 4×2÷2 to be recognized as a calculation")
	}
	got, err := decimal.NewFromString(a.Value.(string))
	if err != nil {
		t.Fatalf("value %v is not a decimal: %v", a.Value, err)
	}
	if !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected 4×2÷2 = 4, got %v", a.Value)
	}
}
