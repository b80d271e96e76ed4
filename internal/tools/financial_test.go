package tools

import (
	"math"
	"testing"
)

func TestCalculateAmortizationMonthlyPayment(t *testing.T) {
	_, payment, err := CalculateAmortization(100000, 0.05, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := payment - 1060.66; diff > 0.01 || diff < -0.01 {
		t.Fatalf("payment = %.4f, want 1060.66 +/- 0.01", payment)
	}
}

func TestCalculateAmortizationValidatesInputs(t *testing.T) {
	if _, _, err := CalculateAmortization(-1, 0.05, 10); err == nil {
		t.Fatalf("expected error for non-positive principal")
	}
	if _, _, err := CalculateAmortization(1000, 0, 10); err == nil {
		t.Fatalf("expected error for zero rate")
	}
	if _, _, err := CalculateAmortization(1000, 0.05, 0); err == nil {
		t.Fatalf("expected error for zero term")
	}
	if _, _, err := CalculateAmortization(1000, 0.05, 51); err == nil {
		t.Fatalf("expected error for term over 50 years")
	}
}

func TestCalculateAmortizationFinalBalanceIsZero(t *testing.T) {
	rows, _, err := CalculateAmortization(50000, 0.06, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := rows[len(rows)-1]
	if last.Balance != 0 {
		t.Fatalf("final balance = %.6f, want 0", last.Balance)
	}
}

func TestCalculateIRRKnownCashflows(t *testing.T) {
	rate, err := CalculateIRR([]float64{-1000, 500, 500, 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate <= 0 || rate > 1 {
		t.Fatalf("IRR = %.6f, expected a moderate positive rate", rate)
	}
}

func TestParseCashflows(t *testing.T) {
	cfs, err := ParseCashflows("-1000, 300, 400, 500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{-1000, 300, 400, 500}
	if len(cfs) != len(want) {
		t.Fatalf("len(cfs) = %d, want %d", len(cfs), len(want))
	}
	for i := range want {
		if cfs[i] != want[i] {
			t.Fatalf("cfs[%d] = %v, want %v", i, cfs[i], want[i])
		}
	}
}

func TestCalculateBondPriceAtParYieldsFaceValue(t *testing.T) {
	price := CalculateBondPrice(1000, 0.05, 0.05, 10, 2)
	if diff := price - 1000; diff > 0.5 || diff < -0.5 {
		t.Fatalf("price = %.4f, want ~1000 when yield equals coupon rate", price)
	}
}

func TestCalculateZeroCouponBondPrice(t *testing.T) {
	price := CalculateZeroCouponBondPrice(1000, 0.05, 10)
	want := 1000.0 / 1.6288946267
	if diff := price - want; diff > 0.5 || diff < -0.5 {
		t.Fatalf("price = %.4f, want ~%.4f", price, want)
	}
}

func TestCalculateBondDurationLessThanMaturityForCouponBond(t *testing.T) {
	d := CalculateBondDuration(1000, 0.05, 0.05, 10, 2)
	if d.Macaulay <= 0 || d.Macaulay >= 10 {
		t.Fatalf("Macaulay duration = %.4f, want in (0,10) for a 10y coupon bond", d.Macaulay)
	}
	if d.Modified >= d.Macaulay {
		t.Fatalf("modified duration %.4f should be less than Macaulay duration %.4f", d.Modified, d.Macaulay)
	}
}

func TestCalculateOptionPriceCallPutParity(t *testing.T) {
	spot, strike, years, r, sigma := 100.0, 100.0, 1.0, 0.05, 0.2
	call := CalculateOptionPrice(spot, strike, years, r, sigma, true)
	put := CalculateOptionPrice(spot, strike, years, r, sigma, false)

	lhs := call.Price - put.Price
	rhs := spot - strike*math.Exp(-r*years)
	if diff := lhs - rhs; diff > 0.05 || diff < -0.05 {
		t.Fatalf("call-put parity violated: call-put=%.4f, spot-strike*e^-rT=%.4f", lhs, rhs)
	}
}

func TestCalculateImpliedVolatilityRecoversInput(t *testing.T) {
	spot, strike, years, r, sigma := 100.0, 100.0, 1.0, 0.05, 0.25
	g := CalculateOptionPrice(spot, strike, years, r, sigma, true)

	iv, err := CalculateImpliedVolatility(g.Price, spot, strike, years, r, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := iv - sigma; diff > 0.01 || diff < -0.01 {
		t.Fatalf("implied vol = %.4f, want ~%.4f", iv, sigma)
	}
}
