package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ashwinyue/next-ai/internal/apperr"
)

// AmortizationInput is the schema-inferred parameter struct for
// calculateAmortization.
type AmortizationInput struct {
	Principal  float64 `json:"principal" jsonschema:"description=loan principal, > 0"`
	AnnualRate float64 `json:"annualRate" jsonschema:"description=annual interest rate as a fraction, 0 < r <= 1"`
	TermYears  float64 `json:"termYears" jsonschema:"description=loan term in years, 1 <= years <= 50"`
}

// AmortizationRow is one row of the equal-instalment schedule.
type AmortizationRow struct {
	Period    int
	Payment   float64
	Principal float64
	Interest  float64
	Balance   float64
}

// CalculateAmortization returns the equal-instalment schedule using
// M = P*r(1+r)^n / ((1+r)^n - 1), r = annualRate/12, n = termYears*12.
func CalculateAmortization(principal, annualRate, termYears float64) ([]AmortizationRow, float64, error) {
	if principal <= 0 {
		return nil, 0, apperr.New(apperr.InvalidInput, "principal must be > 0")
	}
	if annualRate <= 0 || annualRate > 1 {
		return nil, 0, apperr.New(apperr.InvalidInput, "annualRate must be in (0,1]")
	}
	if termYears < 1 || termYears > 50 {
		return nil, 0, apperr.New(apperr.InvalidInput, "termYears must be in [1,50]")
	}

	r := annualRate / 12
	n := int(termYears * 12)
	factor := math.Pow(1+r, float64(n))
	payment := principal * r * factor / (factor - 1)

	rows := make([]AmortizationRow, 0, n)
	balance := principal
	for period := 1; period <= n; period++ {
		interest := balance * r
		principalPortion := payment - interest
		balance -= principalPortion
		if period == n {
			// absorb rounding drift on the final row
			principalPortion += balance
			balance = 0
		}
		rows = append(rows, AmortizationRow{
			Period:    period,
			Payment:   payment,
			Principal: principalPortion,
			Interest:  interest,
			Balance:   balance,
		})
	}
	return rows, payment, nil
}

// FormatAmortization renders the schedule the way the agent surfaces it in
// assistant text.
func FormatAmortization(rows []AmortizationRow, payment float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "每月还款: %.2f\n共 %d 期\n", payment, len(rows))
	for _, row := range rows {
		if row.Period <= 3 || row.Period == len(rows) {
			fmt.Fprintf(&b, "第%d期: 还款%.2f 本金%.2f 利息%.2f 余额%.2f\n",
				row.Period, row.Payment, row.Principal, row.Interest, row.Balance)
		}
	}
	return b.String()
}

const (
	newtonTolerance = 1e-10
	newtonMaxIter   = 1000
	newtonLowBound  = -0.99
	newtonHighBound = 10.0
)

// CalculateIRR finds the internal rate of return by Newton's method:
// initial guess 0.1, tolerance 1e-10, max 1000 iterations, bounded to
// [-0.99, 10.0].
func CalculateIRR(cashflows []float64) (float64, error) {
	rate := 0.1
	for i := 0; i < newtonMaxIter; i++ {
		npv := npvAt(cashflows, rate)
		if math.Abs(npv) < newtonTolerance {
			return rate, nil
		}
		deriv := npvDerivativeAt(cashflows, rate)
		if deriv == 0 {
			return 0, apperr.New(apperr.InvalidInput, "IRR derivative is zero, cannot converge")
		}
		rate -= npv / deriv
		if rate < newtonLowBound {
			rate = newtonLowBound
		}
		if rate > newtonHighBound {
			rate = newtonHighBound
		}
	}
	return 0, apperr.New(apperr.InvalidInput, "IRR did not converge")
}

func npvAt(cashflows []float64, rate float64) float64 {
	npv := 0.0
	for t, cf := range cashflows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

func npvDerivativeAt(cashflows []float64, rate float64) float64 {
	d := 0.0
	for t, cf := range cashflows {
		if t == 0 {
			continue
		}
		d += -float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return d
}

// ParseCashflows parses a CSV list of cashflows, e.g. "-1000,300,400,500".
func ParseCashflows(csv string) ([]float64, error) {
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, "invalid cashflow value", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// CalculateBondPrice sums discounted coupons plus the discounted face value.
func CalculateBondPrice(faceValue, couponRate, yield float64, years, frequency int) float64 {
	if frequency <= 0 {
		frequency = 2
	}
	periodRate := yield / float64(frequency)
	periodCoupon := faceValue * couponRate / float64(frequency)
	periods := years * frequency

	price := 0.0
	for t := 1; t <= periods; t++ {
		price += periodCoupon / math.Pow(1+periodRate, float64(t))
	}
	price += faceValue / math.Pow(1+periodRate, float64(periods))
	return price
}

// CalculateZeroCouponBondPrice is the degenerate case with no coupons.
func CalculateZeroCouponBondPrice(faceValue, yield float64, years int) float64 {
	return faceValue / math.Pow(1+yield, float64(years))
}

// CalculateYTM finds yield-to-maturity by Newton's method with a numerical
// derivative (delta 0.0001).
func CalculateYTM(price, faceValue, couponRate float64, years, frequency int) (float64, error) {
	const delta = 0.0001
	yield := couponRate
	for i := 0; i < newtonMaxIter; i++ {
		p := CalculateBondPrice(faceValue, couponRate, yield, years, frequency)
		diff := p - price
		if math.Abs(diff) < newtonTolerance {
			return yield, nil
		}
		pPlus := CalculateBondPrice(faceValue, couponRate, yield+delta, years, frequency)
		deriv := (pPlus - p) / delta
		if deriv == 0 {
			return 0, apperr.New(apperr.InvalidInput, "YTM derivative is zero, cannot converge")
		}
		yield -= diff / deriv
		if yield < newtonLowBound {
			yield = newtonLowBound
		}
		if yield > newtonHighBound {
			yield = newtonHighBound
		}
	}
	return 0, apperr.New(apperr.InvalidInput, "YTM did not converge")
}

// BondDuration reports a bond's Macaulay duration, modified duration, and
// convexity.
type BondDuration struct {
	Macaulay float64
	Modified float64
	Convexity float64
}

// CalculateBondDuration computes Macaulay duration (weighted-time-PV over
// price), modified duration, and convexity.
func CalculateBondDuration(faceValue, couponRate, yield float64, years, frequency int) BondDuration {
	if frequency <= 0 {
		frequency = 2
	}
	periodRate := yield / float64(frequency)
	periodCoupon := faceValue * couponRate / float64(frequency)
	periods := years * frequency

	price := CalculateBondPrice(faceValue, couponRate, yield, years, frequency)

	weightedTime := 0.0
	convexitySum := 0.0
	for t := 1; t <= periods; t++ {
		cf := periodCoupon
		if t == periods {
			cf += faceValue
		}
		pv := cf / math.Pow(1+periodRate, float64(t))
		timeInYears := float64(t) / float64(frequency)
		weightedTime += timeInYears * pv
		convexitySum += pv * float64(t) * float64(t+1)
	}

	macaulay := weightedTime / price
	modified := macaulay / (1 + periodRate)
	convexity := convexitySum / (price * math.Pow(1+periodRate, 2) * float64(frequency*frequency))

	return BondDuration{Macaulay: macaulay, Modified: modified, Convexity: convexity}
}

// OptionGreeks is the Black-Scholes price plus its sensitivities.
type OptionGreeks struct {
	Price float64
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	Rho   float64
}

// CalculateOptionPrice prices a European option via Black-Scholes and
// returns its Greeks. isCall selects call vs put.
func CalculateOptionPrice(spot, strike, tYears, riskFreeRate, sigma float64, isCall bool) OptionGreeks {
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*sigma*sigma)*tYears) / (sigma * math.Sqrt(tYears))
	d2 := d1 - sigma*math.Sqrt(tYears)

	discount := math.Exp(-riskFreeRate * tYears)

	var price, delta, rho float64
	if isCall {
		price = spot*normalCDF(d1) - strike*discount*normalCDF(d2)
		delta = normalCDF(d1)
		rho = strike * tYears * discount * normalCDF(d2) / 100
	} else {
		price = strike*discount*normalCDF(-d2) - spot*normalCDF(-d1)
		delta = normalCDF(d1) - 1
		rho = -strike * tYears * discount * normalCDF(-d2) / 100
	}

	gamma := normalPDF(d1) / (spot * sigma * math.Sqrt(tYears))
	vega := spot * normalPDF(d1) * math.Sqrt(tYears) / 100

	var theta float64
	term1 := -spot * normalPDF(d1) * sigma / (2 * math.Sqrt(tYears))
	if isCall {
		theta = (term1 - riskFreeRate*strike*discount*normalCDF(d2)) / 365
	} else {
		theta = (term1 + riskFreeRate*strike*discount*normalCDF(-d2)) / 365
	}

	return OptionGreeks{Price: price, Delta: delta, Gamma: gamma, Vega: vega, Theta: theta, Rho: rho}
}

// CalculateImpliedVolatility finds sigma such that Black-Scholes reproduces
// marketPrice, by Newton's method: initial guess 0.3, tolerance 1e-8, max
// 100 iterations, bounds [0.001, 5.0].
func CalculateImpliedVolatility(marketPrice, spot, strike, tYears, riskFreeRate float64, isCall bool) (float64, error) {
	const (
		tolerance = 1e-8
		maxIter   = 100
		lowBound  = 0.001
		highBound = 5.0
	)
	sigma := 0.3
	for i := 0; i < maxIter; i++ {
		g := CalculateOptionPrice(spot, strike, tYears, riskFreeRate, sigma, isCall)
		diff := g.Price - marketPrice
		if math.Abs(diff) < tolerance {
			return sigma, nil
		}
		vegaPerUnit := g.Vega * 100 // undo the /100 scaling used for reporting
		if vegaPerUnit == 0 {
			return 0, apperr.New(apperr.InvalidInput, "vega is zero, cannot converge")
		}
		sigma -= diff / vegaPerUnit
		if sigma < lowBound {
			sigma = lowBound
		}
		if sigma > highBound {
			sigma = highBound
		}
	}
	return 0, apperr.New(apperr.InvalidInput, "implied volatility did not converge")
}

// normalCDF approximates the standard normal CDF via the Abramowitz-Stegun
// approximation.
func normalCDF(x float64) float64 {
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt2

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}

func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
