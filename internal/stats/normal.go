// Package stats implements the parametric probability model used to price
// over/under lines from historical stat series. Everything in this package is
// pure and CPU-only.
package stats

import "math"

// Zelen & Severo rational polynomial coefficients for the standard normal
// CDF (Abramowitz & Stegun 26.2.17). Absolute error is below 7.5e-8, which
// is more than enough resolution for an acceptance band two points wide.
const (
	cdfT  = 0.2316419
	cdfB1 = 0.319381530
	cdfB2 = -0.356563782
	cdfB3 = 1.781477937
	cdfB4 = -1.821255978
	cdfB5 = 1.330274429
)

var invSqrt2Pi = 1.0 / math.Sqrt(2.0*math.Pi)

// Phi evaluates the standard normal CDF at z.
func Phi(z float64) float64 {
	if math.IsNaN(z) {
		return math.NaN()
	}
	if z < 0 {
		return 1.0 - Phi(-z)
	}
	t := 1.0 / (1.0 + cdfT*z)
	poly := t * (cdfB1 + t*(cdfB2+t*(cdfB3+t*(cdfB4+t*cdfB5))))
	pdf := invSqrt2Pi * math.Exp(-0.5*z*z)
	return 1.0 - pdf*poly
}
