package core

import "github.com/shopspring/decimal"

// Rand is the randomness fragment sizes are drawn from.
type Rand interface {
	Float64() float64
}

// Split breaks amount into at most partCount fragments whose decimal sum
// equals amount exactly. Each round draws a point uniformly over the
// remaining value, rounds it up to the smallest unit, peels off the smaller
// side and keeps subdividing the larger one. Always continuing with the
// larger side skews the output toward several small fragments plus one
// larger remainder.
//
// The loop stops early once the remainder is at or below SmallestUnit, so
// tiny amounts come back as a single fragment regardless of partCount.
func Split(rng Rand, amount decimal.Decimal, partCount int) ([]decimal.Decimal, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	remaining := amount
	parts := make([]decimal.Decimal, 0, partCount)

	for i := 0; i < partCount-1; i++ {
		if remaining.LessThanOrEqual(SmallestUnit) {
			break
		}

		d := remaining.InexactFloat64() * rng.Float64()
		candidate := decimal.NewFromFloat(d).RoundCeil(2)
		other := remaining.Sub(candidate)

		if candidate.LessThan(other) {
			parts = append(parts, candidate)
			remaining = other
		} else {
			parts = append(parts, other)
			remaining = candidate
		}
	}

	return append(parts, remaining), nil
}
