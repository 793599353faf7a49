package core

import "github.com/shopspring/decimal"

// HouseAddress is the mixing service's own payment-network address, the
// source of every payout fragment.
const HouseAddress = "JOBCOINHOUSEADDRESS"

var (
	// SmallestUnit is the indivisible payout unit; a remainder at or below
	// it is never split further.
	SmallestUnit = decimal.NewFromFloat(0.01)
)
