package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentGateway performs funds movement on the payment network. Any failed
// Transfer, including ambiguous ones where the transfer may in fact have
// landed remotely, comes back as a plain error; callers own the retry
// policy.
type PaymentGateway interface {
	Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
}
