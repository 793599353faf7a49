package core

import "github.com/pkg/errors"

var (
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrUnknownDeposit = errors.New("deposit address is not registered")
	ErrUnknownRequest = errors.New("request id is not recognized")
	ErrBadPayload     = errors.New("malformed payload")
)

// GatewayStatus is implemented by payment-gateway errors that carry an
// upstream HTTP status.
type GatewayStatus interface {
	GatewayStatus() int
}

// StatusCode maps an error to the HTTP class the API reports it with.
func StatusCode(err error) int {
	cause := errors.Cause(err)
	if gw, ok := cause.(GatewayStatus); ok {
		return gw.GatewayStatus()
	}
	switch cause {
	case ErrInvalidAmount, ErrUnknownDeposit, ErrUnknownRequest:
		return 422
	case ErrBadPayload:
		return 400
	default:
		return 500
	}
}
