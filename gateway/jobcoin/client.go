// Package jobcoin is the client for the Jobcoin payment network HTTP API.
package jobcoin

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/coinfold/mixer/core"
)

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{http: resty.New().SetBaseURL(baseURL)}
}

// APIError is a non-2xx reply from the Jobcoin API.
type APIError struct {
	StatusCode int
	RawBody    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jobcoin api: status=%d body=%s", e.StatusCode, e.RawBody)
}

func (e *APIError) GatewayStatus() int {
	return e.StatusCode
}

type balanceView struct {
	Balance decimal.Decimal `json:"balance"`
}

func (c *Client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var view balanceView
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&view).
		Get(fmt.Sprintf("/api/addresses/%s", address))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get balance")
	}
	if !resp.IsSuccess() {
		return decimal.Zero, &APIError{StatusCode: resp.StatusCode(), RawBody: resp.String()}
	}
	return view.Balance, nil
}

func (c *Client) Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fromAddress": fromAddress,
			"toAddress":   toAddress,
			"amount":      amount.String(),
		}).
		Post("/api/transactions")
	if err != nil {
		return errors.Wrap(err, "post transaction")
	}
	if !resp.IsSuccess() {
		return &APIError{StatusCode: resp.StatusCode(), RawBody: resp.String()}
	}
	return nil
}

var (
	_ core.PaymentGateway = (*Client)(nil)
	_ core.GatewayStatus  = (*APIError)(nil)
)
