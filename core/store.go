package core

import "context"

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

type (
	// DepositRegistry maps a deposit address to the payout addresses its
	// owner registered. Entries are written once by the registration flow
	// and read-only from the mixing subsystem's perspective.
	DepositRegistry interface {
		Register(ctx context.Context, depositAddress string, payoutAddresses []string) error
		Lookup(ctx context.Context, depositAddress string) ([]string, bool, error)
		Contains(ctx context.Context, depositAddress string) (bool, error)
	}

	// RequestStatusStore tracks per-request completion. Each key has a
	// single logical writer (the owning task), so plain last-write-wins
	// puts suffice; Get signals absence distinctly from incomplete.
	RequestStatusStore interface {
		Put(ctx context.Context, requestId string, status Status) error
		Get(ctx context.Context, requestId string) (Status, bool, error)
		Contains(ctx context.Context, requestId string) (bool, error)
	}
)
