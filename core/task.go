package core

import "github.com/shopspring/decimal"

type TaskState uint8

const (
	TaskWaiting TaskState = iota
	TaskArmed
	TaskExecuting
	TaskRequeued
	TaskComplete
)

func (s TaskState) String() string {
	switch s {
	case TaskWaiting:
		return "waiting"
	case TaskArmed:
		return "armed"
	case TaskExecuting:
		return "executing"
	case TaskRequeued:
		return "requeued"
	case TaskComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Task is the retryable unit of work for one in-flight mixing request. It is
// owned by the engine's queue and timer machinery and handed off by move
// between queue, timer and worker: at most one execution is outstanding at a
// time, so its fields need no locking. Sum of remaining fragments plus all
// committed fragments equals the original request amount at every point.
type Task struct {
	RequestId string
	State     TaskState

	remaining []decimal.Decimal
	addresses []string
}

// NewTask snapshots the fragment list and the owned payout addresses. Later
// registry mutations must not affect an in-flight task, so both are copied.
func NewTask(requestId string, quantities []decimal.Decimal, payoutAddresses []string) *Task {
	remaining := make([]decimal.Decimal, len(quantities))
	copy(remaining, quantities)
	addresses := make([]string, len(payoutAddresses))
	copy(addresses, payoutAddresses)

	return &Task{
		RequestId: requestId,
		State:     TaskWaiting,
		remaining: remaining,
		addresses: addresses,
	}
}

// Peek returns the next fragment without committing it.
func (t *Task) Peek() (decimal.Decimal, bool) {
	if len(t.remaining) == 0 {
		return decimal.Zero, false
	}
	return t.remaining[0], true
}

// Commit permanently removes the front fragment after a successful payout.
func (t *Task) Commit() {
	t.remaining = t.remaining[1:]
}

func (t *Task) Remaining() int { return len(t.remaining) }

func (t *Task) Address(i int) string { return t.addresses[i] }

func (t *Task) AddressCount() int { return len(t.addresses) }
