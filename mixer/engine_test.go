package mixer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinfold/mixer/core"
	"github.com/coinfold/mixer/store/memstore"
)

type transferCall struct {
	from   string
	to     string
	amount decimal.Decimal
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []transferCall
	fail  bool
}

func (g *fakeGateway) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, transferCall{from: from, to: to, amount: amount})
	if g.fail {
		return errors.New("gateway unavailable")
	}
	return nil
}

func (g *fakeGateway) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (g *fakeGateway) snapshot() []transferCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	calls := make([]transferCall, len(g.calls))
	copy(calls, g.calls)
	return calls
}

type testFixture struct {
	engine   *Engine
	registry *memstore.DepositRegistry
	statuses *memstore.RequestStatusStore
	gateway  *fakeGateway
}

func newFixture(t *testing.T, cfg Config, gateway *fakeGateway, opts ...Option) *testFixture {
	t.Helper()

	registry := memstore.NewDepositRegistry()
	statuses := memstore.NewRequestStatusStore()

	opts = append([]Option{WithRandSeed(1)}, opts...)
	engine, err := NewEngine(cfg, registry, statuses, gateway, zerolog.Nop(), opts...)
	require.NoError(t, err)

	return &testFixture{
		engine:   engine,
		registry: registry,
		statuses: statuses,
		gateway:  gateway,
	}
}

func fastConfig() Config {
	return Config{
		MinParts:    2,
		MaxParts:    3,
		MinInterval: time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "inverted parts", cfg: Config{MinParts: 10, MaxParts: 3}},
		{name: "inverted intervals", cfg: Config{MinInterval: time.Minute, MaxInterval: time.Second}},
		{name: "zero min parts", cfg: Config{MinParts: -1, MaxParts: 5}},
		{name: "negative workers", cfg: Config{WorkerPoolSize: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg, memstore.NewDepositRegistry(), memstore.NewRequestStatusStore(),
				&fakeGateway{}, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, fastConfig(), &fakeGateway{})
	require.NoError(t, fx.registry.Register(ctx, "deposit-1", []string{"A"}))

	for _, amount := range []string{"abc", "0", "-5"} {
		_, err := fx.engine.Submit(ctx, "deposit-1", amount)
		assert.ErrorIs(t, err, core.ErrInvalidAmount, "amount %s", amount)
	}

	_, err := fx.engine.Submit(ctx, "never-registered", "10")
	assert.ErrorIs(t, err, core.ErrUnknownDeposit)

	// Nothing reached the queue or the gateway.
	assert.Equal(t, 0, fx.engine.queue.Len())
	assert.Empty(t, fx.gateway.snapshot())
}

func TestStatusLookup(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, fastConfig(), &fakeGateway{})
	require.NoError(t, fx.registry.Register(ctx, "deposit-1", []string{"A"}))

	_, err := fx.engine.StatusOf(ctx, "no-such-request")
	assert.ErrorIs(t, err, core.ErrUnknownRequest)

	// Engine not started: the status is visible before any payout runs.
	requestId, err := fx.engine.Submit(ctx, "deposit-1", "25")
	require.NoError(t, err)

	status, err := fx.engine.StatusOf(ctx, requestId)
	require.NoError(t, err)
	assert.Equal(t, core.StatusIncomplete, status)
}

func TestMixingScenario(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	fx := newFixture(t, Config{
		MinParts:    14,
		MaxParts:    15,
		MinInterval: time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
	}, gateway)
	require.NoError(t, fx.registry.Register(ctx, "deposit-1", []string{"A", "B"}))

	fx.engine.Start()
	defer fx.engine.Stop()

	requestId, err := fx.engine.Submit(ctx, "deposit-1", "100")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := fx.engine.StatusOf(ctx, requestId)
		return err == nil && status == core.StatusComplete
	}, 15*time.Second, 5*time.Millisecond)

	calls := gateway.snapshot()
	require.Len(t, calls, 14)

	sum := decimal.Zero
	for _, call := range calls {
		assert.Equal(t, core.HouseAddress, call.from)
		assert.Contains(t, []string{"A", "B"}, call.to)
		sum = sum.Add(call.amount)
	}
	assert.Equal(t, "100", sum.String())
}

func TestRetryNeverMutatesFragments(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{fail: true}
	fx := newFixture(t, fastConfig(), gateway)
	require.NoError(t, fx.registry.Register(ctx, "deposit-1", []string{"A"}))

	fx.engine.Start()
	defer fx.engine.Stop()

	requestId, err := fx.engine.Submit(ctx, "deposit-1", "50")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(gateway.snapshot()) >= 5
	}, 15*time.Second, 5*time.Millisecond)

	status, err := fx.engine.StatusOf(ctx, requestId)
	require.NoError(t, err)
	assert.Equal(t, core.StatusIncomplete, status)

	// Every attempt retried the same front fragment: nothing was popped,
	// nothing duplicated.
	calls := gateway.snapshot()
	first := calls[0].amount
	for _, call := range calls {
		assert.True(t, call.amount.Equal(first), "expected %s, got %s", first, call.amount)
	}
}

func TestPayoutWaitsForArmedDelay(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	gateway := &fakeGateway{}
	fx := newFixture(t, Config{
		MinParts:    2,
		MaxParts:    3,
		MinInterval: time.Hour,
		MaxInterval: 2 * time.Hour,
	}, gateway, WithClock(mock))
	require.NoError(t, fx.registry.Register(ctx, "deposit-1", []string{"A"}))

	fx.engine.Start()
	defer fx.engine.Stop()

	requestId, err := fx.engine.Submit(ctx, "deposit-1", "10")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, gateway.snapshot(), "payout ran before its delay elapsed")

	status, err := fx.engine.StatusOf(ctx, requestId)
	require.NoError(t, err)
	assert.Equal(t, core.StatusIncomplete, status)

	require.Eventually(t, func() bool {
		mock.Add(3 * time.Hour)
		return len(gateway.snapshot()) > 0
	}, 15*time.Second, 5*time.Millisecond)
}
