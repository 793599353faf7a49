package mixer

import (
	"context"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/coinfold/mixer/core"
)

const (
	defaultMinParts    = 3
	defaultMaxParts    = 10
	defaultMinInterval = time.Second
	defaultMaxInterval = 20 * time.Second
	defaultWorkers     = 2
)

// Config carries the engine tunables. Zero values fall back to defaults.
type Config struct {
	// MinParts and MaxParts bound the random fragment-count choice;
	// MaxParts is exclusive.
	MinParts int
	MaxParts int

	// MinInterval and MaxInterval bound the random delay before each
	// payout attempt; MaxInterval is exclusive.
	MinInterval time.Duration
	MaxInterval time.Duration

	// WorkerPoolSize bounds how many payout attempts across all in-flight
	// requests execute at once. It does not bound how many tasks may be
	// waiting on timers.
	WorkerPoolSize int

	// HouseAddress is the address fragments are paid out from.
	HouseAddress string
}

func (c Config) withDefaults() Config {
	if c.MinParts == 0 {
		c.MinParts = defaultMinParts
	}
	if c.MaxParts == 0 {
		c.MaxParts = defaultMaxParts
	}
	if c.MinInterval == 0 {
		c.MinInterval = defaultMinInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = defaultMaxInterval
	}
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = defaultWorkers
	}
	if c.HouseAddress == "" {
		c.HouseAddress = core.HouseAddress
	}
	return c
}

func (c Config) validate() error {
	if c.MinParts < 1 {
		return errors.New("minParts must be at least 1")
	}
	if c.MaxParts <= c.MinParts {
		return errors.New("maxParts must be greater than minParts")
	}
	if c.MinInterval < 0 {
		return errors.New("minInterval must not be negative")
	}
	if c.MaxInterval <= c.MinInterval {
		return errors.New("maxInterval must be greater than minInterval")
	}
	if c.WorkerPoolSize < 1 {
		return errors.New("workerPoolSize must be at least 1")
	}
	return nil
}

// Engine accepts mixing requests, fragments them and pays the fragments out
// over randomized delays. Submission is synchronous; scheduling and payouts
// happen on the engine's own goroutines after Start.
type Engine struct {
	cfg Config

	registry core.DepositRegistry
	statuses core.RequestStatusStore
	gateway  core.PaymentGateway
	log      core.Log

	clk clock.Clock
	rng *lockedRand

	queue *taskQueue
	ready chan *core.Task

	quit chan struct{}
	done chan struct{}
}

type Option func(*Engine)

func WithClock(clk clock.Clock) Option {
	return func(e *Engine) {
		e.clk = clk
	}
}

// WithRandSeed pins the randomness so fragment sizes, part counts, delays
// and address choices become reproducible.
func WithRandSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = newLockedRand(seed)
	}
}

func NewEngine(cfg Config, registry core.DepositRegistry, statuses core.RequestStatusStore,
	gateway core.PaymentGateway, log core.Log, opts ...Option) (*Engine, error) {

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		registry: registry,
		statuses: statuses,
		gateway:  gateway,
		log:      log,
		clk:      clock.New(),
		rng:      newLockedRand(cryptoSeed()),
		queue:    newTaskQueue(),
		ready:    make(chan *core.Task),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start spins up the scheduling loop and the payout worker pool.
func (e *Engine) Start() {
	for i := 0; i < e.cfg.WorkerPoolSize; i++ {
		go e.worker()
	}
	go func() {
		defer close(e.done)
		e.schedulerLoop()
	}()
}

// Stop shuts the scheduler down. In-flight requests are abandoned: there is
// no cancellation path for individual tasks, only process shutdown.
func (e *Engine) Stop() {
	close(e.quit)
	e.queue.Close()
	<-e.done
}

// Submit validates and fragments the request, registers its status as
// incomplete and enqueues the mixing task. It returns the request id without
// waiting for any payout.
func (e *Engine) Submit(ctx context.Context, depositAddress, amount string) (string, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return "", core.ErrInvalidAmount
	}

	partCount := e.cfg.MinParts + e.rng.Intn(e.cfg.MaxParts-e.cfg.MinParts)
	quantities, err := core.Split(e.rng, amt, partCount)
	if err != nil {
		return "", err
	}

	addresses, ok, err := e.registry.Lookup(ctx, depositAddress)
	if err != nil {
		return "", errors.Wrap(err, "registry lookup")
	}
	if !ok || len(addresses) == 0 {
		return "", core.ErrUnknownDeposit
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "generate request id")
	}
	requestId := id.String()

	// Status exists before any payout attempt can run.
	if err := e.statuses.Put(ctx, requestId, core.StatusIncomplete); err != nil {
		return "", errors.Wrap(err, "register request status")
	}

	e.queue.Push(core.NewTask(requestId, quantities, addresses))

	e.log.Info().
		Str("requestId", requestId).
		Str("depositAddress", depositAddress).
		Str("amount", amt.String()).
		Int("fragments", len(quantities)).
		Msg("mixing request accepted")

	return requestId, nil
}

// StatusOf reports whether the request has finished paying out.
func (e *Engine) StatusOf(ctx context.Context, requestId string) (core.Status, error) {
	status, ok, err := e.statuses.Get(ctx, requestId)
	if err != nil {
		return "", errors.Wrap(err, "status lookup")
	}
	if !ok {
		return "", core.ErrUnknownRequest
	}
	return status, nil
}

// schedulerLoop is the single dedicated control goroutine: dequeue, draw a
// random delay, arm a one-shot timer. It never inspects task content and
// never blocks on the timer firing.
func (e *Engine) schedulerLoop() {
	for {
		task, ok := e.queue.Take()
		if !ok {
			return
		}

		delay := e.randDelay()
		task.State = core.TaskArmed

		e.log.Debug().
			Str("requestId", task.RequestId).
			Dur("delay", delay).
			Msg("payout timer armed")

		e.clk.AfterFunc(delay, func() {
			select {
			case e.ready <- task:
			case <-e.quit:
			}
		})
	}
}

func (e *Engine) worker() {
	for {
		select {
		case task := <-e.ready:
			e.execute(task)
		case <-e.quit:
			return
		}
	}
}

// execute is one payout attempt: peek the front fragment, pay it to one
// randomly chosen address from the task's snapshot, then commit and requeue
// or complete on success, or requeue unchanged on any failure. Failures
// retry indefinitely and are never surfaced to callers.
func (e *Engine) execute(task *core.Task) {
	task.State = core.TaskExecuting

	quantity, ok := task.Peek()
	if !ok {
		// Transition rules keep finished tasks out of the queue; guard
		// anyway.
		return
	}

	toAddress := task.Address(e.rng.Intn(task.AddressCount()))

	e.log.Info().
		Str("requestId", task.RequestId).
		Str("amount", quantity.String()).
		Str("toAddress", toAddress).
		Msg("sending fragment from house address")

	if err := e.gateway.Transfer(context.Background(), e.cfg.HouseAddress, toAddress, quantity); err != nil {
		e.log.Warn().
			Err(err).
			Str("requestId", task.RequestId).
			Msg("payout attempt failed, requeueing")
		task.State = core.TaskRequeued
		e.queue.Push(task)
		return
	}

	// The fragment is removed only after the gateway confirmed the
	// transfer.
	task.Commit()

	if task.Remaining() == 0 {
		task.State = core.TaskComplete
		if err := e.statuses.Put(context.Background(), task.RequestId, core.StatusComplete); err != nil {
			e.log.Error().
				Err(err).
				Str("requestId", task.RequestId).
				Msg("marking request complete")
			return
		}
		e.log.Info().
			Str("requestId", task.RequestId).
			Msg("request has completed mixing")
		return
	}

	task.State = core.TaskRequeued
	e.queue.Push(task)
}

func (e *Engine) randDelay() time.Duration {
	spread := int64(e.cfg.MaxInterval - e.cfg.MinInterval)
	return e.cfg.MinInterval + time.Duration(e.rng.Int63n(spread))
}
