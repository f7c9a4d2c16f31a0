package runner

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// idleYield is the small, cancellable pause taken after a poll that
// returned no records, so the driver doesn't busy-spin against an
// empty topic.
const idleYield = 20 * time.Millisecond

type lifecycleState int32

const (
	stateNew lifecycleState = iota
	stateConfigured
	stateRunning
	stateStopping
	stateStopped
)

// instanceCounter backs the "versioned logger" idea: every
// Runner gets a monotonic instance id baked into its log lines.
var instanceCounter atomic.Int64

// Runner is the consumer runner supervisor (C6). It owns the poll
// loop, the lifecycle state machine, and the fan-out to the other
// components. Zero value is not usable; construct with New.
type Runner[K, V any] struct {
	mu    sync.Mutex
	state atomic.Int32

	instanceID int64
	cfg        Config[K, V]

	broker    BrokerClient
	processor Processor[K, V]
	logger    Logger
	clock     Clock
	sleeper   Sleeper

	keyDeserialize   Deserializer[K]
	valueDeserialize Deserializer[V]

	pause        *pauseController
	commitEngine *commitEngine[K, V]
	invoker      *invoker[K, V]
	hooks        *hookBus[K, V]

	unitFactory func(ctx context.Context, unit ProcessUnit[K, V]) error
	metricsReg  *metrics

	// pendingUnits holds units from the current batch that have not
	// yet been attempted (including the one that triggered the most
	// recent pause). The driver retries them in place once a pause
	// resolves, instead of polling the broker for new data — the
	// broker has already advanced past these records, so losing this
	// slice would mean losing the records.
	pendingUnits []ProcessUnit[K, V]

	running atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	forceExitFn func()
}

// New constructs a Runner around a BrokerClient and a user Processor.
// Call Configure before Start.
func New[K, V any](broker BrokerClient, processor Processor[K, V], logger Logger) *Runner[K, V] {
	if logger == nil {
		logger = nopLogger{}
	}
	r := &Runner[K, V]{
		broker:      broker,
		processor:   processor,
		logger:      logger,
		clock:       systemClock{},
		sleeper:     systemSleeper{},
		instanceID:  instanceCounter.Add(1),
		forceExitFn: func() { os.Exit(1) },
	}
	r.hooks = newHookBus[K, V](logger)
	return r
}

// WithClock overrides the Clock, for deterministic pause/backoff
// tests. Must be called before Start.
func (r *Runner[K, V]) WithClock(c Clock) *Runner[K, V] {
	r.clock = c
	return r
}

// WithSleeper overrides the Sleeper, for tests that want to observe
// or shorten every delay the driver takes. Must be called before
// Start.
func (r *Runner[K, V]) WithSleeper(s Sleeper) *Runner[K, V] {
	r.sleeper = s
	return r
}

// WithUnitFactory overrides the per-unit commit action (the
// unit factory override point, letting tests
// substitute a failing commit without a real broker. Must be called
// before Start; the default wraps the commit engine.
func (r *Runner[K, V]) WithUnitFactory(fn func(ctx context.Context, unit ProcessUnit[K, V]) error) *Runner[K, V] {
	r.unitFactory = fn
	return r
}

// WithForceExitFunc overrides what ForceExit calls on a Fatal
// outcome. Defaults to os.Exit(1); tests substitute something
// observable instead of terminating the test binary.
func (r *Runner[K, V]) WithForceExitFunc(fn func()) *Runner[K, V] {
	r.forceExitFn = fn
	return r
}

// RegisterMetrics registers the runner's Prometheus instruments
// against reg. Optional; a runner with no registered metrics simply
// doesn't export any.
func (r *Runner[K, V]) RegisterMetrics(reg prometheus.Registerer) error {
	r.metricsReg = newMetrics()
	return r.metricsReg.Register(reg)
}

// Configure validates and stores cfg. It is
// safe to call multiple times before Start; it fails with
// *InvalidConfigError when a required field is missing or empty.
func (r *Runner[K, V]) Configure(cfg Config[K, V]) error {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lifecycleState(r.state.Load()) == stateStopped {
		return ErrRunnerStopped
	}
	r.cfg = cfg
	r.state.Store(int32(stateConfigured))
	return nil
}

// Start is an idempotent transition to Running. A call while
// already Running is a no-op. A call before Configure, or with an
// invalid configuration, fails with *InvalidConfigError and the
// instance moves straight to Stopped. A call on an already-Stopped
// instance fails with ErrRunnerStopped: Stopped is terminal for a
// given instance, it never transitions back to Running.
//
// Start itself only validates configuration synchronously; it
// launches the poll/process/commit loop on an internal goroutine and
// returns immediately, so running() observes false quickly on the
// validation failure path.
func (r *Runner[K, V]) Start(ctx context.Context) error {
	r.mu.Lock()

	switch lifecycleState(r.state.Load()) {
	case stateRunning:
		r.mu.Unlock()
		return nil
	case stateStopped:
		r.mu.Unlock()
		return ErrRunnerStopped
	case stateNew:
		r.mu.Unlock()
		err := &InvalidConfigError{Msg: "start called before configure"}
		r.logger.Errorf(ctx, "runner[%d] start failed: %v", r.instanceID, err)
		r.state.Store(int32(stateStopped))
		return err
	}

	cfg := r.cfg
	if err := cfg.validate(); err != nil {
		r.state.Store(int32(stateStopped))
		r.mu.Unlock()
		r.logger.Errorf(ctx, "runner[%d] start failed: %v", r.instanceID, err)
		return err
	}

	r.keyDeserialize = cfg.KeyDeserializer()
	r.valueDeserialize = cfg.ValueDeserializer()

	r.pause = newPauseController(cfg.PauseBase, cfg.PauseMax, r.clock)
	r.commitEngine = newCommitEngine[K, V](r.broker, cfg.CommitAttempts, r.sleeper, r.logger)
	if r.unitFactory == nil {
		r.unitFactory = r.commitEngine.commit
	}
	r.invoker = &invoker[K, V]{
		processor:         r.processor,
		delaySingleRecord: cfg.DelaySingleRecord,
		sleeper:           r.sleeper,
		policy:            cfg.OnUnknownHandlerFailure,
		log:               r.logger,
	}

	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.stopOnce = sync.Once{}

	r.state.Store(int32(stateRunning))
	r.running.Store(true)
	r.mu.Unlock()

	go r.driveLoop(ctx)
	return nil
}

// Stop cooperatively shuts the runner down: it returns once the
// driver has released the broker handle and the in-flight unit (if
// any) has been awaited or cancelled. A second call is a no-op.
func (r *Runner[K, V]) Stop() {
	r.mu.Lock()
	if lifecycleState(r.state.Load()) != stateRunning {
		r.mu.Unlock()
		return
	}
	stopCh := r.stopCh
	doneCh := r.doneCh
	r.mu.Unlock()

	r.stopOnce.Do(func() { close(stopCh) })
	<-doneCh
}

// Running reports whether the driver loop is currently active.
func (r *Runner[K, V]) Running() bool { return r.running.Load() }

// PausedHistory is the number of times the runner has entered a
// pause, ever.
func (r *Runner[K, V]) PausedHistory() int64 {
	if r.pause == nil {
		return 0
	}
	return r.pause.pausedHistoryCount()
}

// UnpausedHistory is the number of times the runner has resumed from
// a pause, ever.
func (r *Runner[K, V]) UnpausedHistory() int64 {
	if r.pause == nil {
		return 0
	}
	return r.pause.unpausedHistoryCount()
}

// PostCommitCount is the number of process units ever successfully
// committed.
func (r *Runner[K, V]) PostCommitCount() int64 {
	if r.commitEngine == nil {
		return 0
	}
	return r.commitEngine.committedCount()
}

func (r *Runner[K, V]) OnPrePoll(fn func())                             { r.hooks.onPrePoll(fn) }
func (r *Runner[K, V]) OnPostCommit(fn func(n int))                     { r.hooks.onPostCommit(fn) }
func (r *Runner[K, V]) OnPause(fn func(reason string, d time.Duration)) { r.hooks.onPause(fn) }
func (r *Runner[K, V]) OnResume(fn func())                              { r.hooks.onResume(fn) }
func (r *Runner[K, V]) OnFatal(fn func(err error))                      { r.hooks.onFatal(fn) }

// driveLoop is the single driver goroutine: every broker call in its
// body is confined here.
func (r *Runner[K, V]) driveLoop(ctx context.Context) {
	defer close(r.doneCh)
	defer r.running.Store(false)

	if err := r.broker.Subscribe(ctx, r.cfg.Topics); err != nil {
		r.fatal(ctx, err)
		return
	}

	for {
		select {
		case <-r.stopCh:
			r.shutdown()
			return
		case <-ctx.Done():
			r.shutdown()
			return
		default:
		}

		r.hooks.firePrePoll(ctx)

		now := r.clock.Now()
		snap := r.pause.snapshot()

		if snap.Paused && now.Before(snap.readyAt()) {
			if _, err := r.broker.Poll(ctx, 0); err != nil && ctx.Err() != nil {
				r.shutdown()
				return
			}
			if !r.sleeper.Sleep(ctx, idleYield) {
				r.shutdown()
				return
			}
			continue
		}

		if snap.Paused && r.pause.tryResume(now) {
			r.hooks.fireResume(ctx)
			if r.metricsReg != nil {
				r.metricsReg.pauseActive.WithLabelValues(r.cfg.GroupID).Set(0)
			}
		}

		if len(r.pendingUnits) > 0 {
			units := r.pendingUnits
			r.pendingUnits = nil
			if r.runUnits(ctx, units) {
				return
			}
			continue
		}

		raw, err := r.broker.Poll(ctx, r.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				r.shutdown()
				return
			}
			r.fatal(ctx, err)
			return
		}
		if r.metricsReg != nil {
			r.metricsReg.pollsTotal.WithLabelValues(r.cfg.GroupID).Inc()
			r.metricsReg.recordsPolled.WithLabelValues(r.cfg.GroupID).Add(float64(len(raw)))
		}

		if len(raw) == 0 {
			if !r.sleeper.Sleep(ctx, idleYield) {
				r.shutdown()
				return
			}
			continue
		}

		batch, err := r.buildBatch(raw)
		if err != nil {
			r.fatal(ctx, err)
			return
		}

		if r.cfg.DelayRecords > 0 {
			if !r.sleeper.Sleep(ctx, r.cfg.DelayRecords) {
				r.shutdown()
				return
			}
		}

		if r.runBatch(ctx, batch) {
			return
		}
	}
}

// runBatch dispatches one PollBatch into units and drives each
// through the invoker and commit engine. It returns true if the
// driver should exit (fatal or shutdown encountered mid-batch).
func (r *Runner[K, V]) runBatch(ctx context.Context, batch PollBatch[K, V]) (exit bool) {
	return r.runUnits(ctx, dispatch(batch, r.cfg.Strategy))
}

// runUnits drives a slice of ProcessUnits through the invoker and
// commit engine, in order. Invocation itself may run fanned out
// across a worker pool (see invokeUnits), but commit, pause, and
// fatal handling always walk the outcomes in the unit's original
// order, so a partition never commits out of order. If a unit comes
// back outcomeNeedForPause, it (and every unit after it) is stashed
// on r.pendingUnits for the driver to retry once the pause resolves,
// rather than being discarded — these records were already taken off
// the broker and will not be redelivered by a later Poll. Returns
// true if the driver should exit.
func (r *Runner[K, V]) runUnits(ctx context.Context, units []ProcessUnit[K, V]) (exit bool) {
	outcomes := r.invokeUnits(ctx, units)
	committed := 0

	for i, unit := range units {
		select {
		case <-r.stopCh:
			r.shutdown()
			return true
		case <-ctx.Done():
			r.shutdown()
			return true
		default:
		}

		out := outcomes[i]
		switch out.kind {
		case outcomeOK:
			if err := r.unitFactory(ctx, unit); err != nil {
				r.fatal(ctx, err)
				return true
			}
			committed++
			if r.metricsReg != nil {
				r.metricsReg.unitsCommitted.WithLabelValues(r.cfg.GroupID).Inc()
			}
		case outcomeNeedForPause:
			reason, delay := r.pause.requestPause(out.reason, out.duration)
			r.hooks.firePause(ctx, reason, delay)
			if r.metricsReg != nil {
				r.metricsReg.pauseEventsTotal.WithLabelValues(r.cfg.GroupID).Inc()
				r.metricsReg.pauseActive.WithLabelValues(r.cfg.GroupID).Set(1)
			}
			r.pendingUnits = units[i:]
			if committed > 0 {
				r.hooks.firePostCommit(ctx, committed)
			}
			return false
		case outcomeFatal:
			r.fatal(ctx, out.err)
			return true
		}
	}

	if committed > 0 {
		r.hooks.firePostCommit(ctx, committed)
	}
	return false
}

// maxUnitWorkers bounds the goroutine pool invokeUnits spins up when
// ParallelUnits is enabled.
const maxUnitWorkers = 8

// invokeUnits runs the handler for every unit in the batch, either
// sequentially or, when ParallelUnits is set, through a bounded pool
// of goroutines. Invocation is the only thing that fans out: the
// result slice keeps each outcome at the unit's original index, so
// runUnits still walks it in order and commits, pauses, and fatal
// errors are handled exactly as if the units had run one at a time.
func (r *Runner[K, V]) invokeUnits(ctx context.Context, units []ProcessUnit[K, V]) []outcome[K, V] {
	outcomes := make([]outcome[K, V], len(units))
	if !r.cfg.ParallelUnits || len(units) < 2 {
		for i, unit := range units {
			outcomes[i] = r.invoker.invoke(ctx, unit, r.cfg.PollTimeout)
		}
		return outcomes
	}

	workers := maxUnitWorkers
	if len(units) < workers {
		workers = len(units)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.invoker.invoke(ctx, units[i], r.cfg.PollTimeout)
			}
		}()
	}
	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// buildBatch deserializes raw broker messages into a typed
// PollBatch, preserving the partition-discovery order Poll returned
// them in (the dispatcher's "stable iteration" guarantee).
func (r *Runner[K, V]) buildBatch(raw []RawMessage) (PollBatch[K, V], error) {
	records := make([]Record[K, V], 0, len(raw))
	var partitions []PartitionID
	seen := make(map[PartitionID]struct{})

	for _, m := range raw {
		key, err := r.keyDeserialize(m.Key)
		if err != nil {
			return PollBatch[K, V]{}, &FatalError{Cause: err}
		}
		value, err := r.valueDeserialize(m.Value)
		if err != nil {
			return PollBatch[K, V]{}, &FatalError{Cause: err}
		}
		records = append(records, Record[K, V]{
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       key,
			Value:     value,
			Timestamp: m.Timestamp,
			Headers:   m.Headers,
		})
		if _, ok := seen[m.Partition]; !ok {
			seen[m.Partition] = struct{}{}
			partitions = append(partitions, m.Partition)
		}
	}

	return PollBatch[K, V]{Records: records, Partitions: partitions}, nil
}

// fatal handles a *FatalError or any other error the loop decided is
// fatal: it stops the runner, closes the broker, fires onFatal, and
// optionally asks the host process to exit. No further hooks fire
// after onFatal.
func (r *Runner[K, V]) fatal(ctx context.Context, err error) {
	r.state.Store(int32(stateStopping))
	r.logger.Errorf(ctx, "runner[%d] fatal: %v", r.instanceID, err)
	r.hooks.fireFatal(ctx, err)
	if r.metricsReg != nil {
		r.metricsReg.fatalEventsTotal.WithLabelValues(r.cfg.GroupID).Inc()
	}
	_ = r.broker.Close()
	r.state.Store(int32(stateStopped))
	r.running.Store(false)
	if r.cfg.forceExit() && r.forceExitFn != nil {
		r.forceExitFn()
	}
}

// shutdown handles a cooperative Stop()/ctx-cancellation exit: close
// the broker and move to Stopped without treating it as a failure.
func (r *Runner[K, V]) shutdown() {
	r.state.Store(int32(stateStopping))
	_ = r.broker.Close()
	r.state.Store(int32(stateStopped))
	r.running.Store(false)
}
