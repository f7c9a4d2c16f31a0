package runner

import (
	"context"
	"errors"
	"time"
)

// invoker calls the user Processor, awaits it with an internal
// timeout, and classifies the result.
type invoker[K, V any] struct {
	processor         Processor[K, V]
	delaySingleRecord time.Duration
	sleeper           Sleeper
	policy            UnknownHandlerFailurePolicy
	log               Logger
}

// processTimeout is max(pollTimeout*5, 30s).
func processTimeout(pollTimeout time.Duration) time.Duration {
	t := pollTimeout * 5
	if t < 30*time.Second {
		return 30 * time.Second
	}
	return t
}

// invoke runs one ProcessUnit through the user handler. ctx should be
// the driver's shutdown-aware context; invoke returns promptly once
// either the handler completes, the internal timeout elapses, or ctx
// is cancelled (in which case the in-flight result, if it ever
// arrives, is discarded).
func (inv *invoker[K, V]) invoke(ctx context.Context, unit ProcessUnit[K, V], pollTimeout time.Duration) outcome[K, V] {
	if inv.delaySingleRecord > 0 {
		for i := 0; i < len(unit.Records); i++ {
			if !inv.sleeper.Sleep(ctx, inv.delaySingleRecord) {
				return outcome[K, V]{kind: outcomeFatal, err: ctx.Err()}
			}
		}
	}

	timeout := processTimeout(pollTimeout)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type callResult struct {
		res ProcessResult[K, V]
		err error
	}
	resultCh := make(chan callResult, 1)

	go func() {
		res, err := inv.processor(callCtx, unit.Records)
		resultCh <- callResult{res: res, err: err}
	}()

	select {
	case r := <-resultCh:
		return inv.classify(ctx, unit, r.res, r.err)
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// Shutdown requested: discard whatever the handler
			// eventually produces, no commit, no hook.
			return outcome[K, V]{kind: outcomeFatal, err: ctx.Err()}
		}
		// Internal invocation timeout: treat like an unrecognized
		// handler failure, gated by the same policy.
		return outcome[K, V]{kind: classify[K, V](callCtx.Err(), inv.policy), err: callCtx.Err()}
	}
}

func (inv *invoker[K, V]) classify(ctx context.Context, unit ProcessUnit[K, V], res ProcessResult[K, V], err error) outcome[K, V] {
	kind := classify[K, V](err, inv.policy)
	switch kind {
	case outcomeOK:
		if len(res.Records) != len(unit.Records) {
			inv.log.Warnf(ctx, "processor returned %d records for a unit of %d; using the unit's original records for commit", len(res.Records), len(unit.Records))
			res.Records = unit.Records
		}
		return outcome[K, V]{kind: outcomeOK, result: res}
	case outcomeNeedForPause:
		var pause *NeedForPauseError
		if errors.As(err, &pause) {
			return outcome[K, V]{kind: outcomeNeedForPause, reason: pause.Reason, duration: pause.Duration, err: err}
		}
		return outcome[K, V]{kind: outcomeNeedForPause, reason: "transient handler failure", err: err}
	default:
		return outcome[K, V]{kind: outcomeFatal, err: err}
	}
}
