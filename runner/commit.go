package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// commitBackoffBase/Max are the retry schedule for CommitTimeoutError
// 100ms doubling, capped at 2s.
const (
	commitBackoffBase = 100 * time.Millisecond
	commitBackoffMax  = 2 * time.Second
)

// commitEngine wraps a BrokerClient's commit call with bounded retry
// on timeout.
type commitEngine[K, V any] struct {
	broker   BrokerClient
	attempts int
	sleeper  Sleeper
	log      Logger

	committed atomic.Int64
}

func newCommitEngine[K, V any](broker BrokerClient, attempts int, sleeper Sleeper, log Logger) *commitEngine[K, V] {
	return &commitEngine[K, V]{broker: broker, attempts: attempts, sleeper: sleeper, log: log}
}

// nextOffsets computes, per partition in the unit, max(offset)+1.
func nextOffsets[K, V any](unit ProcessUnit[K, V]) map[PartitionID]int64 {
	offsets := make(map[PartitionID]int64)
	for _, r := range unit.Records {
		if cur, ok := offsets[r.Partition]; !ok || r.Offset+1 > cur {
			offsets[r.Partition] = r.Offset + 1
		}
	}
	return offsets
}

// commit commits the offsets for one unit, retrying CommitTimeoutError
// up to attempts times with exponential backoff, and any other error
// once before escalating to *FatalError. It never commits a unit that
// did not itself succeed in the invoker — the caller is responsible
// for only calling commit on outcomeOK units.
func (c *commitEngine[K, V]) commit(ctx context.Context, unit ProcessUnit[K, V]) error {
	if len(unit.Records) == 0 {
		return nil
	}
	offsets := nextOffsets(unit)

	delay := commitBackoffBase
	nonTimeoutRetried := false

	for attempt := 1; ; attempt++ {
		err := c.broker.CommitSync(ctx, offsets)
		if err == nil {
			c.committed.Add(1)
			return nil
		}

		var timeoutErr *CommitTimeoutError
		if errors.As(err, &timeoutErr) {
			if attempt >= c.attempts {
				return &FatalError{Cause: err}
			}
			if !c.sleeper.Sleep(ctx, delay) {
				return &FatalError{Cause: ctx.Err()}
			}
			delay *= 2
			if delay > commitBackoffMax {
				delay = commitBackoffMax
			}
			continue
		}

		// Non-timeout error: retry exactly once, then escalate.
		if !nonTimeoutRetried {
			nonTimeoutRetried = true
			continue
		}
		return &FatalError{Cause: err}
	}
}

func (c *commitEngine[K, V]) committedCount() int64 { return c.committed.Load() }
