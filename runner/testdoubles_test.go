package runner

import (
	"context"
	"sort"
	"sync"
	"time"
)

// fakeBroker is an in-memory BrokerClient backed by a fixed set of
// records, queued per partition in offset order. It mirrors the
// bootstrap_test.go fakeConsumer idiom from the teacher repo: a small
// hand-written double rather than a generated mock, because the core
// runner package only needs behavior, not call-count verification.
type fakeBroker struct {
	mu         sync.Mutex
	pending    []RawMessage
	committed  map[PartitionID]int64
	paused     map[PartitionID]bool
	closed     bool
	subscribed []string

	pollErr      error
	pollBlocks   bool // if true, Poll blocks on ctx.Done() once pending is drained
	commitErrs   []error
	commitCalls  int
}

func newFakeBroker(msgs []RawMessage) *fakeBroker {
	return &fakeBroker{
		pending:   append([]RawMessage{}, msgs...),
		committed: make(map[PartitionID]int64),
		paused:    make(map[PartitionID]bool),
	}
}

func (f *fakeBroker) Subscribe(ctx context.Context, topics []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = topics
	return nil
}

func (f *fakeBroker) Poll(ctx context.Context, timeout time.Duration) ([]RawMessage, error) {
	f.mu.Lock()
	if f.pollErr != nil {
		err := f.pollErr
		f.mu.Unlock()
		return nil, err
	}
	if len(f.pending) == 0 {
		f.mu.Unlock()
		if timeout <= 0 {
			return nil, nil
		}
		// Nothing left: behave like an empty poll rather than blocking
		// forever, so tests terminate via ctx cancellation at the
		// driver level instead of hanging here.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(timeout):
			return nil, nil
		}
	}
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()
	return batch, nil
}

func (f *fakeBroker) CommitSync(ctx context.Context, offsets map[PartitionID]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitCalls < len(f.commitErrs) {
		err := f.commitErrs[f.commitCalls]
		f.commitCalls++
		if err != nil {
			return err
		}
	} else {
		f.commitCalls++
	}
	for p, off := range offsets {
		f.committed[p] = off
	}
	return nil
}

func (f *fakeBroker) Pause(ctx context.Context, partitions []PartitionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range partitions {
		f.paused[p] = true
	}
	return nil
}

func (f *fakeBroker) Resume(ctx context.Context, partitions []PartitionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range partitions {
		f.paused[p] = false
	}
	return nil
}

func (f *fakeBroker) Assignment(ctx context.Context) ([]PartitionID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[PartitionID]struct{})
	for _, m := range f.pending {
		set[m.Partition] = struct{}{}
	}
	out := make([]PartitionID, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Topic != out[j].Topic {
			return out[i].Topic < out[j].Topic
		}
		return out[i].Partition < out[j].Partition
	})
	return out, nil
}

func (f *fakeBroker) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBroker) committedOffset(p PartitionID) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	off, ok := f.committed[p]
	return off, ok
}

// fakeClock is a mutable Clock for deterministic backoff math.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// instantSleeper never actually sleeps; it reports completion
// immediately unless ctx is already done. Used to keep driver-loop
// tests fast.
type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

func strDeserializer() Deserializer[string] {
	return func(b []byte) (string, error) { return string(b), nil }
}

func strFactory() DeserializerFactory[string] {
	return func() Deserializer[string] { return strDeserializer() }
}
