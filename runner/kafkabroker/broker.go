// Package kafkabroker is the kafka-go-backed runner.BrokerClient: one
// kafka.Reader per subscribed topic, group-coordinated offset commits,
// and the retry/backoff discipline a real deployment needs against a
// flaky broker.
package kafkabroker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mkrou/kflow/runner"
)

// reader is the subset of *kafka.Reader the Broker depends on, kept
// as an interface so unit tests can substitute a fake without a live
// cluster.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// readerFactory builds a reader for one topic. Tests override this to
// avoid touching the network.
type readerFactory func(cfg kafka.ReaderConfig) reader

func defaultReaderFactory(cfg kafka.ReaderConfig) reader { return kafka.NewReader(cfg) }

// Offset selects where a reader with no committed offset starts.
type Offset int

const (
	Earliest Offset = iota
	Latest
)

// Broker adapts a set of kafka.Readers, one per topic, to
// runner.BrokerClient. Pause/Resume are logged no-ops: kafka-go has no
// partition-pause primitive, so backpressure is expressed by the
// runner simply not calling Poll while paused (see the package doc
// for the rationale this repo settled on).
type Broker struct {
	brokers       []string
	groupID       string
	startOffset   Offset
	readerFactory readerFactory
	log           runner.Logger

	mu            sync.Mutex
	readers       map[string]reader
	assigned      map[runner.PartitionID]struct{}
	jitterRand    *rand.Rand
	jitterMu      sync.Mutex
	fetchRetry    time.Duration
	fetchRetryMax time.Duration
}

// New constructs a Broker. log may be nil, in which case Broker stays
// silent.
func New(brokers []string, groupID string, startOffset Offset, log runner.Logger) *Broker {
	return &Broker{
		brokers:       brokers,
		groupID:       groupID,
		startOffset:   startOffset,
		readerFactory: defaultReaderFactory,
		log:           log,
		readers:       make(map[string]reader),
		assigned:      make(map[runner.PartitionID]struct{}),
		jitterRand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		fetchRetry:    500 * time.Millisecond,
		fetchRetryMax: 10 * time.Second,
	}
}

func (b *Broker) readerConfig(topic string) kafka.ReaderConfig {
	rc := kafka.ReaderConfig{
		Brokers:        b.brokers,
		GroupID:        b.groupID,
		Topic:          topic,
		CommitInterval: 0, // manual commit only; the runner owns offset lifecycle
	}
	if b.startOffset == Earliest {
		rc.StartOffset = kafka.FirstOffset
	} else {
		rc.StartOffset = kafka.LastOffset
	}
	return rc
}

// Subscribe opens one reader per topic. Safe to call once per Broker
// instance, mirroring the runner's single-driver-goroutine ownership.
func (b *Broker) Subscribe(_ context.Context, topics []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, topic := range topics {
		if _, ok := b.readers[topic]; ok {
			continue
		}
		b.readers[topic] = b.readerFactory(b.readerConfig(topic))
	}
	return nil
}

// Poll fetches at most one message from each subscribed topic's
// reader, waiting up to timeout total. A zero timeout is used by the
// runner's paused-poll heartbeat and returns immediately with no
// records and without fetching: kafka-go's reader keeps its group
// session alive in the background.
func (b *Broker) Poll(ctx context.Context, timeout time.Duration) ([]runner.RawMessage, error) {
	if timeout <= 0 {
		return nil, nil
	}

	b.mu.Lock()
	readers := make(map[string]reader, len(b.readers))
	for topic, r := range b.readers {
		readers[topic] = r
	}
	b.mu.Unlock()

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fetched struct {
		msg kafka.Message
		err error
	}

	results := make(chan fetched, len(readers))
	var wg sync.WaitGroup
	for _, r := range readers {
		wg.Add(1)
		go func(r reader) {
			defer wg.Done()
			msg, err := b.fetchWithRetry(pollCtx, r)
			results <- fetched{msg: msg, err: err}
		}(r)
	}
	wg.Wait()
	close(results)

	var out []runner.RawMessage
	for f := range results {
		if f.err != nil {
			if pollCtx.Err() != nil {
				// timed out or cancelled waiting for this topic; not an error
				continue
			}
			return nil, fmt.Errorf("fetch message: %w", f.err)
		}
		out = append(out, b.toRawMessage(f.msg))
	}

	b.mu.Lock()
	for _, m := range out {
		b.assigned[m.Partition] = struct{}{}
	}
	b.mu.Unlock()

	return out, nil
}

func (b *Broker) toRawMessage(m kafka.Message) runner.RawMessage {
	headers := make(map[string][]byte, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = h.Value
	}
	return runner.RawMessage{
		Partition: runner.PartitionID{Topic: m.Topic, Partition: int32(m.Partition)},
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   headers,
	}
}

// CommitSync commits one offset per partition, routed to the reader
// that owns that partition's topic. A next-offset commit failure on
// one topic does not block committing the others.
func (b *Broker) CommitSync(ctx context.Context, offsets map[runner.PartitionID]int64) error {
	b.mu.Lock()
	readers := make(map[string]reader, len(b.readers))
	for topic, r := range b.readers {
		readers[topic] = r
	}
	b.mu.Unlock()

	var firstErr error
	for pid, offset := range offsets {
		r, ok := readers[pid.Topic]
		if !ok {
			continue
		}
		msg := kafka.Message{Topic: pid.Topic, Partition: int(pid.Partition), Offset: offset}
		if err := r.CommitMessages(ctx, msg); err != nil && firstErr == nil {
			wrapped := fmt.Errorf("commit %s/%d@%d: %w", pid.Topic, pid.Partition, offset, err)
			if isCommitTimeout(err) {
				firstErr = &runner.CommitTimeoutError{Err: wrapped}
			} else {
				firstErr = wrapped
			}
		}
	}
	return firstErr
}

// isCommitTimeout reports whether err is a commit timeout rather than
// some other broker-side failure: a context deadline, or a kafka-go
// error that reports itself as a timeout (a dial/network deadline, or
// the broker's own request-timed-out error code).
func isCommitTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// Pause is a logged no-op. kafka-go's group reader has no
// per-partition pause primitive; the runner achieves the same effect
// by polling only with a zero timeout while the pause controller
// reports paused, which fetches nothing.
func (b *Broker) Pause(ctx context.Context, partitions []runner.PartitionID) error {
	if b.log != nil {
		b.log.Infof(ctx, "kafkabroker: pause requested for %d partition(s), enforced by the runner withholding Poll", len(partitions))
	}
	return nil
}

// Resume is the mirror no-op of Pause.
func (b *Broker) Resume(ctx context.Context, partitions []runner.PartitionID) error {
	if b.log != nil {
		b.log.Infof(ctx, "kafkabroker: resume requested for %d partition(s)", len(partitions))
	}
	return nil
}

// Assignment returns every partition this Broker has observed a
// record from since Subscribe. kafka-go's group reader doesn't expose
// group assignment directly, so this tracks it from delivered
// messages instead of the broker's internal rebalance state.
func (b *Broker) Assignment(_ context.Context) ([]runner.PartitionID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]runner.PartitionID, 0, len(b.assigned))
	for p := range b.assigned {
		out = append(out, p)
	}
	return out, nil
}

// Close closes every underlying reader, collecting (not short-
// circuiting on) the first error so one stuck topic doesn't leak the
// rest.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fetchWithRetry calls FetchMessage, retrying transient errors with
// jittered exponential backoff bounded by ctx. A context error (the
// poll timeout elapsing, or the runner shutting down) is returned
// immediately rather than retried.
func (b *Broker) fetchWithRetry(ctx context.Context, r reader) (kafka.Message, error) {
	backoff := b.fetchRetry
	for {
		msg, err := r.FetchMessage(ctx)
		if err == nil {
			return msg, nil
		}
		if ctx.Err() != nil {
			return kafka.Message{}, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-time.After(b.withJitterEqual(backoff)):
		}
		backoff = b.nextBackoff(backoff)
	}
}

// nextBackoff doubles current, capped at fetchRetryMax.
func (b *Broker) nextBackoff(current time.Duration) time.Duration {
	current *= 2
	if current > b.fetchRetryMax {
		return b.fetchRetryMax
	}
	return current
}

// withJitterEqual splits d into a fixed half and a random half, the
// equal-jitter strategy: enough randomness to desynchronize retrying
// readers without letting any single retry run unbounded.
func (b *Broker) withJitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	b.jitterMu.Lock()
	jitter := time.Duration(b.jitterRand.Int63n(int64(d-half) + 1))
	b.jitterMu.Unlock()
	return half + jitter
}

var _ runner.BrokerClient = (*Broker)(nil)
