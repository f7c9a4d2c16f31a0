package runner

import "time"

// PartitionID identifies one partition of one topic.
type PartitionID struct {
	Topic     string
	Partition int32
}

// Record is one immutable broker record, deserialized into caller types.
type Record[K, V any] struct {
	Partition PartitionID
	Offset    int64
	Key       K
	Value     V
	Timestamp time.Time
	Headers   map[string][]byte
}

// PollBatch is the result of one poll call. Partitions preserves the
// order in which partitions were first observed in this batch, which
// the dispatcher relies on for the "stable iteration" guarantee in
// OnePerPartition mode.
type PollBatch[K, V any] struct {
	Records    []Record[K, V]
	Partitions []PartitionID
}

func (b PollBatch[K, V]) partitionSet() map[PartitionID]struct{} {
	set := make(map[PartitionID]struct{}, len(b.Partitions))
	for _, p := range b.Partitions {
		set[p] = struct{}{}
	}
	return set
}

// Strategy selects how a PollBatch is split into ProcessUnits.
type Strategy int

const (
	// OnePerPartition produces one ProcessUnit per partition present in
	// the batch, each carrying only that partition's records.
	OnePerPartition Strategy = iota
	// All produces a single ProcessUnit carrying every record in the
	// batch, in the batch's natural order.
	All
)

func (s Strategy) String() string {
	switch s {
	case OnePerPartition:
		return "OnePerPartition"
	case All:
		return "All"
	default:
		return "unknown"
	}
}

// ProcessUnit is the smallest quantum handed to the user handler.
type ProcessUnit[K, V any] struct {
	Index            int
	CurrentPartition PartitionID
	AllPartitions    map[PartitionID]struct{}
	Records          []Record[K, V]
}

// ProcessResult is what a successful Processor invocation returns.
// ID is opaque to the core; it is only surfaced to hooks for the
// caller's own bookkeeping.
type ProcessResult[K, V any] struct {
	ID      string
	Records []Record[K, V]
}

// PauseState is a point-in-time snapshot of the pause controller.
type PauseState struct {
	Paused           bool
	Since            time.Time
	Attempt          int
	NextAttemptAfter time.Duration
	Reason           string
}

// readyAt is the instant at which a paused runner becomes eligible to
// resume, undefined when Paused is false.
func (p PauseState) readyAt() time.Time {
	return p.Since.Add(p.NextAttemptAfter)
}
