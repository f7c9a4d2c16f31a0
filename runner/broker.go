package runner

import (
	"context"
	"time"
)

// RawMessage is what a BrokerClient hands back from Poll, before the
// runner applies the key/value deserializers. Kept non-generic so a
// single broker adapter can back runners of any K, V.
type RawMessage struct {
	Partition PartitionID
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte
}

// BrokerClient is the contract the runner consumes from the broker
// It is treated as non-thread-safe and confined entirely to the
// driver goroutine.
type BrokerClient interface {
	Subscribe(ctx context.Context, topics []string) error
	// Poll blocks for up to timeout and returns whatever records are
	// available, possibly none. A zero timeout is used for the
	// "paused poll" heartbeat.
	Poll(ctx context.Context, timeout time.Duration) ([]RawMessage, error)
	CommitSync(ctx context.Context, offsets map[PartitionID]int64) error
	Pause(ctx context.Context, partitions []PartitionID) error
	Resume(ctx context.Context, partitions []PartitionID) error
	Assignment(ctx context.Context) ([]PartitionID, error)
	Close() error
}
