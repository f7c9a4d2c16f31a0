package runner

import (
	"context"
	"time"
)

// AutoOffsetReset controls where a consumer group with no committed
// offset starts reading from.
type AutoOffsetReset int

const (
	Earliest AutoOffsetReset = iota
	Latest
	None
)

// UnknownHandlerFailurePolicy decides what happens when a Processor
// fails with an error that is neither *NeedForPauseError nor
// *FatalError, made an explicit config choice rather than a silent
// default.
type UnknownHandlerFailurePolicy int

const (
	// PauseDefault treats any unrecognized handler error like a
	// NeedForPause with the default backoff.
	PauseDefault UnknownHandlerFailurePolicy = iota
	// FatalOnUnknown stops the runner on any unrecognized handler
	// error, same as a *FatalError.
	FatalOnUnknown
)

// Deserializer turns raw bytes into a typed value.
type Deserializer[T any] func([]byte) (T, error)

// DeserializerFactory builds a Deserializer, mirroring the broker
// ecosystem's factory-per-consumer convention (a new instance per
// Runner, not shared global state).
type DeserializerFactory[T any] func() Deserializer[T]

// Processor is the user override point: given the records of one
// ProcessUnit, produce a ProcessResult or fail. A failure carrying
// *NeedForPauseError requests a cooperative pause; a failure carrying
// *FatalError stops the runner; any other error is classified per
// Config.OnUnknownHandlerFailure.
type Processor[K, V any] func(ctx context.Context, records []Record[K, V]) (ProcessResult[K, V], error)

// Config collects every tunable the runner recognizes. Required
// fields are validated by Configure.
type Config[K, V any] struct {
	BootstrapServers string
	GroupID          string
	Topics           []string
	AutoOffsetReset  AutoOffsetReset
	Strategy         Strategy

	PollTimeout       time.Duration
	DelaySingleRecord time.Duration
	DelayRecords      time.Duration

	PauseBase time.Duration
	PauseMax  time.Duration

	CommitAttempts int

	// ForceExit decides whether a Fatal outcome calls the Runner's
	// force-exit function (os.Exit(1) by default). nil defaults to
	// true; set a pointer to false to disable it, e.g. when a host
	// process wants to handle OnFatal itself and shut down cleanly.
	ForceExit *bool

	OnUnknownHandlerFailure UnknownHandlerFailurePolicy
	ParallelUnits           bool

	KeyDeserializer   DeserializerFactory[K]
	ValueDeserializer DeserializerFactory[V]
}

// withDefaults returns a copy of c with zero-valued optional fields
// filled in.
func (c Config[K, V]) withDefaults() Config[K, V] {
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	if c.PauseBase <= 0 {
		c.PauseBase = time.Second
	}
	if c.PauseMax <= 0 {
		c.PauseMax = 2 * time.Minute
	}
	if c.CommitAttempts <= 0 {
		c.CommitAttempts = 3
	}
	if c.ForceExit == nil {
		forceExit := true
		c.ForceExit = &forceExit
	}
	return c
}

// forceExit reports the effective ForceExit value; withDefaults
// always leaves it non-nil, so this is only a convenience for call
// sites holding a Config that hasn't been through withDefaults yet.
func (c Config[K, V]) forceExit() bool {
	return c.ForceExit == nil || *c.ForceExit
}

// validate enforces the required-field invariants:
// non-empty bootstrap servers, group id, topics, and both
// deserializer factories.
func (c Config[K, V]) validate() error {
	switch {
	case c.BootstrapServers == "":
		return &InvalidConfigError{Msg: "bootstrapServers must not be empty"}
	case c.GroupID == "":
		return &InvalidConfigError{Msg: "groupId must not be empty"}
	case len(c.Topics) == 0:
		return &InvalidConfigError{Msg: "topics must not be empty"}
	case c.KeyDeserializer == nil:
		return &InvalidConfigError{Msg: "keyDeserializer must be set"}
	case c.ValueDeserializer == nil:
		return &InvalidConfigError{Msg: "valueDeserializer must be set"}
	}
	return nil
}
