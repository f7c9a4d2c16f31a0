package runner

import (
	"errors"
	"fmt"
	"time"
)

// NeedForPauseError is a cooperative signal from a Processor asking
// the runner to pause the current partition/batch. Duration is
// optional; nil means "use the pause controller's computed backoff".
type NeedForPauseError struct {
	Reason   string
	Duration *time.Duration
}

func (e *NeedForPauseError) Error() string {
	if e.Reason == "" {
		return "need for pause"
	}
	return "need for pause: " + e.Reason
}

// FatalError wraps any cause that must stop the runner outright:
// broker-auth failures, deserializer construction failures, or
// repeated non-timeout commit errors.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	if e.Cause == nil {
		return "fatal"
	}
	return "fatal: " + e.Cause.Error()
}

func (e *FatalError) Unwrap() error { return e.Cause }

// CommitTimeoutError marks a commit call that timed out at the
// broker. The commit engine retries these with backoff; everything
// else retries once before escalating to Fatal.
type CommitTimeoutError struct {
	Err error
}

func (e *CommitTimeoutError) Error() string {
	return fmt.Sprintf("commit timeout: %v", e.Err)
}

func (e *CommitTimeoutError) Unwrap() error { return e.Err }

// InvalidConfigError marks a Configure/Start failure: missing topics,
// servers, group id, or deserializer factories. Fatal at start, never
// retried by the runner itself.
type InvalidConfigError struct {
	Msg string
}

func (e *InvalidConfigError) Error() string {
	return "invalid config: " + e.Msg
}

// ErrRunnerStopped is returned by Start when called on an instance
// that has already reached the terminal Stopped state. Stopped is
// terminal for a given instance; a stopped Runner cannot be
// restarted by calling Start again.
var ErrRunnerStopped = errors.New("runner: instance already stopped")

// outcomeKind classifies the result of one Process Invoker call.
type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeNeedForPause
	outcomeFatal
)

// outcome is the Process Invoker's verdict on one ProcessUnit
// invocation (C7, Outcome Taxonomy).
type outcome[K, V any] struct {
	kind     outcomeKind
	result   ProcessResult[K, V]
	reason   string
	duration *time.Duration
	err      error
}

// classify maps a Processor's returned error onto the outcome
// taxonomy, applying the configured policy for unrecognized errors
// (an unrecognized handler error, neither pause nor fatal).
func classify[K, V any](err error, policy UnknownHandlerFailurePolicy) outcomeKind {
	if err == nil {
		return outcomeOK
	}
	var pause *NeedForPauseError
	if errors.As(err, &pause) {
		return outcomeNeedForPause
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return outcomeFatal
	}
	if policy == FatalOnUnknown {
		return outcomeFatal
	}
	return outcomeNeedForPause
}
