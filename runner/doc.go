// Package runner implements a resilient streaming consumer runner: a
// supervised poll/process/commit loop over a partitioned, at-least-once
// log broker. It turns a user-supplied record handler into a pipeline
// with pause/resume backoff, timeout-aware commit retry, and a choice
// of per-partition or whole-batch dispatch.
//
// The package owns no broker driver of its own; it consumes a
// BrokerClient (see broker.go) and drives it from a single internal
// goroutine, the "driver". Each user handler invocation runs on its
// own goroutine, separate from the driver; the driver only waits on
// it.
package runner
