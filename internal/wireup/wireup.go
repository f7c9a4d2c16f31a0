// Package wireup holds the small string-to-enum translations shared
// by cmd/streamrunnerd and cmd/pgsink-demo when they turn config.Kafka
// into a runner.Config and a kafkabroker.Offset.
package wireup

import (
	"strings"

	"github.com/mkrou/kflow/runner"
	"github.com/mkrou/kflow/runner/kafkabroker"
)

// StringDeserializerFactory is the Processor[string,string] demo
// wiring's deserializer: both cmd binaries consume raw bytes as UTF-8
// text.
func StringDeserializerFactory() runner.Deserializer[string] {
	return func(b []byte) (string, error) {
		return string(b), nil
	}
}

// Strategy maps the config string to runner.Strategy, defaulting to
// OnePerPartition on anything unrecognized.
func Strategy(s string) runner.Strategy {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return runner.All
	}
	return runner.OnePerPartition
}

// AutoOffsetReset maps the config string to runner.AutoOffsetReset.
func AutoOffsetReset(s string) runner.AutoOffsetReset {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latest":
		return runner.Latest
	case "none":
		return runner.None
	default:
		return runner.Earliest
	}
}

// BrokerOffset maps the config string to the kafkabroker start
// offset, the subset AutoOffsetReset that kafka-go's reader actually
// understands (it has no analogue of AutoOffsetReset.None).
func BrokerOffset(s string) kafkabroker.Offset {
	if strings.EqualFold(strings.TrimSpace(s), "latest") {
		return kafkabroker.Latest
	}
	return kafkabroker.Earliest
}

// UnknownHandlerFailurePolicy maps the config string to
// runner.UnknownHandlerFailurePolicy, defaulting to PauseDefault.
func UnknownHandlerFailurePolicy(s string) runner.UnknownHandlerFailurePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "fatal") {
		return runner.FatalOnUnknown
	}
	return runner.PauseDefault
}
