// Package kafkabroker wires runner.Runner to a real Kafka (or
// Kafka-protocol-compatible, e.g. Redpanda) cluster via
// github.com/segmentio/kafka-go.
//
// Pause/Resume and kafka-go. kafka-go's consumer-group reader has no
// API to pause a subset of assigned partitions the way the
// confluent-kafka-go/librdkafka bindings do — a group reader either
// fetches or it doesn't. Broker implements BrokerClient.Pause/Resume
// as logged no-ops and relies on the contract already documented on
// BrokerClient.Poll: the runner simply stops calling Poll for real
// data while its pause controller reports paused, and polls with a
// zero timeout instead (the "paused poll" heartbeat), which Broker
// answers with no records and without fetching. The broker-side
// effect is identical — no records are fetched from the paused
// partitions — without needing a broker primitive this client
// library doesn't expose.
package kafkabroker
