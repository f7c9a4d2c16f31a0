//go:build integration

package kafkabroker_test

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/mkrou/kflow/internal/testutil"
	"github.com/mkrou/kflow/runner"
	"github.com/mkrou/kflow/runner/kafkabroker"
)

func TestBroker_ProduceThenPollThenCommit_TC(t *testing.T) {
	t.Parallel()

	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	env, stop, err := testutil.StartKafkaTC(ctxStart, "kafkabroker-itest")
	require.NoError(t, err)
	defer func() { _ = stop(context.Background()) }()

	topic, group := testutil.UniqueTopicAndGroup("kafkabroker-itest")
	require.NoError(t, testutil.EnsureTopic(ctxStart, env.Brokers[0], topic))

	writer := &kafka.Writer{
		Addr:     kafka.TCP(env.Brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("k1"),
		Value: []byte("v1"),
	}))

	broker := kafkabroker.New(env.Brokers, group, kafkabroker.Earliest, nil)
	defer broker.Close()

	require.NoError(t, broker.Subscribe(ctx, []string{topic}))

	var raw []runner.RawMessage
	require.Eventually(t, func() bool {
		msgs, pollErr := broker.Poll(ctx, time.Second)
		require.NoError(t, pollErr)
		raw = append(raw, msgs...)
		return len(raw) > 0
	}, 20*time.Second, 500*time.Millisecond)

	require.Equal(t, "v1", string(raw[0].Value))

	offsets := map[runner.PartitionID]int64{raw[0].Partition: raw[0].Offset + 1}
	require.NoError(t, broker.CommitSync(ctx, offsets))
}
