//go:build integration

package testutil

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// UniqueTopicAndGroup derives a unique topic and group name from a
// base prefix, e.g. base="runner-itest" -> "runner-itest-20250826T010203123456789".
func UniqueTopicAndGroup(base string) (topic, group string) {
	s := time.Now().UTC().Format("20060102T150405.000000000")
	s = strings.ReplaceAll(s, ".", "")
	return fmt.Sprintf("%s-%s", base, s), fmt.Sprintf("%s-%s", base, s)
}

// EnsureTopic creates topic if it doesn't already exist and waits
// until it shows up in cluster metadata. broker may be "host:port",
// "PLAINTEXT://host:port" (as testcontainers reports it), or a
// comma-separated list (the first address is used).
func EnsureTopic(ctx context.Context, broker, topic string) error {
	addr := firstBootstrap(broker)

	conn, err := kafka.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctrl, err := conn.Controller()
	if err != nil {
		return err
	}
	adminAddr := net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port))

	admin, err := kafka.Dial("tcp", adminAddr)
	if err != nil {
		return err
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		// wording varies across clusters; treat "already exists" as success
		low := strings.ToLower(err.Error())
		if !strings.Contains(low, "already exists") {
			return err
		}
	}

	return waitTopicReady(ctx, addr, topic)
}

// ---- helpers ----

// firstBootstrap takes the first address out of a bootstrap string
// and strips a "PLAINTEXT://"-style scheme if present.
func firstBootstrap(raw string) string {
	parts := strings.Split(raw, ",")
	first := strings.TrimSpace(parts[0])

	if strings.Contains(first, "://") {
		if u, err := url.Parse(first); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return first
}

func waitTopicReady(ctx context.Context, broker, topic string) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c, err := kafka.Dial("tcp", broker)
		if err == nil {
			parts, perr := c.ReadPartitions(topic)
			_ = c.Close()
			if perr == nil && len(parts) > 0 {
				return nil
			}
			err = perr
		}

		if time.Now().After(deadline) {
			if err != nil {
				return fmt.Errorf("topic %q not ready: %w", topic, err)
			}
			return fmt.Errorf("topic %q not ready", topic)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
