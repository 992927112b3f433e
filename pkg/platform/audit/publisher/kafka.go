package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"vericred/pkg/platform/audit"
)

// Topic carries mirrored audit entries for downstream compliance consumers.
const Topic = "vericred.audit"

// Kafka publishes committed audit entries to a Kafka topic. The database row
// remains the source of truth; publishing is best-effort and never blocks or
// fails the request that produced the entry.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafka connects to the given brokers and ensures the audit topic exists.
func NewKafka(ctx context.Context, brokers []string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	// Ensure the topic exists; an already-existing topic is not an error.
	admin := kadm.NewClient(client)
	if resp, err := admin.CreateTopic(ctx, 1, 1, nil, Topic); err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	} else if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", resp.Err)
	}

	return &Kafka{client: client, logger: logger}, nil
}

type wireEntry struct {
	ID        string `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Publish sends the entry asynchronously, keyed by entity ID so one record's
// history stays in order within a partition.
func (k *Kafka) Publish(ctx context.Context, entry audit.Entry) {
	payload, err := json.Marshal(wireEntry{
		ID:        entry.ID,
		Actor:     entry.Actor,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		RequestID: entry.RequestID,
		Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		k.logger.ErrorContext(ctx, "marshal audit entry", "error", err)
		return
	}

	record := &kgo.Record{Topic: Topic, Key: []byte(entry.EntityID), Value: payload}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.ErrorContext(ctx, "publish audit entry",
				"entry_id", entry.ID,
				"error", err,
			)
		}
	})
}

// Close flushes buffered records and releases the client.
func (k *Kafka) Close(ctx context.Context) {
	if err := k.client.Flush(ctx); err != nil {
		k.logger.ErrorContext(ctx, "flush audit publisher", "error", err)
	}
	k.client.Close()
}
