// Package kafka publishes effect envelopes to a Kafka topic with franz-go.
// Records are keyed by aggregate id so effects of one aggregate stay ordered
// within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"campus/internal/platform/events"
)

// Config holds broker connection settings.
type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// Publisher is an events.Publisher backed by a franz-go client.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers. The client is lazy; use EnsureTopic to fail
// fast on unreachable brokers.
func New(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	if partitions <= 0 {
		partitions = 3
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopic(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, envelopes ...events.Envelope) error {
	if len(envelopes) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(envelopes))
	for _, env := range envelopes {
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope %s: %w", env.Name, err)
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(env.AggregateID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "effect", Value: []byte(env.Name)},
				{Key: "aggregate_type", Value: []byte(env.AggregateType)},
			},
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "failed to produce effects",
			"topic", p.topic,
			"count", len(records),
			"error", err,
		)
		return fmt.Errorf("produce effects: %w", err)
	}
	return nil
}

// Ping checks broker connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client.
func (p *Publisher) Close() error {
	p.client.Close()
	return nil
}
