//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"campus/internal/platform/events"
	"campus/internal/platform/events/kafka"
	"campus/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *PublisherSuite) TestPublishKeepsAggregateOrder() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "campus.effects.test"
	pub, err := kafka.New(kafka.Config{Brokers: []string{s.redpanda.Broker}, Topic: topic}, nil)
	s.Require().NoError(err)
	defer pub.Close()
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	at := time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
	first, err := events.NewEnvelope("schedule.session_added", "schedule", "s-1", at, map[string]int{"n": 1})
	s.Require().NoError(err)
	second, err := events.NewEnvelope("schedule.status_changed", "schedule", "s-1", at, map[string]int{"n": 2})
	s.Require().NoError(err)
	s.Require().NoError(pub.Publish(ctx, first, second))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got []events.Envelope
	for len(got) < 2 {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			var env events.Envelope
			s.Require().NoError(json.Unmarshal(r.Value, &env))
			s.Equal("s-1", string(r.Key))
			got = append(got, env)
		})
	}
	s.Equal(first.ID, got[0].ID)
	s.Equal(second.ID, got[1].ID)
}
