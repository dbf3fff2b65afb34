package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/arblab/arbcore/internal/domain"
)

// KafkaSink publishes opportunity events to a Kafka topic. Messages are
// keyed by instrument so per-symbol consumers read them in order.
type KafkaSink struct {
	writer *kafka.Writer
	enc    Encoder
}

var _ domain.OpportunitySink = (*KafkaSink)(nil)

// NewKafka creates a producer for the given brokers and topic.
func NewKafka(brokers []string, topic string, enc Encoder) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // same key, same partition
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		enc: enc,
	}
}

// Name implements Named.
func (s *KafkaSink) Name() string { return "kafka" }

// PublishCross implements domain.OpportunitySink.
func (s *KafkaSink) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	data, err := s.enc.Cross(opp)
	if err != nil {
		return fmt.Errorf("sink/kafka: encode cross: %w", err)
	}
	return s.send(ctx, []byte(opp.Symbol), data)
}

// PublishTriangular implements domain.OpportunitySink.
func (s *KafkaSink) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	data, err := s.enc.Triangular(opp)
	if err != nil {
		return fmt.Errorf("sink/kafka: encode triangular: %w", err)
	}
	return s.send(ctx, []byte(opp.Exchange+"|"+opp.Triangle), data)
}

func (s *KafkaSink) send(ctx context.Context, key, value []byte) error {
	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("sink/kafka: write: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
