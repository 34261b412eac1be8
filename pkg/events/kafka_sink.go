package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/tradepit/marketsim/pkg/kafka"
)

// KafkaSink publishes events to the audit/persistence stream. The underlying
// writer is async with no required acks, so Publish does not wait on the
// broker.
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
	log      *zap.Logger
}

func NewKafkaSink(producer *kafka.Producer, topic string, log *zap.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, log: log}
}

func (s *KafkaSink) Publish(ev *Event) {
	if err := s.producer.PublishJSON(context.Background(), s.topic, ev.Instrument, ev); err != nil {
		s.log.Warn("publish event to kafka failed",
			zap.String("type", string(ev.Type)),
			zap.String("instrument", ev.Instrument),
			zap.Error(err))
	}
}
