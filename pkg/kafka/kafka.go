// Package kafka wraps segmentio/kafka-go with the small surface the
// simulator needs: an async producer for the event stream and a consumer
// group used by the persistence worker.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type ProducerConfig struct {
	Brokers        []string `yaml:"brokers"`
	BatchSize      int      `yaml:"batch_size"`
	BatchTimeoutMs int64    `yaml:"batch_timeout_ms"`
}

type Producer struct {
	w *kafkago.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeoutMs == 0 {
		cfg.BatchTimeoutMs = 50
	}
	// Async + RequireNone: the matching path publishes fire-and-forget and
	// must never wait on the broker.
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           time.Duration(cfg.BatchTimeoutMs) * time.Millisecond,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafkago.RequireNone,
		Async:                  true,
	}
	return &Producer{w: w}
}

func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v any) error {
	if p == nil || p.w == nil {
		return errors.New("producer not initialized")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   HashKey(key),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

type ConsumerConfig struct {
	Brokers    []string      `yaml:"brokers"`
	GroupID    string        `yaml:"group_id"`
	Topic      string        `yaml:"topic"`
	MaxRetries   int   `yaml:"max_retries"`
	BackoffMinMs int64 `yaml:"backoff_min_ms"`
	BackoffMaxMs int64 `yaml:"backoff_max_ms"`
}

type Consumer struct {
	r   *kafkago.Reader
	cfg ConsumerConfig
}

func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.BackoffMinMs == 0 {
		cfg.BackoffMinMs = 100
	}
	if cfg.BackoffMaxMs == 0 {
		cfg.BackoffMaxMs = 10_000
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})
	return &Consumer{r: r, cfg: cfg}
}

// Run fetches messages one at a time, retrying the handler with exponential
// backoff before committing. A message that keeps failing is committed
// anyway so the consumer does not wedge on a poison event.
func (c *Consumer) Run(ctx context.Context, handler func(context.Context, []byte) error) error {
	if c == nil || c.r == nil {
		return errors.New("consumer not initialized")
	}
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		var attempt int
		for {
			err := handler(ctx, m.Value)
			if err == nil {
				break
			}
			attempt++
			if attempt > c.cfg.MaxRetries {
				break
			}
			select {
			case <-time.After(backoffDuration(
				time.Duration(c.cfg.BackoffMinMs)*time.Millisecond,
				time.Duration(c.cfg.BackoffMaxMs)*time.Millisecond,
				attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.r == nil {
		return nil
	}
	return c.r.Close()
}

func backoffDuration(min, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(min) * math.Pow(2, float64(attempt-1)))
	if d > max {
		d = max
	}
	if d > 0 {
		d = time.Duration(rand.Int63n(int64(d)))
	}
	return d
}

// HashKey gives a stable partition key so all events of one instrument land
// on the same partition.
func HashKey(s string) []byte {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return b
}
