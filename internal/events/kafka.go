package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// KafkaPublisher writes record events to a Kafka topic.
// Messages are keyed by table and primary key so the events of one row
// stay on one partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher creates a synchronous Kafka writer for config.Topic.
func NewKafkaPublisher(config registry.InternalKafkaConfig) (*KafkaPublisher, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}

	log.Printf("[EVENTS:KAFKA] Brokers: %v, Topic: %s, Required Acks: %d", config.Brokers, config.Topic, config.RequiredAcks)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
		BatchBytes:   int64(config.MaxMessageBytes),
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		MaxAttempts:  3,
		Async:        false,
	}

	return &KafkaPublisher{writer: writer, topic: config.Topic}, nil
}

// Publish writes one event and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event *core.RecordEvent) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[EVENTS:KAFKA] ERROR: Failed to write %s event for %s to topic %s: %v", event.Operation, event.Table, p.topic, err)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	log.Printf("[EVENTS:KAFKA] Produced %s event for %s (key: %s, duration: %v)", event.Operation, event.Table, msg.Key, time.Since(start))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func toMessage(event *core.RecordEvent) (kafka.Message, error) {
	if err := validate(event); err != nil {
		return kafka.Message{}, err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal record event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(partitionKey(event)),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(event.Operation)},
			{Key: "table", Value: []byte(event.Table)},
		},
	}, nil
}

// messageReader is the part of kafka.Reader the consumer drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads record events back from a topic as part of a
// consumer group.
type KafkaConsumer struct {
	reader messageReader
	topic  string
}

// NewKafkaConsumer creates a group reader starting at the oldest offset
// for a new group.
func NewKafkaConsumer(config registry.InternalKafkaConfig) (*KafkaConsumer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if config.GroupID == "" {
		config.GroupID = "orius-record-events"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		MaxWait:     config.MaxWait,
		StartOffset: kafka.FirstOffset,
	})
	log.Printf("[EVENTS:KAFKA] Consumer ready on topic %s with group %s", config.Topic, config.GroupID)
	return &KafkaConsumer{reader: reader, topic: config.Topic}, nil
}

// Consume calls handle for each event until ctx ends or handle fails.
// An offset is committed only after handle returns nil for its message.
// Messages that do not decode are committed and skipped.
func (c *KafkaConsumer) Consume(ctx context.Context, handle func(context.Context, *core.RecordEvent) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to fetch message from %s: %w", c.topic, err)
		}

		var event core.RecordEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("[EVENTS:KAFKA] ERROR: Failed to unmarshal message (partition: %d, offset: %d), skipping: %v", msg.Partition, msg.Offset, err)
		} else if err := handle(ctx, &event); err != nil {
			return fmt.Errorf("handler failed at offset %d: %w", msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("[EVENTS:KAFKA] WARNING: Failed to commit offset %d on partition %d: %v", msg.Offset, msg.Partition, err)
		}
	}
}

// Close closes the reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

type kafkaFactory struct{}

func (f *kafkaFactory) Type() string { return "kafka" }

func (f *kafkaFactory) Validate(config Config) error {
	return validateKafka(config.Kafka)
}

func (f *kafkaFactory) Create(config Config) (core.EventPublisher, error) {
	return NewKafkaPublisher(config.Kafka)
}

// KafkaConfigValidator validates events.kafka_config when the events type
// is kafka.
type KafkaConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *KafkaConfigValidator) Type() string { return "events.kafka" }

// Validate validates the Kafka-specific configuration in the internal config.
func (v *KafkaConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	return validateKafka(config.Events.KafkaConfig)
}

func validateKafka(kc registry.InternalKafkaConfig) error {
	if len(kc.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	if kc.Topic == "" {
		return fmt.Errorf("Kafka topic is required")
	}
	if kc.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be greater than 0, got: %d", kc.BatchSize)
	}
	if kc.RequiredAcks < -1 || kc.RequiredAcks > 1 {
		return fmt.Errorf("required_acks must be -1, 0 or 1, got: %d", kc.RequiredAcks)
	}
	if kc.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0, got: %v", kc.WriteTimeout)
	}
	return nil
}

func init() {
	RegisterFactory(&kafkaFactory{})
	registry.RegisterValidator(&KafkaConfigValidator{})
}
