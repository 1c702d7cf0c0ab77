package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

func event(op core.Operation, key interface{}) *core.RecordEvent {
	return &core.RecordEvent{
		ID:        "e-" + string(op),
		Table:     "T_ATO",
		Operation: op,
		Key:       key,
		Data:      map[string]interface{}{"ATO_ID": key},
	}
}

func TestMemoryPublisher(t *testing.T) {
	p := NewMemoryPublisher(2)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, event(core.OperationInsert, 1)))
	require.NoError(t, p.Publish(ctx, event(core.OperationUpdate, 1)))
	assert.ErrorIs(t, p.Publish(ctx, event(core.OperationDelete, 1)), ErrBufferFull)
	assert.Equal(t, 2, p.Size())

	drained := p.Drain(1)
	require.Len(t, drained, 1)
	assert.Equal(t, core.OperationInsert, drained[0].Operation)
	assert.False(t, drained[0].Timestamp.IsZero())

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(ctx, event(core.OperationDelete, 1)), ErrPublisherClosed)

	rest := p.Drain(0)
	require.Len(t, rest, 1)
	assert.Equal(t, core.OperationUpdate, rest[0].Operation)
	assert.NoError(t, p.Close())
}

func TestMemoryPublisher_RejectsInvalidEvents(t *testing.T) {
	p := NewMemoryPublisher(0)
	ctx := context.Background()

	assert.ErrorIs(t, p.Publish(ctx, nil), ErrInvalidEvent)
	assert.ErrorIs(t, p.Publish(ctx, &core.RecordEvent{Operation: core.OperationInsert}), ErrInvalidEvent)
	assert.ErrorIs(t, p.Publish(ctx, &core.RecordEvent{Table: "T", Operation: "MERGE"}), ErrInvalidEvent)
	assert.Zero(t, p.Size())
}

func TestToMessage(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := event(core.OperationUpdate, int64(42))
	e.Timestamp = ts

	msg, err := toMessage(e)
	require.NoError(t, err)
	assert.Equal(t, "T_ATO:42", string(msg.Key))
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "UPDATE", string(msg.Headers[0].Value))

	var decoded core.RecordEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "T_ATO", decoded.Table)
	assert.Equal(t, float64(42), decoded.Key)

	_, err = toMessage(&core.RecordEvent{})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestStreamArgs(t *testing.T) {
	args, err := streamArgs("orius:events", 500, event(core.OperationDelete, "7"))
	require.NoError(t, err)
	assert.Equal(t, "orius:events", args.Stream)
	assert.Equal(t, int64(500), args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.(map[string]interface{})
	assert.Equal(t, "T_ATO:7", values["key"])
	assert.Equal(t, "DELETE", values["operation"])

	unbounded, err := streamArgs("s", 0, event(core.OperationInsert, 1))
	require.NoError(t, err)
	assert.False(t, unbounded.Approx)
}

func TestCreate(t *testing.T) {
	assert.Equal(t, []string{"kafka", "memory", "redis"}, RegisteredTypes())

	cfg := ConfigFrom(registry.DefaultInternalConfig().Events)
	cfg.Type = "memory"
	p, err := Create(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryPublisher{}, p)
	require.NoError(t, p.Close())

	_, err = Create(Config{Type: "sns"})
	assert.ErrorContains(t, err, "unsupported events type")

	cfg.Type = "kafka"
	cfg.Kafka.Brokers = nil
	_, err = Create(cfg)
	assert.ErrorContains(t, err, "broker")
}

func TestKafkaPublisher_Closed(t *testing.T) {
	p, err := NewKafkaPublisher(registry.DefaultInternalConfig().Events.KafkaConfig)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), event(core.OperationInsert, 1)), ErrPublisherClosed)
}

func TestValidators(t *testing.T) {
	config := registry.DefaultInternalConfig()
	config.Events.KafkaConfig.RequiredAcks = 3

	v, ok := registry.GetValidator("events.kafka")
	require.True(t, ok)
	assert.ErrorContains(t, v.Validate(config), "required_acks")

	config.Events.Stream = ""
	v, ok = registry.GetValidator("events.redis")
	require.True(t, ok)
	assert.ErrorContains(t, v.Validate(config), "stream")

	_, ok = registry.GetValidator("events.memory")
	assert.True(t, ok)
}

type scriptedReader struct {
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *scriptedReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func TestKafkaConsumer_SkipsUndecodableMessages(t *testing.T) {
	good, err := toMessage(event(core.OperationInsert, int64(7)))
	require.NoError(t, err)
	good.Offset = 2

	reader := &scriptedReader{messages: []kafka.Message{
		{Offset: 1, Value: []byte("not json")},
		good,
	}}
	consumer := &KafkaConsumer{reader: reader, topic: "orius-record-events"}

	ctx, cancel := context.WithCancel(context.Background())
	var seen []*core.RecordEvent
	err = consumer.Consume(ctx, func(_ context.Context, e *core.RecordEvent) error {
		seen = append(seen, e)
		cancel()
		return nil
	})
	require.NoError(t, err)

	require.Len(t, seen, 1)
	assert.Equal(t, "T_ATO", seen[0].Table)
	assert.Equal(t, core.OperationInsert, seen[0].Operation)
	assert.Equal(t, []int64{1, 2}, reader.committed)

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}

func TestKafkaConsumer_HandlerFailureStopsWithoutCommit(t *testing.T) {
	msg, err := toMessage(event(core.OperationDelete, int64(9)))
	require.NoError(t, err)
	msg.Offset = 5

	reader := &scriptedReader{messages: []kafka.Message{msg}}
	consumer := &KafkaConsumer{reader: reader, topic: "orius-record-events"}

	err = consumer.Consume(context.Background(), func(context.Context, *core.RecordEvent) error {
		return errors.New("sink unavailable")
	})
	assert.ErrorContains(t, err, "handler failed at offset 5")
	assert.Empty(t, reader.committed)
}

func TestNewKafkaConsumer_RequiresTopic(t *testing.T) {
	_, err := NewKafkaConsumer(registry.InternalKafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}
