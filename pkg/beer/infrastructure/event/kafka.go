package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"beerstock/pkg/common/domain"
)

const eventTypeHeader = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes domain events as JSON, keyed by aggregate id so
// every event of one beer lands on the same partition.
type KafkaDispatcher struct {
	writer     messageWriter
	propagator propagation.TextMapPropagator
}

func NewKafkaDispatcher(brokers []string, topic string) *KafkaDispatcher {
	return newKafkaDispatcher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaDispatcher(writer messageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer:     writer,
		propagator: otel.GetTextMapPropagator(),
	}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", event.Type())
	}

	headers := []kafka.Header{{Key: eventTypeHeader, Value: []byte(event.Type())}}
	carrier := headerCarrier{headers: &headers}
	d.propagator.Inject(ctx, carrier)

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.AggregateID()),
		Value:   payload,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
	return errors.Wrapf(err, "failed to publish %s", event.Type())
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// headerCarrier lets the otel propagator write trace context into message headers.
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
