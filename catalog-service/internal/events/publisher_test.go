package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fjod/food_delivery/catalog-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), ProductEvent{
		Type:      ProductCreated,
		ProductID: 4321,
		Product:   &domain.Product{ID: 4321, Name: "Soup"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "4321", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "product.created", string(msg.Headers[0].Value))

	var got ProductEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ProductCreated, got.Type)
	assert.Equal(t, "Soup", got.Product.Name)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), ProductEvent{Type: ProductDeleted, ProductID: 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher("localhost:9092")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, Topic, w.Topic)
	assert.NoError(t, p.Close())
}
