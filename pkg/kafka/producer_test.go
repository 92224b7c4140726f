package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWriter records messages instead of talking to a broker.
type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewEvent_Fields(t *testing.T) {
	type orderPlaced struct {
		OrderID string `json:"order_id"`
		Total   string `json:"total"`
	}

	data := orderPlaced{OrderID: "ord-123", Total: "34.04"}
	event, err := NewEvent("order.placed", "ord-123", "order", "storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "order.placed", event.EventType)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got orderPlaced
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("x", "a", "t", "s", make(chan int))
	require.Error(t, err)
}

func TestUnmarshalEvent(t *testing.T) {
	original, err := NewEvent("product.updated", "p-9", "product", "catalog", map[string]string{"name": "Lamp"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-1").WithMetadata("seller", "s-1")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.Equal(t, "s-1", restored.Metadata["seller"])

	_, err = UnmarshalEvent([]byte(`{"event_id":"e-1"}`))
	assert.ErrorIs(t, err, ErrMissingEventType)

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, testLogger())

	event, err := NewEvent("order.placed", "ord-1", "order", "storefront", map[string]string{"a": "b"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9")

	topic := Topic("order", "placed")
	before := testutil.ToFloat64(producerMessagesPublished.WithLabelValues(topic))
	require.NoError(t, p.Publish(context.Background(), topic, event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "storefront.order.placed", msg.Topic)
	assert.Equal(t, "ord-1", string(msg.Key))
	assert.Equal(t, "order.placed", header(msg, "event_type"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)

	assert.Equal(t, before+1, testutil.ToFloat64(producerMessagesPublished.WithLabelValues(topic)))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, testLogger())

	event, err := NewEvent("cart.changed", "u-1", "cart", "storefront", nil)
	require.NoError(t, err)

	topic := "storefront.cart.changed.errtest"
	err = p.Publish(context.Background(), topic, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), topic)
	assert.Equal(t, float64(1), testutil.ToFloat64(producerPublishErrors.WithLabelValues(topic)))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, nil, testLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers")
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "storefront.cart.changed", Topic("cart", "changed"))
}
