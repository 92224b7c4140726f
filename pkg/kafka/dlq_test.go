package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLQTopic(t *testing.T) {
	tests := map[string]string{
		"ecommerce.order.confirmed": "storefront.dlq.ecommerce.order.confirmed",
		"storefront.order.placed":   "storefront.dlq.storefront.order.placed",
		"":                          "storefront.dlq.",
	}
	for in, want := range tests {
		if got := DLQTopic(in); got != want {
			t.Errorf("DLQTopic(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDLQProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: testLogger()}

	orig := kafka.Message{
		Topic:     "ecommerce.order.confirmed",
		Partition: 2,
		Offset:    41,
		Key:       []byte("ord-1"),
		Value:     []byte(`{"event_type":"order.confirmed"}`),
		Headers:   []kafka.Header{{Key: "event_type", Value: []byte("order.confirmed")}},
	}
	require.NoError(t, d.Publish(context.Background(), orig, errors.New("order lookup failed"), "storefront-checkout"))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "storefront.dlq.ecommerce.order.confirmed", msg.Topic)
	assert.Equal(t, orig.Key, msg.Key)
	assert.Equal(t, orig.Value, msg.Value)
	assert.Equal(t, "order.confirmed", header(msg, "event_type"))
	assert.Equal(t, "2", header(msg, "dlq.original_partition"))
	assert.Equal(t, "41", header(msg, "dlq.original_offset"))
	assert.Equal(t, "storefront-checkout", header(msg, "dlq.consumer_group"))
	assert.Equal(t, "order lookup failed", header(msg, "dlq.error"))
}

func TestDLQProducer_PublishError(t *testing.T) {
	d := &DLQProducer{writer: &fakeWriter{err: errors.New("broker down")}, logger: testLogger()}
	err := d.Publish(context.Background(), kafka.Message{Topic: "t"}, nil, "g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storefront.dlq.t")
}
