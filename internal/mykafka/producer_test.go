package mykafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestPublishEvent_MarshalError(t *testing.T) {
	p, err := NewProducer([]string{"127.0.0.1:1"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	err = p.PublishEvent(context.Background(), TopicOrders, "k", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json.Marshal")
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("order_created", "alice", map[string]any{"price": 200})
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "order_created", ev.Type)
	assert.Equal(t, "alice", ev.Username)
	assert.False(t, ev.OccurredAt.IsZero())
}
