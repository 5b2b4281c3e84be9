package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesTopicSubscribers(t *testing.T) {
	b := New()
	ordersCh, cancelOrders := b.Subscribe("orders")
	defer cancelOrders()
	partsCh, cancelParts := b.Subscribe("parts")
	defer cancelParts()

	b.Publish("orders", "updated", 42)

	select {
	case ev := <-ordersCh:
		assert.Equal(t, "orders", ev.Topic)
		assert.Equal(t, "updated", ev.Action)
		assert.Equal(t, int64(42), ev.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event on orders topic")
	}

	select {
	case ev := <-partsCh:
		t.Fatalf("parts subscriber must not receive orders event, got %+v", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("orders")
	require.Equal(t, 1, b.Subscribers("orders"))

	cancel()
	assert.Equal(t, 0, b.Subscribers("orders"))

	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent.
	cancel()
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe("orders")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish("orders", "created", int64(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
