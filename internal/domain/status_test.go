package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderPending, OrderInProgress))
	assert.True(t, CanTransition(OrderPending, OrderCancelled))
	assert.True(t, CanTransition(OrderInProgress, OrderCompleted))
	assert.True(t, CanTransition(OrderInProgress, OrderCancelled))

	assert.False(t, CanTransition(OrderPending, OrderCompleted))
	assert.False(t, CanTransition(OrderCompleted, OrderInProgress))
	assert.False(t, CanTransition(OrderCancelled, OrderPending))
	assert.False(t, CanTransition(OrderCompleted, OrderCompleted))
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []OrderStatus{OrderPending, OrderInProgress, OrderCompleted, OrderCancelled} {
		assert.True(t, ValidOrderStatus(s))
	}
	assert.False(t, ValidOrderStatus("Order Created"))
	assert.False(t, ValidOrderStatus(""))
}
