package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"repairhub-backend/internal/domain"
)

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("+966 50-123-4567", "Your order is ready")
	assert.Equal(t, "https://wa.me/966501234567?text=Your+order+is+ready", link)
}

func TestWhatsAppLinkEscapesMessage(t *testing.T) {
	link := WhatsAppLink("966501234567", "50% off & more?")
	assert.Contains(t, link, "text=50%25+off+%26+more%3F")
}

func TestOrderStatusMessage(t *testing.T) {
	o := &domain.Order{
		Code:         "ORD-1001",
		CustomerName: "Sara",
		Brand:        "Lenovo",
		Model:        "ThinkPad X1",
		Technician:   "Omar",
	}

	o.Status = domain.OrderPending
	assert.Contains(t, OrderStatusMessage(o), "we received your repair order ORD-1001")

	o.Status = domain.OrderInProgress
	msg := OrderStatusMessage(o)
	assert.Contains(t, msg, "in progress")
	assert.Contains(t, msg, "Omar")

	o.Status = domain.OrderCompleted
	assert.Contains(t, OrderStatusMessage(o), "completed")

	o.Status = domain.OrderCancelled
	assert.Contains(t, OrderStatusMessage(o), "cancelled")
}
