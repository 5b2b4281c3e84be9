package service

import (
	"fmt"
	"net/url"
	"strings"

	"repairhub-backend/internal/domain"
)

// WhatsAppLink builds a wa.me deep link for the given phone and message.
// Opening the link is the entire outbound-messaging contract; there is no
// delivery confirmation.
func WhatsAppLink(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", normalizePhone(phone), url.QueryEscape(message))
}

// OrderStatusMessage renders the customer-facing text for a status update.
func OrderStatusMessage(o *domain.Order) string {
	device := strings.TrimSpace(strings.Join([]string{o.Brand, o.Model}, " "))
	if device == "" {
		device = o.Device
	}
	switch o.Status {
	case domain.OrderInProgress:
		return fmt.Sprintf("Hi %s, your repair order %s (%s) is now in progress. Technician: %s.", o.CustomerName, o.Code, device, o.Technician)
	case domain.OrderCompleted:
		return fmt.Sprintf("Hi %s, your repair order %s (%s) is completed. Thank you for choosing us!", o.CustomerName, o.Code, device)
	case domain.OrderCancelled:
		return fmt.Sprintf("Hi %s, your repair order %s has been cancelled. Contact us for details.", o.CustomerName, o.Code)
	}
	return fmt.Sprintf("Hi %s, we received your repair order %s (%s). We will contact you shortly.", o.CustomerName, o.Code, device)
}

// normalizePhone strips spacing, dashes and the leading plus so the number is
// in the digits-only form wa.me expects.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
