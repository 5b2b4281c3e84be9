package service

import "repairhub-backend/internal/domain"

// InvoiceTotals is the breakdown of an order invoice. Intermediate values are
// kept unrounded; formatting to two decimals happens at display time.
type InvoiceTotals struct {
	Subtotal      float64
	Discount      float64
	AfterDiscount float64
	VATAmount     float64
	Total         float64
}

// ComputeInvoiceTotals sums line items, applies a flat discount, then VAT on
// the discounted amount when enabled.
func ComputeInvoiceTotals(items []domain.OrderItem, discount float64, vatEnabled bool, vatRate float64) InvoiceTotals {
	var subtotal float64
	for _, it := range items {
		subtotal += float64(it.Qty) * it.UnitPrice
	}
	afterDiscount := subtotal - discount
	var vat float64
	if vatEnabled {
		vat = afterDiscount * vatRate
	}
	return InvoiceTotals{
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: afterDiscount,
		VATAmount:     vat,
		Total:         afterDiscount + vat,
	}
}
