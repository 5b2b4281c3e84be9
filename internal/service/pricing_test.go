package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"repairhub-backend/internal/domain"
)

func TestComputeInvoiceTotals(t *testing.T) {
	items := []domain.OrderItem{{Qty: 2, UnitPrice: 100}}
	got := ComputeInvoiceTotals(items, 20, true, 0.05)

	assert.Equal(t, 200.0, got.Subtotal)
	assert.Equal(t, 180.0, got.AfterDiscount)
	assert.Equal(t, 9.0, got.VATAmount)
	assert.Equal(t, 189.0, got.Total)
}

func TestComputeInvoiceTotalsVATDisabled(t *testing.T) {
	items := []domain.OrderItem{
		{Qty: 1, UnitPrice: 150},
		{Qty: 3, UnitPrice: 25.5},
	}
	got := ComputeInvoiceTotals(items, 0, false, 0.15)

	assert.Equal(t, 226.5, got.Subtotal)
	assert.Equal(t, 0.0, got.VATAmount)
	assert.Equal(t, 226.5, got.Total)
}

func TestComputeInvoiceTotalsEmpty(t *testing.T) {
	got := ComputeInvoiceTotals(nil, 0, true, 0.05)
	assert.Equal(t, 0.0, got.Subtotal)
	assert.Equal(t, 0.0, got.Total)
}
