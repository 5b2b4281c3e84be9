package service

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"repairhub-backend/internal/domain"
)

func TestStockStatus(t *testing.T) {
	assert.Equal(t, "Out Of Stock", StockStatus(0, 5))
	assert.Equal(t, "Out Of Stock", StockStatus(0, 0))
	assert.Equal(t, "Low Stock", StockStatus(3, 5))
	assert.Equal(t, "Low Stock", StockStatus(5, 5))
	assert.Equal(t, "In Stock", StockStatus(6, 5))
	assert.Equal(t, "In Stock", StockStatus(1, 0))
}

func TestExportInventoryCSVHasBOM(t *testing.T) {
	data, err := ExportInventoryCSV([]domain.Part{
		{SKU: "SCR-01", Name: "شاشة iPhone 13", Quantity: 2, MinStock: 5, UnitPrice: 349.5, Supplier: "TechParts"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(data[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"sku", "name", "quantity", "min_stock", "unit_price", "status", "supplier"}, rows[0])
	assert.Equal(t, []string{"SCR-01", "شاشة iPhone 13", "2", "5", "349.50", "Low Stock", "TechParts"}, rows[1])
}

func TestExportOrdersCSVColumns(t *testing.T) {
	data, err := ExportOrdersCSV([]domain.Order{{
		Code:          "ORD-1",
		CustomerName:  "Sara",
		CustomerPhone: "966501234567",
		Device:        "laptop",
		Brand:         "Lenovo",
		Model:         "X1",
		Issue:         "Hardware: Overheating Fix",
		Status:        domain.OrderCompleted,
		Technician:    "Omar",
		Items:         []domain.OrderItem{{Qty: 2, UnitPrice: 100}},
		Discount:      20,
		VATEnabled:    true,
		VATRate:       0.05,
		CreatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"), "orders export has no BOM")

	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"code", "customer", "phone", "device", "brand", "model", "issue", "status", "technician", "total", "created_at"}, rows[0])
	assert.Equal(t, "189.00", rows[1][9])
	assert.Equal(t, "2026-03-14", rows[1][10])
}

func TestExportRevenueCSV(t *testing.T) {
	data, err := ExportRevenueCSV([]RevenueRow{
		{Date: "2026-03-14", Orders: 3, Revenue: 1240.5},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"date", "orders", "revenue"}, rows[0])
	assert.Equal(t, []string{"2026-03-14", "3", "1240.50"}, rows[1])
}

func TestExportTechnicianPerformanceCSV(t *testing.T) {
	data, err := ExportTechnicianPerformanceCSV([]TechnicianPerformanceRow{
		{Name: "Omar", Completed: 12, AvgRating: 4.6667, Revenue: 5400},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"technician", "completed_orders", "avg_rating", "revenue"}, rows[0])
	assert.Equal(t, []string{"Omar", "12", "4.7", "5400.00"}, rows[1])
}
