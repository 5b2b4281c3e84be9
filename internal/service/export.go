package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
	"repairhub-backend/internal/domain"
)

// utf8BOM prefixes the inventory export so spreadsheet apps pick up UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StockStatus labels a part's quantity against its minimum-stock threshold.
func StockStatus(quantity, minStock int) string {
	switch {
	case quantity == 0:
		return "Out Of Stock"
	case quantity <= minStock:
		return "Low Stock"
	}
	return "In Stock"
}

// Report row shapes live in domain so the repository aggregates and the
// exporters share them.
type (
	RevenueRow               = domain.RevenueRow
	TechnicianPerformanceRow = domain.TechnicianPerformanceRow
)

func ExportOrdersCSV(orders []domain.Order) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"code", "customer", "phone", "device", "brand", "model", "issue", "status", "technician", "total", "created_at"})
	for _, o := range orders {
		totals := ComputeInvoiceTotals(o.Items, o.Discount, o.VATEnabled, o.VATRate)
		_ = w.Write([]string{
			o.Code,
			o.CustomerName,
			o.CustomerPhone,
			o.Device,
			o.Brand,
			o.Model,
			o.Issue,
			string(o.Status),
			o.Technician,
			formatAmount(totals.Total),
			o.CreatedAt.Format("2006-01-02"),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func ExportRevenueCSV(rows []RevenueRow) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"date", "orders", "revenue"})
	for _, r := range rows {
		_ = w.Write([]string{r.Date, strconv.Itoa(r.Orders), formatAmount(r.Revenue)})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func ExportTechnicianPerformanceCSV(rows []TechnicianPerformanceRow) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"technician", "completed_orders", "avg_rating", "revenue"})
	for _, r := range rows {
		_ = w.Write([]string{
			r.Name,
			strconv.Itoa(r.Completed),
			strconv.FormatFloat(r.AvgRating, 'f', 1, 64),
			formatAmount(r.Revenue),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportInventoryCSV includes a UTF-8 BOM; part names routinely carry
// non-ASCII characters.
func ExportInventoryCSV(parts []domain.Part) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(utf8BOM)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"sku", "name", "quantity", "min_stock", "unit_price", "status", "supplier"})
	for _, p := range parts {
		_ = w.Write([]string{
			p.SKU,
			p.Name,
			strconv.Itoa(p.Quantity),
			strconv.Itoa(p.MinStock),
			formatAmount(p.UnitPrice),
			StockStatus(p.Quantity, p.MinStock),
			p.Supplier,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func ExportInventoryXLSX(parts []domain.Part) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Inventory"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"SKU", "Name", "Quantity", "Min Stock", "Unit Price", "Status", "Supplier"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, p := range parts {
		row := r + 2
		values := []any{
			p.SKU,
			p.Name,
			p.Quantity,
			p.MinStock,
			p.UnitPrice,
			StockStatus(p.Quantity, p.MinStock),
			p.Supplier,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "D", 10)
	_ = f.SetColWidth(sheet, "E", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 14)
	_ = f.SetColWidth(sheet, "G", "G", 20)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "G1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
