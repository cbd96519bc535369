package infra

// pdf.go — printable purchase order using go-pdf/fpdf.
// A4 portrait with:
//   - Company header and order number
//   - Supplier block and order dates
//   - Item table (supply, quantity, unit price, line total)
//   - Bold total and notes

import (
	"bytes"
	"fmt"

	"supplytrack/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderPurchaseOrderPDF returns the PDF bytes for order. order.Items and
// order.Supplier must be loaded.
func RenderPurchaseOrderPDF(order *model.PurchaseOrder, companyName string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(companyName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Purchase Order "+order.OrderNumber, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Supplier and dates ───────────────────────────────────────────────────
	half := contentW / 2
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(half, 5, "Supplier", "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 5, "Order", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	supplierLines := []string{"", "", ""}
	if s := order.Supplier; s != nil {
		supplierLines = []string{s.Name, s.ContactName, s.Email}
	}
	orderLines := []string{
		"Date: " + order.OrderDate.Format("2006-01-02"),
		"Status: " + string(order.Status),
		"Payment: " + string(order.PaymentStatus),
	}
	if order.ExpectedDate != nil {
		orderLines = append(orderLines, "Expected: "+order.ExpectedDate.Format("2006-01-02"))
	}
	for i := 0; i < len(orderLines); i++ {
		left := ""
		if i < len(supplierLines) {
			left = supplierLines[i]
		}
		pdf.CellFormat(half, 5, tr(left), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 5, orderLines[i], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Items ─────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50 // supply
	col2 := contentW * 0.14 // qty
	col3 := contentW * 0.18 // unit price
	col4 := contentW * 0.18 // line total

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(col1, 7, "Supply", "1", 0, "L", true, 0, "")
	pdf.CellFormat(col2, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(col3, 7, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col4, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range order.Items {
		name := item.SupplyName
		if len(name) > 48 {
			name = name[:47] + "..."
		}
		pdf.CellFormat(col1, 6, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+item.TotalPrice.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	// ── Total ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2+col3, 7, "TOTAL", "1", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 7, "$"+order.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")

	if order.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr("Notes: "+order.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
