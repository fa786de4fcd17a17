package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"go-rackstock-ws/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderDeliveryDocument renders the goods/delivery note for a transaction.
// Items are expected to be loaded with their Product and Rack relations;
// missing relations degrade to raw ids rather than failing the render.
func RenderDeliveryDocument(tx *model.Transaction) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Delivery Order "+tx.Code, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "DELIVERY ORDER", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Transaction Code: %s", tx.Code), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Direction: %s", strings.ToUpper(string(tx.Direction))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if tx.InvoiceNumber != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Invoice: %s", tx.InvoiceNumber), "", 1, "L", false, 0, "")
	}
	if tx.SupplierName != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Supplier: %s", tx.SupplierName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(10, 8, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(70, 8, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Rack", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 8, "Prev", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 8, "New", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for i, item := range tx.Items {
		productName := item.ProductID.String()
		if item.Product != nil {
			productName = fmt.Sprintf("%s (%s)", item.Product.Name, item.Product.SKU)
		}
		rackNumber := item.RackID.String()[:8]
		if item.Rack != nil {
			rackNumber = item.Rack.RackNumber
		}
		pdf.CellFormat(10, 8, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 8, productName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 8, rackNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.PreviousStock), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.NewStock), "1", 1, "R", false, 0, "")
	}

	if tx.Message != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, "Note: "+tx.Message, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
