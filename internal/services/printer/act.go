package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// GenerateReceiveActPDF renders the discrepancy act for a short-received
// purchase order: the org requisites header followed by one row per shortage.
func GenerateReceiveActPDF(profile *models.OrgProfile, order *models.PurchaseOrder, shortages []models.Shortage) ([]byte, error) {
	if len(shortages) == 0 {
		return nil, fmt.Errorf("no shortages to print")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Receiving Discrepancy Act", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order %s dated %s", order.Name, time.Now().Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Requisites block
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Organization: %s", profile.OrgName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Legal address: %s", profile.LegalAddress), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Actual address: %s", profile.ActualAddress), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("INN: %s  KPP: %s", profile.INN, profile.KPP), "", 1, "L", false, 0, "")
	if profile.Phone != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Phone: %s", profile.Phone), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Table header
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(90, 7, "Product", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Ordered", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Received", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Short", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, s := range shortages {
		name := s.ProductName
		if name == "" {
			name = fmt.Sprintf("#%d", s.ProductID)
		}
		pdf.CellFormat(90, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", s.OrderedQty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", s.ReceivedQty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", s.OrderedQty-s.ReceivedQty), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	pdf.CellFormat(0, 6, "Received by: ____________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Supplier representative: ____________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
