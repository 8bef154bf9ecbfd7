package printer

import (
	"bytes"
	"testing"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

func TestGenerateLabelsPDF(t *testing.T) {
	req := LabelRequest{
		Kind: KindLocation,
		Codes: []Label{
			{Code: "LOC-A-01-01", Caption: "A-01-01"},
			{Code: "LOC-A-01-02", Caption: "A-01-02"},
		},
		QtyPerID: 3,
	}

	pdfBytes, err := GenerateLabelsPDF(req)
	if err != nil {
		t.Fatalf("Failed to generate labels PDF: %v", err)
	}
	if len(pdfBytes) == 0 {
		t.Fatal("PDF should not be empty")
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("Output should be a PDF document")
	}
}

func TestGenerateLabelsPDFEmpty(t *testing.T) {
	if _, err := GenerateLabelsPDF(LabelRequest{Kind: KindItem}); err == nil {
		t.Error("Expected error for empty code list")
	}
}

func TestGenerateReceiveActPDF(t *testing.T) {
	profile := &models.OrgProfile{
		OrgName:       "Test Warehouse LLC",
		LegalAddress:  "1 Dock Street",
		ActualAddress: "1 Dock Street",
		INN:           "1234567890",
		KPP:           "123456789",
	}
	order := &models.PurchaseOrder{ID: 7, Name: "PO-0007"}
	shortages := []models.Shortage{
		{ProductID: 1, ProductName: "Widget", OrderedQty: 10, ReceivedQty: 3},
	}

	pdfBytes, err := GenerateReceiveActPDF(profile, order, shortages)
	if err != nil {
		t.Fatalf("Failed to generate act PDF: %v", err)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("Output should be a PDF document")
	}

	// No shortages means nothing to print
	if _, err := GenerateReceiveActPDF(profile, order, nil); err == nil {
		t.Error("Expected error when there are no shortages")
	}
}
