package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Label kinds
const (
	KindItem     = "item"
	KindLocation = "location"
)

// Layout holds the page grid for a label sheet
type Layout struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// LabelRequest holds configuration for PDF generation
type LabelRequest struct {
	Kind     string  `json:"kind"`     // item, location
	Codes    []Label `json:"codes"`    // one entry per printed code
	QtyPerID int     `json:"qtyPerId"` // repeats per code
	Layout   Layout  `json:"layout"`
}

// Label is one code with its human-readable caption
type Label struct {
	Code    string `json:"code"`
	Caption string `json:"caption"`
}

// GenerateLabelsPDF creates a PDF sheet of QR labels
func GenerateLabelsPDF(req LabelRequest) ([]byte, error) {
	if len(req.Codes) == 0 {
		return nil, fmt.Errorf("no codes to print")
	}
	if req.QtyPerID < 1 {
		req.QtyPerID = 1
	}
	layout := req.Layout
	if layout.Cols == 0 {
		layout.Cols = 3
	}
	if layout.Rows == 0 {
		layout.Rows = 7
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(layout.Cols-1) * layout.GapX
	totalGapY := float64(layout.Rows-1) * layout.GapY

	availW := pageWidth - (layout.MarginLeft * 2)
	availH := pageHeight - (layout.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(layout.Cols)
	labelH := (availH - totalGapY) / float64(layout.Rows)

	labelsPerPage := layout.Cols * layout.Rows

	i := 0
	for _, label := range req.Codes {
		for rep := 0; rep < req.QtyPerID; rep++ {
			if i%labelsPerPage == 0 {
				pdf.AddPage()
			}

			indexOnPage := i % labelsPerPage
			col := indexOnPage % layout.Cols
			row := indexOnPage / layout.Cols

			x := layout.MarginLeft + float64(col)*(labelW+layout.GapX)
			y := layout.MarginTop + float64(row)*(labelH+layout.GapY)

			qrPng, err := qrcode.Encode(label.Code, qrcode.Low, 256)
			if err != nil {
				return nil, err
			}

			imgName := fmt.Sprintf("qr_%d", i)
			imgOptions := gofpdf.ImageOptions{
				ImageType: "PNG",
				ReadDpi:   true,
			}

			reader := bytes.NewReader(qrPng)
			_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, reader)

			// QR centered in the label, taking up 70% of the height
			qrSize := labelH * 0.7
			if qrSize > labelW {
				qrSize = labelW * 0.9
			}

			qrX := x + (labelW-qrSize)/2
			qrY := y + (labelH-qrSize)/2 - 2

			pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

			pdf.SetXY(x, y+labelH-6)
			pdf.SetFontSize(8)
			pdf.CellFormat(labelW, 5, label.Caption, "", 0, "C", false, 0, "")

			pdf.SetXY(x, y+1)
			pdf.SetFontSize(6)
			pdf.CellFormat(labelW, 3, req.Kind, "", 0, "R", false, 0, "")

			i++
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
