package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/services/printer"
)

// PrintLabelsRequest selects entities to print and the sheet layout
type PrintLabelsRequest struct {
	Kind     string         `json:"kind"` // item, location
	IDs      []int64        `json:"ids"`
	QtyPerID int            `json:"qtyPerId"`
	Layout   printer.Layout `json:"layout"`
}

// printLabels renders a QR label sheet for items or locations
func (r *Router) printLabels(w http.ResponseWriter, req *http.Request) {
	var body PrintLabelsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(body.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "No ids to print")
		return
	}

	var labels []printer.Label
	switch body.Kind {
	case printer.KindLocation:
		var locations []models.StockLocation
		if err := r.db.Where("id IN ?", body.IDs).Find(&locations).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch locations")
			return
		}
		for _, loc := range locations {
			labels = append(labels, printer.Label{Code: loc.Code, Caption: loc.Name})
		}
	case printer.KindItem:
		var products []models.Product
		if err := r.db.Where("id IN ?", body.IDs).Find(&products).Error; err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch products")
			return
		}
		for _, p := range products {
			code := p.Barcode
			if code == "" {
				code = p.SKU
			}
			labels = append(labels, printer.Label{Code: code, Caption: p.Name})
		}
	default:
		respondError(w, http.StatusBadRequest, "Unknown label kind")
		return
	}

	if len(labels) == 0 {
		respondError(w, http.StatusNotFound, "Nothing found to print")
		return
	}

	pdfBytes, err := printer.GenerateLabelsPDF(printer.LabelRequest{
		Kind:     body.Kind,
		Codes:    labels,
		QtyPerID: body.QtyPerID,
		Layout:   body.Layout,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"labels_%s.pdf\"", body.Kind))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}

// printReceiveAct renders the discrepancy act for a short-received order.
// Answers 204 when every line was received in full.
func (r *Router) printReceiveAct(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	orderID, err := strconv.ParseInt(vars["orderId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var order models.PurchaseOrder
	if err := r.db.Preload("Lines").Preload("Lines.Product").First(&order, orderID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	shortages := order.Shortages()
	if len(shortages) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var profile models.OrgProfile
	err = r.db.First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		respondError(w, http.StatusConflict, "Organization profile is not configured")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	pdfBytes, err := printer.GenerateReceiveActPDF(&profile, &order, shortages)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate act: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"receive_act_%s.pdf\"", order.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}
