package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// ScanResponse standardizes the scan resolution result
type ScanResponse struct {
	Type   string      `json:"type"` // item, location
	Entity interface{} `json:"entity"`
}

// resolveScan turns a raw scanned code into a typed entity.
// Locations win over items: bin labels are scanned far more often and
// their code space is controlled, while item barcodes come from suppliers.
func (r *Router) resolveScan(w http.ResponseWriter, req *http.Request) {
	code := strings.TrimSpace(req.URL.Query().Get("code"))
	if code == "" {
		respondError(w, http.StatusBadRequest, "Empty code")
		return
	}

	// 1. Try location by code
	var loc models.StockLocation
	err := r.db.Where("code = ?", code).First(&loc).Error
	if err == nil {
		respondJSON(w, http.StatusOK, ScanResponse{Type: "location", Entity: loc})
		return
	}
	if err != gorm.ErrRecordNotFound {
		respondError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}

	// 2. Try product by barcode, then SKU
	var product models.Product
	err = r.db.Where("barcode = ?", code).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		err = r.db.Where("sku = ?", code).First(&product).Error
	}
	if err == gorm.ErrRecordNotFound {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, ScanResponse{Type: "item", Entity: product})
}
