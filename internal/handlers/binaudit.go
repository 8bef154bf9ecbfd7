package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// ExpectedItem is one expected quantity at an audited location
type ExpectedItem struct {
	Item        models.Product `json:"item"`
	ExpectedQty float64        `json:"expectedQty"`
}

// ExpectedResponse is the snapshot served for one location audit
type ExpectedResponse struct {
	Location models.StockLocation `json:"location"`
	Items    []ExpectedItem       `json:"items"`
}

// DiscrepancyLine is one reported expected-vs-counted difference
type DiscrepancyLine struct {
	ItemID      int64   `json:"itemId"`
	ExpectedQty float64 `json:"expectedQty"`
	CountedQty  float64 `json:"countedQty"`
}

// BinAuditConfirmRequest is the body of a confirm-OK or discrepancy call
type BinAuditConfirmRequest struct {
	OpID       string            `json:"opId"`
	LocationID int64             `json:"locationId"`
	Lines      []DiscrepancyLine `json:"lines,omitempty"`
}

// startBinAudit opens a new audit session
func (r *Router) startBinAudit(w http.ResponseWriter, req *http.Request) {
	session := models.BinAuditSession{
		State:     models.AuditStateActive,
		StartedBy: userID(req),
		StartedAt: time.Now(),
	}
	if err := r.db.Create(&session).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"sessionId": session.ID})
}

// binAuditExpected returns the expected item quantities at one location
func (r *Router) binAuditExpected(w http.ResponseWriter, req *http.Request) {
	locationID, err := strconv.ParseInt(req.URL.Query().Get("locationId"), 10, 64)
	if err != nil || locationID == 0 {
		respondError(w, http.StatusBadRequest, "locationId is required")
		return
	}

	var loc models.StockLocation
	if err := r.db.First(&loc, locationID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Location not found")
		return
	}

	var quants []models.StockQuant
	if err := r.db.Where("location_id = ?", locationID).Preload("Product").Find(&quants).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stock")
		return
	}

	resp := ExpectedResponse{Location: loc, Items: make([]ExpectedItem, 0, len(quants))}
	for _, q := range quants {
		resp.Items = append(resp.Items, ExpectedItem{Item: q.Product, ExpectedQty: q.Quantity})
	}
	respondJSON(w, http.StatusOK, resp)
}

// activeSession loads an active session or answers with the proper error
func (r *Router) activeSession(w http.ResponseWriter, req *http.Request) (*models.BinAuditSession, bool) {
	vars := mux.Vars(req)
	var session models.BinAuditSession
	if err := r.db.First(&session, "id = ?", vars["sessionId"]).Error; err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	if session.State != models.AuditStateActive {
		respondError(w, http.StatusConflict, "Session already finished")
		return nil, false
	}
	return &session, true
}

// expectedSnapshot captures the current quantities at a location
func (r *Router) expectedSnapshot(locationID int64) (models.QtyMap, error) {
	var quants []models.StockQuant
	if err := r.db.Where("location_id = ?", locationID).Find(&quants).Error; err != nil {
		return nil, err
	}
	snapshot := make(models.QtyMap, len(quants))
	for _, q := range quants {
		snapshot[q.ProductID] = q.Quantity
	}
	return snapshot, nil
}

// confirmBinAudit finalizes a location visit with no discrepancies
func (r *Router) confirmBinAudit(w http.ResponseWriter, req *http.Request) {
	session, ok := r.activeSession(w, req)
	if !ok {
		return
	}

	var body BinAuditConfirmRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OpID == "" || body.LocationID == 0 {
		respondError(w, http.StatusBadRequest, "opId and locationId are required")
		return
	}

	snapshot, err := r.expectedSnapshot(body.LocationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to snapshot stock")
		return
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		dup, err := recordOperation(tx, &models.StockOperation{
			OpID:           body.OpID,
			Kind:           models.OpKindAuditOK,
			FromLocationID: &body.LocationID,
			UserID:         userID(req),
		})
		if err != nil || dup {
			return err
		}
		return tx.Create(&models.BinAuditVisit{
			SessionID:  session.ID,
			LocationID: body.LocationID,
			Result:     models.VisitResultOK,
			Expected:   snapshot,
		}).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record visit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reportBinAuditDiscrepancy records counted-vs-expected differences and
// corrects the on-hand quantities to the counted truth
func (r *Router) reportBinAuditDiscrepancy(w http.ResponseWriter, req *http.Request) {
	session, ok := r.activeSession(w, req)
	if !ok {
		return
	}

	var body BinAuditConfirmRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OpID == "" || body.LocationID == 0 {
		respondError(w, http.StatusBadRequest, "opId and locationId are required")
		return
	}
	if len(body.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "No discrepancy lines")
		return
	}
	for _, line := range body.Lines {
		if line.CountedQty < 0 {
			respondError(w, http.StatusBadRequest, "countedQty must not be negative")
			return
		}
	}

	snapshot, err := r.expectedSnapshot(body.LocationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to snapshot stock")
		return
	}

	linesJSON, _ := json.Marshal(body.Lines)

	err = r.db.Transaction(func(tx *gorm.DB) error {
		dup, err := recordOperation(tx, &models.StockOperation{
			OpID:           body.OpID,
			Kind:           models.OpKindAuditDiff,
			FromLocationID: &body.LocationID,
			Lines:          linesJSON,
			UserID:         userID(req),
		})
		if err != nil || dup {
			return err
		}
		visit := models.BinAuditVisit{
			SessionID:  session.ID,
			LocationID: body.LocationID,
			Result:     models.VisitResultDiscrepancy,
			Expected:   snapshot,
			Lines:      linesJSON,
		}
		if err := tx.Create(&visit).Error; err != nil {
			return err
		}
		for _, line := range body.Lines {
			if err := setQuant(tx, body.LocationID, line.ItemID, line.CountedQty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record discrepancy")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// finishBinAudit closes the session
func (r *Router) finishBinAudit(w http.ResponseWriter, req *http.Request) {
	session, ok := r.activeSession(w, req)
	if !ok {
		return
	}

	now := time.Now()
	session.State = models.AuditStateFinished
	session.EndedAt = &now
	if err := r.db.Save(session).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to finish session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
