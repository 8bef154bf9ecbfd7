package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/middleware"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// OperationRequest is the shared body of single-item stock operations
type OperationRequest struct {
	OpID           string  `json:"opId"`
	FromLocationID int64   `json:"fromLocationId"`
	ToLocationID   *int64  `json:"toLocationId,omitempty"`
	ItemID         int64   `json:"itemId"`
	Qty            float64 `json:"qty"`
}

// CountRequest is the body of a cycle-count save
type CountRequest struct {
	OpID       string  `json:"opId"`
	LocationID int64   `json:"locationId"`
	ItemID     int64   `json:"itemId"`
	Qty        float64 `json:"qty"`
}

// userID extracts the authenticated user id from the request context
func userID(req *http.Request) string {
	claims, ok := req.Context().Value(middleware.UserContextKey).(jwt.MapClaims)
	if !ok {
		return ""
	}
	id, _ := claims["id"].(string)
	return id
}

// recordOperation inserts the idempotency ledger row inside tx.
// Returns (true, nil) when opID was already recorded, i.e. a duplicate
// submission whose effects must not be re-applied.
func recordOperation(tx *gorm.DB, op *models.StockOperation) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "op_id"}},
		DoNothing: true,
	}).Create(op)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 0, nil
}

// adjustQuant adds delta to the on-hand quantity of one product at one location
func adjustQuant(tx *gorm.DB, locationID, productID int64, delta float64) error {
	var quant models.StockQuant
	err := tx.Where("location_id = ? AND product_id = ?", locationID, productID).First(&quant).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&models.StockQuant{
			LocationID: locationID,
			ProductID:  productID,
			Quantity:   delta,
		}).Error
	}
	if err != nil {
		return err
	}
	quant.Quantity += delta
	return tx.Save(&quant).Error
}

// setQuant overwrites the on-hand quantity of one product at one location
func setQuant(tx *gorm.DB, locationID, productID int64, qty float64) error {
	var quant models.StockQuant
	err := tx.Where("location_id = ? AND product_id = ?", locationID, productID).First(&quant).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&models.StockQuant{
			LocationID: locationID,
			ProductID:  productID,
			Quantity:   qty,
		}).Error
	}
	if err != nil {
		return err
	}
	quant.Quantity = qty
	return tx.Save(&quant).Error
}

// saveCount stores a cycle-count result as the new on-hand truth
func (r *Router) saveCount(w http.ResponseWriter, req *http.Request) {
	var body CountRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OpID == "" || body.LocationID == 0 || body.ItemID == 0 {
		respondError(w, http.StatusBadRequest, "opId, locationId and itemId are required")
		return
	}
	if body.Qty < 0 {
		respondError(w, http.StatusBadRequest, "qty must not be negative")
		return
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		dup, err := recordOperation(tx, &models.StockOperation{
			OpID:           body.OpID,
			Kind:           models.OpKindCount,
			FromLocationID: &body.LocationID,
			ProductID:      &body.ItemID,
			Quantity:       body.Qty,
			UserID:         userID(req),
		})
		if err != nil || dup {
			return err
		}
		return setQuant(tx, body.LocationID, body.ItemID, body.Qty)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// executeMovement handles the shared from→to movement shape
func (r *Router) executeMovement(w http.ResponseWriter, req *http.Request, kind string, needsDestination bool) {
	var body OperationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OpID == "" || body.FromLocationID == 0 || body.ItemID == 0 {
		respondError(w, http.StatusBadRequest, "opId, fromLocationId and itemId are required")
		return
	}
	if body.Qty <= 0 {
		respondError(w, http.StatusBadRequest, "qty must be positive")
		return
	}
	if needsDestination && (body.ToLocationID == nil || *body.ToLocationID == 0) {
		respondError(w, http.StatusBadRequest, "toLocationId is required")
		return
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		dup, err := recordOperation(tx, &models.StockOperation{
			OpID:           body.OpID,
			Kind:           kind,
			FromLocationID: &body.FromLocationID,
			ToLocationID:   body.ToLocationID,
			ProductID:      &body.ItemID,
			Quantity:       body.Qty,
			UserID:         userID(req),
		})
		if err != nil || dup {
			return err
		}
		if err := adjustQuant(tx, body.FromLocationID, body.ItemID, -body.Qty); err != nil {
			return err
		}
		if body.ToLocationID != nil && *body.ToLocationID != 0 {
			return adjustQuant(tx, *body.ToLocationID, body.ItemID, body.Qty)
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to execute operation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) executeMove(w http.ResponseWriter, req *http.Request) {
	r.executeMovement(w, req, models.OpKindMove, true)
}

func (r *Router) executePutaway(w http.ResponseWriter, req *http.Request) {
	r.executeMovement(w, req, models.OpKindPutaway, true)
}

func (r *Router) executeReplenish(w http.ResponseWriter, req *http.Request) {
	r.executeMovement(w, req, models.OpKindReplenish, true)
}

// executePick removes stock without a destination
func (r *Router) executePick(w http.ResponseWriter, req *http.Request) {
	r.executeMovement(w, req, models.OpKindPick, false)
}
