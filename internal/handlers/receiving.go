package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// ReceiveLine is one accepted quantity in a receiving payload
type ReceiveLine struct {
	ItemID int64   `json:"itemId"`
	Qty    float64 `json:"qty"`
}

// AdHocReceiveRequest is the body of a receipt without a source order
type AdHocReceiveRequest struct {
	OpID       string        `json:"opId"`
	LocationID int64         `json:"locationId"`
	Lines      []ReceiveLine `json:"lines"`
}

// ConfirmReceiptLine is one accepted quantity against an order line
type ConfirmReceiptLine struct {
	ProductID int64   `json:"productId"`
	Qty       float64 `json:"qty"`
}

// ConfirmReceiptRequest is the body of an order receipt confirmation
type ConfirmReceiptRequest struct {
	OpID  string               `json:"opId"`
	Lines []ConfirmReceiptLine `json:"lines"`
}

// receiveAdHoc books arrived goods into a location without a source order
func (r *Router) receiveAdHoc(w http.ResponseWriter, req *http.Request) {
	var body AdHocReceiveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OpID == "" || body.LocationID == 0 {
		respondError(w, http.StatusBadRequest, "opId and locationId are required")
		return
	}
	if len(body.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "No lines to receive")
		return
	}
	for _, line := range body.Lines {
		if line.Qty <= 0 {
			respondError(w, http.StatusBadRequest, "Line qty must be positive")
			return
		}
	}

	linesJSON, _ := json.Marshal(body.Lines)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		dup, err := recordOperation(tx, &models.StockOperation{
			OpID:         body.OpID,
			Kind:         models.OpKindReceive,
			ToLocationID: &body.LocationID,
			Lines:        linesJSON,
			UserID:       userID(req),
		})
		if err != nil || dup {
			return err
		}
		for _, line := range body.Lines {
			if err := adjustQuant(tx, body.LocationID, line.ItemID, line.Qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to receive")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listOpenOrders returns open purchase orders with their lines
func (r *Router) listOpenOrders(w http.ResponseWriter, req *http.Request) {
	var orders []models.PurchaseOrder
	err := r.db.Where("state = ?", models.OrderStateOpen).
		Preload("Lines").
		Preload("Lines.Product").
		Order("name").
		Find(&orders).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// confirmOrderReceipt books accepted quantities against an order and
// returns the updated order for the terminal to replace its local copy
func (r *Router) confirmOrderReceipt(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	orderID, err := strconv.ParseInt(vars["orderId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var body ConfirmReceiptRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.OpID == "" {
		respondError(w, http.StatusBadRequest, "opId is required")
		return
	}
	if len(body.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "No lines to confirm")
		return
	}
	for _, line := range body.Lines {
		if line.Qty <= 0 {
			respondError(w, http.StatusBadRequest, "Line qty must be positive")
			return
		}
	}

	var order models.PurchaseOrder
	if err := r.db.Preload("Lines").First(&order, orderID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	linesJSON, _ := json.Marshal(body.Lines)

	err = r.db.Transaction(func(tx *gorm.DB) error {
		dup, err := recordOperation(tx, &models.StockOperation{
			OpID:    body.OpID,
			Kind:    models.OpKindOrderReceive,
			OrderID: &orderID,
			Lines:   linesJSON,
			UserID:  userID(req),
		})
		if err != nil || dup {
			return err
		}

		for _, line := range body.Lines {
			res := tx.Model(&models.PurchaseOrderLine{}).
				Where("order_id = ? AND product_id = ?", orderID, line.ProductID).
				UpdateColumn("received_qty", gorm.Expr("received_qty + ?", line.Qty))
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to confirm receipt")
		return
	}

	// Reload with fresh quantities and close the order if complete
	if err := r.db.Preload("Lines").Preload("Lines.Product").First(&order, orderID).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reload order")
		return
	}
	if order.FullyReceived() && order.State != models.OrderStateDone {
		order.State = models.OrderStateDone
		r.db.Model(&order).Update("state", models.OrderStateDone)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}
