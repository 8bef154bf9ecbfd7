package models

import (
	"time"

	"gorm.io/datatypes"
)

// Stock operation kinds
const (
	OpKindCount        = "count"
	OpKindReceive      = "receive"
	OpKindOrderReceive = "order_receive"
	OpKindMove         = "move"
	OpKindPutaway      = "putaway"
	OpKindReplenish    = "replenish"
	OpKindPick         = "pick"
	OpKindAuditOK      = "audit_ok"
	OpKindAuditDiff    = "audit_discrepancy"
)

// StockOperation is the ledger row for one executed warehouse mutation.
// OpID is the client-minted idempotency token; the unique index is what
// makes a duplicate submission a no-op.
type StockOperation struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	OpID           string         `gorm:"uniqueIndex;not null" json:"op_id"`
	Kind           string         `gorm:"not null;index" json:"kind"`
	FromLocationID *int64         `json:"from_location_id,omitempty"`
	ToLocationID   *int64         `json:"to_location_id,omitempty"`
	ProductID      *int64         `json:"product_id,omitempty"`
	Quantity       float64        `json:"quantity"`
	OrderID        *int64         `gorm:"index" json:"order_id,omitempty"`
	Lines          datatypes.JSON `gorm:"type:jsonb" json:"lines,omitempty"`
	UserID         string         `gorm:"index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (StockOperation) TableName() string { return "stock_operations" }
