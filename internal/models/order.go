package models

import (
	"time"

	"gorm.io/gorm"
)

// Purchase order states
const (
	OrderStateOpen = "open"
	OrderStateDone = "done"
)

// PurchaseOrder is a supplier order receiving is performed against
type PurchaseOrder struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false" json:"id" xmlrpc:"id"`
	Name         string `gorm:"index" json:"name" xmlrpc:"name"`
	SupplierName string `json:"supplier_name" xmlrpc:"partner_id"`
	State        string `gorm:"default:'open';index" json:"state" xmlrpc:"state"`

	Lines []PurchaseOrderLine `gorm:"foreignKey:OrderID" json:"lines"`

	LastSyncedAt time.Time      `json:"last_synced_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// PurchaseOrderLine carries the ordered vs received truth for one product.
// ReceivedQty is only ever advanced by a confirmed receipt.
type PurchaseOrderLine struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false" json:"id" xmlrpc:"id"`
	OrderID     int64   `gorm:"not null;index" json:"order_id" xmlrpc:"order_id"`
	ProductID   int64   `gorm:"not null;index" json:"product_id" xmlrpc:"product_id"`
	OrderedQty  float64 `json:"ordered_qty" xmlrpc:"product_qty"`
	ReceivedQty float64 `gorm:"default:0" json:"received_qty" xmlrpc:"qty_received"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (PurchaseOrderLine) TableName() string { return "purchase_order_lines" }

// Shortage reports a line received short of its ordered quantity
type Shortage struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	OrderedQty  float64 `json:"ordered_qty"`
	ReceivedQty float64 `json:"received_qty"`
}

// Shortages returns every line still short of its ordered quantity
func (o *PurchaseOrder) Shortages() []Shortage {
	var out []Shortage
	for _, line := range o.Lines {
		if line.OrderedQty > line.ReceivedQty {
			out = append(out, Shortage{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				OrderedQty:  line.OrderedQty,
				ReceivedQty: line.ReceivedQty,
			})
		}
	}
	return out
}

// FullyReceived reports whether every line met its ordered quantity
func (o *PurchaseOrder) FullyReceived() bool {
	for _, line := range o.Lines {
		if line.ReceivedQty < line.OrderedQty {
			return false
		}
	}
	return true
}
