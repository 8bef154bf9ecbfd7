package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a stock-keeping item. IDs are stable across the upstream ERP,
// so autoIncrement is disabled and imported rows keep their source id.
type Product struct {
	ID      int64  `gorm:"primaryKey;autoIncrement:false" json:"id" xmlrpc:"id"`
	Name    string `gorm:"not null" json:"name" xmlrpc:"name"`
	SKU     string `gorm:"index" json:"sku" xmlrpc:"default_code"`
	Barcode string `gorm:"index" json:"barcode" xmlrpc:"barcode"`
	Unit    string `gorm:"default:'pcs'" json:"unit" xmlrpc:"uom_name"`
	Active  bool   `gorm:"default:true" json:"active" xmlrpc:"active"`

	LastSyncedAt time.Time      `json:"last_synced_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "products" }

// StockLocation is a physical bin, shelf or staging area
type StockLocation struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false" json:"id" xmlrpc:"id"`
	Name   string `gorm:"not null" json:"name" xmlrpc:"complete_name"`
	Code   string `gorm:"uniqueIndex" json:"code" xmlrpc:"barcode"`
	Active bool   `gorm:"default:true" json:"active" xmlrpc:"active"`

	LastSyncedAt time.Time      `json:"last_synced_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StockLocation) TableName() string { return "stock_locations" }

// StockQuant is the on-hand quantity of one product at one location
type StockQuant struct {
	ID         int64   `gorm:"primaryKey" json:"id"`
	LocationID int64   `gorm:"not null;uniqueIndex:idx_quant_loc_item" json:"location_id"`
	ProductID  int64   `gorm:"not null;uniqueIndex:idx_quant_loc_item" json:"product_id"`
	Quantity   float64 `gorm:"default:0" json:"quantity"`

	Location StockLocation `gorm:"foreignKey:LocationID" json:"-"`
	Product  Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (StockQuant) TableName() string { return "stock_quants" }
