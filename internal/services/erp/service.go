package erp

import (
	"log"
	"time"

	"gorm.io/gorm/clause"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/config"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/database"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
)

// ImportService periodically pulls catalog and open purchase orders
// from the upstream ERP into the local store
type ImportService struct {
	client *Client
	db     *database.DB
	cfg    config.ERPConfig
	stop   chan struct{}
}

// NewImportService creates a new import service
func NewImportService(db *database.DB, cfg config.ERPConfig) *ImportService {
	return &ImportService{
		client: NewClient(cfg.URL, cfg.Database, cfg.Username, cfg.Password),
		db:     db,
		cfg:    cfg,
		stop:   make(chan struct{}),
	}
}

// Start begins the background import loop
func (s *ImportService) Start() {
	if s.cfg.URL == "" {
		log.Println("ERP import disabled: ERP_URL not configured")
		return
	}

	go func() {
		log.Println("📡 ERP Import Service started")

		if _, err := s.client.Authenticate(); err != nil {
			log.Printf("❌ ERP authentication failed: %v", err)
			return
		}

		// Initial import delay
		time.Sleep(5 * time.Second)
		s.runImport()

		interval := time.Duration(s.cfg.ImportInterval) * time.Minute
		if s.cfg.ImportInterval <= 0 {
			interval = 15 * time.Minute
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runImport()
			case <-s.stop:
				log.Println("🛑 ERP Import Service stopped")
				return
			}
		}
	}()
}

// Stop halts the service
func (s *ImportService) Stop() {
	close(s.stop)
}

// runImport runs all import operations. Order matters: catalog first,
// then orders referencing it.
func (s *ImportService) runImport() {
	log.Println("🔄 ERP: Starting import...")

	s.importLocations()
	s.importProducts()
	s.importOpenOrders()

	log.Println("✅ ERP: Import completed")
}

// Row shapes match the ERP field names; SearchRead converts through JSON,
// so the json tags must mirror the remote fields.
type productRow struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DefaultCode string `json:"default_code"`
	Barcode     string `json:"barcode"`
	UomName     string `json:"uom_name"`
	Active      bool   `json:"active"`
}

type locationRow struct {
	ID           int64  `json:"id"`
	CompleteName string `json:"complete_name"`
	Barcode      string `json:"barcode"`
	Active       bool   `json:"active"`
}

type orderRow struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Partner string  `json:"partner_name"`
	State   string  `json:"state"`
	LineIDs []int64 `json:"order_line"`
}

type orderLineRow struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductQty  float64 `json:"product_qty"`
	QtyReceived float64 `json:"qty_received"`
}

func (s *ImportService) importProducts() {
	var rows []productRow
	err := s.client.SearchRead("product.product",
		[]interface{}{[]interface{}{"active", "=", true}},
		[]string{"name", "default_code", "barcode", "uom_name", "active"},
		1000, 0, &rows)
	if err != nil {
		log.Printf("❌ ERP: product import failed: %v", err)
		return
	}

	count := 0
	for _, row := range rows {
		p := models.Product{
			ID:           row.ID,
			Name:         row.Name,
			SKU:          row.DefaultCode,
			Barcode:      row.Barcode,
			Unit:         row.UomName,
			Active:       row.Active,
			LastSyncedAt: time.Now(),
		}
		if p.Unit == "" {
			p.Unit = "pcs"
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&p).Error; err != nil {
			log.Printf("Failed to save product %d: %v", row.ID, err)
		} else {
			count++
		}
	}
	log.Printf("📦 ERP: Updated %d products", count)
}

func (s *ImportService) importLocations() {
	var rows []locationRow
	err := s.client.SearchRead("stock.location",
		[]interface{}{[]interface{}{"usage", "=", "internal"}},
		[]string{"complete_name", "barcode", "active"},
		1000, 0, &rows)
	if err != nil {
		log.Printf("❌ ERP: location import failed: %v", err)
		return
	}

	count := 0
	for _, row := range rows {
		if row.Barcode == "" {
			// Unlabelled locations cannot be scanned, skip them
			continue
		}
		loc := models.StockLocation{
			ID:           row.ID,
			Name:         row.CompleteName,
			Code:         row.Barcode,
			Active:       row.Active,
			LastSyncedAt: time.Now(),
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&loc).Error; err != nil {
			log.Printf("Failed to save location %d: %v", row.ID, err)
		} else {
			count++
		}
	}
	log.Printf("📍 ERP: Updated %d locations", count)
}

func (s *ImportService) importOpenOrders() {
	var orders []orderRow
	err := s.client.SearchRead("purchase.order",
		[]interface{}{[]interface{}{"state", "=", "purchase"}},
		[]string{"name", "partner_name", "state", "order_line"},
		500, 0, &orders)
	if err != nil {
		log.Printf("❌ ERP: order import failed: %v", err)
		return
	}

	count := 0
	for _, row := range orders {
		order := models.PurchaseOrder{
			ID:           row.ID,
			Name:         row.Name,
			SupplierName: row.Partner,
			State:        models.OrderStateOpen,
			LastSyncedAt: time.Now(),
		}
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "supplier_name", "last_synced_at"}),
		}).Create(&order).Error; err != nil {
			log.Printf("Failed to save order %d: %v", row.ID, err)
			continue
		}
		s.importOrderLines(row.ID)
		count++
	}
	log.Printf("🧾 ERP: Updated %d open orders", count)
}

func (s *ImportService) importOrderLines(orderID int64) {
	var lines []orderLineRow
	err := s.client.SearchRead("purchase.order.line",
		[]interface{}{[]interface{}{"order_id", "=", orderID}},
		[]string{"order_id", "product_id", "product_qty", "qty_received"},
		500, 0, &lines)
	if err != nil {
		log.Printf("❌ ERP: line import failed for order %d: %v", orderID, err)
		return
	}

	for _, row := range lines {
		line := models.PurchaseOrderLine{
			ID:         row.ID,
			OrderID:    row.OrderID,
			ProductID:  row.ProductID,
			OrderedQty: row.ProductQty,
		}
		// ReceivedQty is local truth once receiving has started; only
		// insert, never overwrite it from the ERP side.
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"ordered_qty"}),
		}).Create(&line).Error; err != nil {
			log.Printf("Failed to save order line %d: %v", row.ID, err)
		}
	}
}
