package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/config"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/database"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/handlers"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/models"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/services/erp"
	ws "github.com/dvinskihsergej9-cyber/scanwms/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},

		// Catalog
		&models.Product{},
		&models.StockLocation{},
		&models.StockQuant{},

		// Receiving
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},

		// Operation journal and audits
		&models.StockOperation{},
		&models.BinAuditSession{},
		&models.BinAuditVisit{},

		// Document requisites
		&models.OrgProfile{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Start the scan gateway hub
	hub := ws.NewHub()
	go hub.Run()

	// 5. Start ERP import service (background, no-op without ERP_URL)
	importService := erp.NewImportService(db, cfg.ERP)
	importService.Start()

	// 6. Set up HTTP router
	router := handlers.NewRouter(db, cfg, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server (%s) starting on port %s\n", cfg.NodeEnv, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Stop ERP import service
	importService.Stop()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
