package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dvinskihsergej9-cyber/scanwms/internal/config"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/database"
	"github.com/dvinskihsergej9-cyber/scanwms/internal/middleware"
	ws "github.com/dvinskihsergej9-cyber/scanwms/internal/websocket"
)

// Router wraps the mux router and database
type Router struct {
	*mux.Router
	db  *database.DB
	cfg *config.Config
	hub *ws.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, hub *ws.Hub) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		cfg:    cfg,
		hub:    hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Scan gateway (terminals and decoder devices)
	r.HandleFunc("/ws/scanner", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(hub, w, req)
	})

	authMW := middleware.Auth(cfg.JWTSecret)

	// Warehouse routes (protected)
	warehouse := r.PathPrefix("/warehouse").Subrouter()
	warehouse.Use(authMW)
	warehouse.HandleFunc("/scan/resolve", r.resolveScan).Methods("GET")
	warehouse.HandleFunc("/inventory/count", r.saveCount).Methods("POST")
	warehouse.HandleFunc("/receiving", r.receiveAdHoc).Methods("POST")
	warehouse.HandleFunc("/receiving/open-pos", r.listOpenOrders).Methods("GET")
	warehouse.HandleFunc("/receiving/{orderId}/confirm", r.confirmOrderReceipt).Methods("POST")
	warehouse.HandleFunc("/move", r.executeMove).Methods("POST")
	warehouse.HandleFunc("/putaway", r.executePutaway).Methods("POST")
	warehouse.HandleFunc("/replen/execute", r.executeReplenish).Methods("POST")
	warehouse.HandleFunc("/pick", r.executePick).Methods("POST")
	warehouse.HandleFunc("/bin-audit/start", r.startBinAudit).Methods("POST")
	warehouse.HandleFunc("/bin-audit/expected", r.binAuditExpected).Methods("GET")
	warehouse.HandleFunc("/bin-audit/{sessionId}/confirm", r.confirmBinAudit).Methods("POST")
	warehouse.HandleFunc("/bin-audit/{sessionId}/discrepancy", r.reportBinAuditDiscrepancy).Methods("POST")
	warehouse.HandleFunc("/bin-audit/{sessionId}/finish", r.finishBinAudit).Methods("POST")
	warehouse.HandleFunc("/print/labels", r.printLabels).Methods("POST")

	// Document routes (protected)
	orders := r.PathPrefix("/purchase-orders").Subrouter()
	orders.Use(authMW)
	orders.HandleFunc("/{orderId}/print-receive-act", r.printReceiveAct).Methods("GET")

	// Settings routes (protected)
	settings := r.PathPrefix("/settings").Subrouter()
	settings.Use(authMW)
	settings.HandleFunc("/org-profile", r.getOrgProfile).Methods("GET")
	settings.HandleFunc("/org-profile", r.saveOrgProfile).Methods("PUT")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"message": message,
	})
}
