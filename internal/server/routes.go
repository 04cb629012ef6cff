package server

import (
	"net/http"

	"github.com/bobmcallan/tradebook/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Positions
	mux.HandleFunc("/api/positions", s.handlePositionList)
	mux.HandleFunc("/api/positions/", s.handlePositionGet)

	// Orders
	mux.HandleFunc("/api/orders/execute", s.handleOrderExecute)
	mux.HandleFunc("/api/orders/batch", s.handleOrderBatch)

	// Admin
	mux.HandleFunc("/api/admin/positions/duplicates", s.handleAdminDuplicates)
	mux.HandleFunc("/api/admin/positions/consolidate", s.handleAdminConsolidate)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.app.Storage.Backend(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
