package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hazglobal/hazmatgo/internal/config"
	"github.com/hazglobal/hazmatgo/internal/database"
	"github.com/hazglobal/hazmatgo/internal/geo"
	"github.com/hazglobal/hazmatgo/internal/middleware"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/booking"
	"github.com/hazglobal/hazmatgo/internal/services/pod"
	"github.com/hazglobal/hazmatgo/internal/services/scan"
	"github.com/hazglobal/hazmatgo/internal/store"
	"github.com/hazglobal/hazmatgo/internal/websocket"
)

// Router wraps the mux router and the service layer
type Router struct {
	*mux.Router
	cfg      *config.Config
	db       *database.DB
	store    store.Store
	bookings *booking.Service
	scans    *scan.Service
	pods     *pod.Generator
	resolver *geo.Resolver
	hub      *websocket.Hub
}

// Deps carries everything the HTTP layer needs
type Deps struct {
	Cfg      *config.Config
	DB       *database.DB
	Store    store.Store
	Bookings *booking.Service
	Scans    *scan.Service
	Pods     *pod.Generator
	Resolver *geo.Resolver
	Hub      *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		cfg:      d.Cfg,
		db:       d.DB,
		store:    d.Store,
		bookings: d.Bookings,
		scans:    d.Scans,
		pods:     d.Pods,
		resolver: d.Resolver,
		hub:      d.Hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")

	// Booking and lifecycle
	r.HandleFunc("/submit", r.submitShipment).Methods("POST")
	r.HandleFunc("/assign", r.assignShipment).Methods("POST")
	r.HandleFunc("/scan_qr", r.scanQR).Methods("POST")
	r.HandleFunc("/update_status", r.updateStatus).Methods("POST")
	r.HandleFunc("/imports/collected", r.importCollected).Methods("POST")

	// Driver feeds
	r.HandleFunc("/driver/{code}", r.driverCollections).Methods("GET")
	r.HandleFunc("/deliveries/{code}", r.driverDeliveries).Methods("GET")

	// Ops dashboard (protected)
	ops := r.PathPrefix("/ops").Subrouter()
	ops.Use(middleware.Auth(d.Cfg.JWTSecret))
	ops.HandleFunc("/unassigned", r.listUnassigned).Methods("GET")
	ops.HandleFunc("/assigned", r.listAssigned).Methods("GET")
	ops.HandleFunc("/completed", r.listCompleted).Methods("GET")
	ops.HandleFunc("/generate_pod", r.generatePOD).Methods("POST")
	ops.HandleFunc("/update_location", r.updateDriverLocation).Methods("POST")
	ops.HandleFunc("/drivers", r.listDrivers).Methods("GET")

	// Catalog and geocoding
	r.HandleFunc("/catalog/regions", r.catalogRegions).Methods("GET")
	r.HandleFunc("/catalog/areas/{region}", r.catalogAreas).Methods("GET")
	r.HandleFunc("/catalog/places/{region}/{area}", r.catalogPlaces).Methods("GET")
	r.HandleFunc("/catalog/place/{region}/{area}/{place}", r.catalogPlace).Methods("GET")
	r.HandleFunc("/geocode/resolve", r.geocodeResolve).Methods("POST")

	// Documents
	r.HandleFunc("/documents/{name}", r.serveDocument).Methods("GET")

	// Admin (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Auth(d.Cfg.JWTSecret))
	admin.HandleFunc("/cleanup_dummies", r.cleanupDummies).Methods("POST")

	// Driver job-alert socket
	r.HandleFunc("/ws/driver/{code}", r.driverSocket).Methods("GET")

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
		"error": message,
	})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrTerminalState):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidStage):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
