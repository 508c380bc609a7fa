package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/websocket"
)

// driverCollections lists a driver's outstanding collection jobs
func (r *Router) driverCollections(w http.ResponseWriter, req *http.Request) {
	code := mux.Vars(req)["code"]

	shipments, err := r.store.ListByDriver(req.Context(), code, models.StatusAssigned)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, shipments)
}

// driverDeliveries lists jobs the driver has collected but not yet delivered
func (r *Router) driverDeliveries(w http.ResponseWriter, req *http.Request) {
	code := mux.Vars(req)["code"]

	shipments, err := r.store.ListByDriver(req.Context(), code, models.StatusInProgress)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, shipments)
}

// LocationUpdate is a driver device position report
type LocationUpdate struct {
	DriverCode string  `json:"driverCode"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// updateDriverLocation stores a driver's last known position
func (r *Router) updateDriverLocation(w http.ResponseWriter, req *http.Request) {
	var update LocationUpdate
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if update.DriverCode == "" {
		respondError(w, http.StatusBadRequest, "driverCode is required")
		return
	}

	if err := r.store.UpsertDriverLocation(req.Context(), update.DriverCode, update.Lat, update.Lng); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// listDrivers returns the driver pool with last known locations
func (r *Router) listDrivers(w http.ResponseWriter, req *http.Request) {
	drivers, err := r.store.ListDrivers(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, drivers)
}

// driverSocket upgrades a driver device onto the job-alert feed
func (r *Router) driverSocket(w http.ResponseWriter, req *http.Request) {
	code := mux.Vars(req)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "driver code is required")
		return
	}
	websocket.ServeWs(r.hub, code, w, req)
}
