package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/booking"
)

// submitShipment books a new shipment
func (r *Router) submitShipment(w http.ResponseWriter, req *http.Request) {
	var createReq booking.CreateRequest
	if err := json.NewDecoder(req.Body).Decode(&createReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := r.bookings.Create(req.Context(), createReq)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// AssignRequest names the shipment and the driver or carrier taking it
type AssignRequest struct {
	Reference  string `json:"reference"`
	DriverCode string `json:"driverCode"`
}

// assignShipment puts a shipment in a driver's hands
func (r *Router) assignShipment(w http.ResponseWriter, req *http.Request) {
	var assignReq AssignRequest
	if err := json.NewDecoder(req.Body).Decode(&assignReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if assignReq.Reference == "" {
		respondError(w, http.StatusBadRequest, "reference is required")
		return
	}

	if err := r.bookings.Assign(req.Context(), assignReq.Reference, assignReq.DriverCode); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"reference": assignReq.Reference,
		"status":    models.StatusAssigned,
	})
}

// UpdateStatusRequest is the ops manual override payload
type UpdateStatusRequest struct {
	Reference  string  `json:"reference"`
	Status     string  `json:"status"`
	DriverCode *string `json:"driverCode"`
}

// updateStatus is the ops escape hatch for fixing a shipment's state
func (r *Router) updateStatus(w http.ResponseWriter, req *http.Request) {
	var updateReq UpdateStatusRequest
	if err := json.NewDecoder(req.Body).Decode(&updateReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := r.bookings.OverrideStatus(req.Context(), updateReq.Reference, updateReq.Status, updateReq.DriverCode); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// importCollected records an import's airport pickup and mails the ETA
func (r *Router) importCollected(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := r.bookings.ImportCollected(req.Context(), body.Reference); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// listUnassigned feeds the ops dashboard's booking queue
func (r *Router) listUnassigned(w http.ResponseWriter, req *http.Request) {
	shipments, err := r.store.ListUnassigned(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, shipments)
}

// listAssigned feeds the ops dashboard's active-jobs view
func (r *Router) listAssigned(w http.ResponseWriter, req *http.Request) {
	shipments, err := r.store.ListAssigned(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, shipments)
}

// listCompleted feeds the delivered-shipments archive
func (r *Router) listCompleted(w http.ResponseWriter, req *http.Request) {
	completed, err := r.store.ListCompleted(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, completed)
}
