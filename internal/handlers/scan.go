package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hazglobal/hazmatgo/internal/services/scan"
)

// scanQR confirms a collection or delivery scan from a driver device
func (r *Router) scanQR(w http.ResponseWriter, req *http.Request) {
	var scanReq scan.Request
	if err := json.NewDecoder(req.Body).Decode(&scanReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if scanReq.Reference == "" {
		respondError(w, http.StatusBadRequest, "reference is required")
		return
	}

	result, err := r.scans.Confirm(req.Context(), scanReq)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
