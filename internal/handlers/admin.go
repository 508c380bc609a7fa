package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// cleanupDummies removes test bookings by reference prefix. The prefix must
// mark test data explicitly, wiping real shipments this way is not possible.
func (r *Router) cleanupDummies(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Prefix string `json:"prefix"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	prefix := strings.TrimSpace(body.Prefix)
	if prefix == "" || !strings.Contains(strings.ToUpper(prefix), "TEST") {
		respondError(w, http.StatusBadRequest, "prefix must contain TEST")
		return
	}

	if err := r.store.DeleteTestData(req.Context(), prefix); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "prefix": prefix})
}
