package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hazglobal/hazmatgo/internal/services/scan"
)

// generatePOD closes out a third-party delivery. The partner carrier has no
// scanning device, so ops capture the signer and delivery time by hand; the
// shipment then runs the same delivery path as a scanned one.
func (r *Router) generatePOD(w http.ResponseWriter, req *http.Request) {
	var podReq scan.Request
	if err := json.NewDecoder(req.Body).Decode(&podReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if podReq.Reference == "" || podReq.SignedBy == "" {
		respondError(w, http.StatusBadRequest, "reference and signedBy are required")
		return
	}
	result, err := r.scans.ConfirmManual(req.Context(), podReq)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// serveDocument downloads a waybill or POD by filename
func (r *Router) serveDocument(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]

	// No path components, PDFs only
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".pdf") {
		respondError(w, http.StatusBadRequest, "invalid document name")
		return
	}

	path := filepath.Join(r.pods.Dir(), name)
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, req, path)
}
