package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// catalogRegions lists the known regions
func (r *Router) catalogRegions(w http.ResponseWriter, req *http.Request) {
	regions, err := r.store.Regions(req.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, regions)
}

// catalogAreas lists the areas inside a region
func (r *Router) catalogAreas(w http.ResponseWriter, req *http.Request) {
	region := mux.Vars(req)["region"]

	areas, err := r.store.Areas(req.Context(), region)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, areas)
}

// catalogPlaces lists the places inside an area with canonical addresses
func (r *Router) catalogPlaces(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	places, err := r.store.Places(req.Context(), vars["region"], vars["area"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, places)
}

// catalogPlace returns one place's canonical address and coordinates, used
// by booking forms to autofill the address from the region/area/place picker
func (r *Router) catalogPlace(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	place, err := r.store.FindPlace(req.Context(), vars["region"], vars["area"], vars["place"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, place)
}

// geocodeResolve resolves a free-text address to coordinates
func (r *Router) geocodeResolve(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Address == "" {
		respondError(w, http.StatusBadRequest, "address is required")
		return
	}

	coord := r.resolver.Resolve(req.Context(), body.Address)
	if coord == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"resolved": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"resolved": true,
		"lat":      coord.Lat,
		"lng":      coord.Lng,
	})
}
