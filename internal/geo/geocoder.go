package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hazglobal/hazmatgo/internal/config"
	"github.com/hazglobal/hazmatgo/internal/models"
)

// Catalog is the known-place lookup backing the geocoding fallback
type Catalog interface {
	FindPlaceByAddress(ctx context.Context, address string) (*models.Place, error)
	AllPlaces(ctx context.Context) ([]models.Place, error)
}

// Resolver turns a free-text address into coordinates. Resolution is
// best-effort: a nil result means unresolved, never an error the caller
// has to handle.
type Resolver struct {
	catalog   Catalog
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewResolver creates a resolver backed by the place catalog and an
// external Nominatim-compatible geocoder.
func NewResolver(catalog Catalog, cfg config.GeocoderConfig) *Resolver {
	return &Resolver{
		catalog:   catalog,
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
	}
}

// Resolve looks up an address, trying the catalog before the external
// geocoder. Returns nil when the address cannot be resolved.
func (r *Resolver) Resolve(ctx context.Context, address string) *Coord {
	if address == "" {
		return nil
	}

	// 1. Exact catalog match on the canonical address
	if place, err := r.catalog.FindPlaceByAddress(ctx, address); err == nil && place != nil {
		return &Coord{Lat: place.Lat, Lng: place.Lng}
	}

	// 2. Substring match on the place name
	if places, err := r.catalog.AllPlaces(ctx); err == nil {
		lower := strings.ToLower(address)
		for _, p := range places {
			if p.Place != "" && strings.Contains(lower, strings.ToLower(p.Place)) {
				return &Coord{Lat: p.Lat, Lng: p.Lng}
			}
		}
	}

	// 3. External lookup
	coord, err := r.lookup(ctx, address)
	if err != nil {
		log.Printf("⚠️ Geocoder: lookup failed for %q: %v", address, err)
		return nil
	}
	return coord
}

// nominatimResult matches the subset of the search response we use.
// Nominatim returns coordinates as strings.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (r *Resolver) lookup(ctx context.Context, address string) (*Coord, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", r.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}

	return &Coord{Lat: lat, Lng: lng}, nil
}
