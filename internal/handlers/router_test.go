package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hazglobal/hazmatgo/internal/config"
	"github.com/hazglobal/hazmatgo/internal/geo"
	"github.com/hazglobal/hazmatgo/internal/lifecycle"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/booking"
	"github.com/hazglobal/hazmatgo/internal/services/notify"
	"github.com/hazglobal/hazmatgo/internal/services/pod"
	"github.com/hazglobal/hazmatgo/internal/services/scan"
	"github.com/hazglobal/hazmatgo/internal/store"
	"github.com/hazglobal/hazmatgo/internal/utils"
	"github.com/hazglobal/hazmatgo/internal/websocket"
)

func newTestRouter(t *testing.T) (*Router, *store.MemoryStore) {
	t.Helper()

	cfg := &config.Config{JWTSecret: "test-secret"}
	st := store.NewMemoryStore()
	pods, err := pod.NewGenerator(t.TempDir())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	// unroutable external geocoder: catalog hits still resolve
	resolver := geo.NewResolver(st, config.GeocoderConfig{
		BaseURL:   "http://127.0.0.1:1",
		UserAgent: "hazmatgo-test",
		Timeout:   100 * time.Millisecond,
	})
	notifier := notify.NewService(st, nil, "jnb@hazglobal.com", time.Second)
	scans := scan.NewService(st, pods, notifier)
	hub := websocket.NewHub()
	bookings := booking.NewService(st, resolver, pods, notifier, hub)

	return NewRouter(Deps{
		Cfg:      cfg,
		Store:    st,
		Bookings: bookings,
		Scans:    scans,
		Pods:     pods,
		Resolver: resolver,
		Hub:      hub,
	}), st
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func opsToken(t *testing.T) string {
	t.Helper()
	access, _, err := utils.GenerateTokens(&models.UserAuth{
		ID:    "8e2c7b1a-0000-4000-8000-000000000001",
		Email: "ops@hazglobal.com",
		Role:  "ops",
	}, "test-secret")
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	return access
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, "GET", "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSubmitAndScanFlow(t *testing.T) {
	r, st := newTestRouter(t)

	rec := doJSON(t, r, "POST", "/submit", map[string]interface{}{
		"kind":            models.KindLocal,
		"branch":          "JNB",
		"company":         "Acme Chemicals",
		"pickupAddress":   "10 Industrial Rd, Germiston",
		"deliveryAddress": "55 Main Reef Rd, Roodepoort",
		"recipients":      []string{"ops@acme.co.za"},
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created booking.CreateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Reference == "" {
		t.Fatal("no reference returned")
	}

	rec = doJSON(t, r, "POST", "/assign", map[string]string{
		"reference":  created.Reference,
		"driverCode": "DRV01",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "POST", "/scan_qr", map[string]string{
		"reference":  created.Reference,
		"driverCode": "DRV01",
		"stage":      lifecycle.StageCollection,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("collection scan status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "POST", "/scan_qr", map[string]string{
		"reference": created.Reference,
		"stage":     lifecycle.StageDelivery,
		"signedBy":  "J. Smith",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delivery scan status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result scan.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.PODPath == "" {
		t.Error("delivery scan should return a POD path")
	}

	s, err := st.GetShipment(context.Background(), created.Reference)
	if err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if s.Status != models.StatusDelivered {
		t.Errorf("final status = %q", s.Status)
	}
}

func TestSubmitValidationMapsTo400(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "POST", "/submit", map[string]interface{}{
		"kind":          models.KindLocal,
		"branch":        "JNB",
		"pickupAddress": "only pickup",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDuplicateReferenceMapsTo409(t *testing.T) {
	r, _ := newTestRouter(t)

	body := map[string]interface{}{
		"reference":     "HAZJNBTEST01",
		"kind":          models.KindExport,
		"branch":        "JNB",
		"pickupAddress": "10 Industrial Rd, Germiston",
	}
	if rec := doJSON(t, r, "POST", "/submit", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first submit = %d", rec.Code)
	}
	if rec := doJSON(t, r, "POST", "/submit", body, ""); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate submit = %d, want 409", rec.Code)
	}
}

func TestScanUnknownReferenceMapsTo404(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "POST", "/scan_qr", map[string]string{
		"reference": "HAZJNB9999",
		"stage":     lifecycle.StageCollection,
	}, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestScanWrongStageMapsTo400(t *testing.T) {
	r, st := newTestRouter(t)
	seed := &models.Shipment{Reference: "HAZJNBTEST02", Kind: models.KindLocal, Branch: "JNB", Status: models.StatusAssigned}
	if err := st.CreateShipment(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(t, r, "POST", "/scan_qr", map[string]string{
		"reference": "HAZJNBTEST02",
		"stage":     lifecycle.StageDelivery,
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOpsRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	if rec := doJSON(t, r, "GET", "/ops/unassigned", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, r, "GET", "/ops/unassigned", nil, opsToken(t)); rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestDriverFeedsSplitByStage(t *testing.T) {
	r, st := newTestRouter(t)
	ctx := context.Background()
	code := "DRV07"

	for i, status := range []string{models.StatusAssigned, models.StatusInProgress} {
		s := &models.Shipment{
			Reference:  fmt.Sprintf("HAZJNBTEST1%d", i),
			Kind:       models.KindLocal,
			Branch:     "JNB",
			Status:     status,
			DriverCode: &code,
		}
		if err := st.CreateShipment(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	var collections []models.Shipment
	rec := doJSON(t, r, "GET", "/driver/DRV07", nil, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &collections); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(collections) != 1 || collections[0].Status != models.StatusAssigned {
		t.Errorf("collections feed = %+v", collections)
	}

	var deliveries []models.Shipment
	rec = doJSON(t, r, "GET", "/deliveries/DRV07", nil, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &deliveries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(deliveries) != 1 || deliveries[0].Status != models.StatusInProgress {
		t.Errorf("deliveries feed = %+v", deliveries)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	var regions []string
	rec := doJSON(t, r, "GET", "/catalog/regions", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("regions status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &regions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(regions) == 0 {
		t.Fatal("seeded catalog should have regions")
	}

	rec = doJSON(t, r, "GET", "/catalog/areas/"+url.PathEscape(regions[0]), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("areas status = %d", rec.Code)
	}

	rec = doJSON(t, r, "GET", "/catalog/place/Gauteng/Johannesburg/Sandton", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("place status = %d", rec.Code)
	}
	var place models.Place
	if err := json.Unmarshal(rec.Body.Bytes(), &place); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if place.Address == "" || place.Lat == 0 {
		t.Errorf("place = %+v", place)
	}

	if rec := doJSON(t, r, "GET", "/catalog/place/Gauteng/Johannesburg/Atlantis", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown place status = %d, want 404", rec.Code)
	}
}

func TestGeocodeResolveFromCatalog(t *testing.T) {
	r, st := newTestRouter(t)

	places, err := st.AllPlaces(context.Background())
	if err != nil || len(places) == 0 {
		t.Fatalf("seeded places: %v", err)
	}

	rec := doJSON(t, r, "POST", "/geocode/resolve", map[string]string{"address": places[0].Address}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Resolved bool    `json:"resolved"`
		Lat      float64 `json:"lat"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Resolved {
		t.Error("catalog address should resolve")
	}
}

func TestGeneratePODClosesOutUncollectedShipment(t *testing.T) {
	r, st := newTestRouter(t)
	token := opsToken(t)

	// A partner-carrier shipment stays Assigned: there is no device scan.
	seed := &models.Shipment{
		Reference:   "HAZJNBTEST04",
		Kind:        models.KindLocal,
		Branch:      "JNB",
		Company:     "Acme Chemicals",
		Status:      models.StatusAssigned,
		Transporter: models.TransporterThirdParty,
	}
	if err := st.CreateShipment(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(t, r, "POST", "/ops/generate_pod", map[string]string{
		"reference":    "HAZJNBTEST04",
		"signedBy":     "M. Dlamini",
		"deliveryDate": "2026-08-28",
		"deliveryTime": "11:30",
	}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate_pod status = %d, body %s", rec.Code, rec.Body.String())
	}

	s, _ := st.GetShipment(context.Background(), "HAZJNBTEST04")
	if s.Status != models.StatusDelivered {
		t.Errorf("status = %q, want %q", s.Status, models.StatusDelivered)
	}

	// Already delivered: a second close-out is a conflict
	rec = doJSON(t, r, "POST", "/ops/generate_pod", map[string]string{
		"reference": "HAZJNBTEST04",
		"signedBy":  "M. Dlamini",
	}, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat generate_pod status = %d, want 409", rec.Code)
	}
}

func TestCleanupDummiesPrefixGuard(t *testing.T) {
	r, _ := newTestRouter(t)
	token := opsToken(t)

	if rec := doJSON(t, r, "POST", "/admin/cleanup_dummies", map[string]string{"prefix": "HAZ"}, token); rec.Code != http.StatusBadRequest {
		t.Fatalf("unguarded prefix = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, r, "POST", "/admin/cleanup_dummies", map[string]string{"prefix": "HAZTEST"}, token); rec.Code != http.StatusOK {
		t.Fatalf("guarded prefix = %d, want 200", rec.Code)
	}
}

func TestDocumentNameValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "GET", "/documents/notes.txt", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-pdf name = %d, want 400", rec.Code)
	}
}
