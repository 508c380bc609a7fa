package pod

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazglobal/hazmatgo/internal/models"
)

// tiny valid 1x1 PNG
var testPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(t.TempDir())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestWaybillWritesPDF(t *testing.T) {
	g := newTestGenerator(t)

	driver := "DRV01"
	s := &models.Shipment{
		Reference:       "HAZJNB0042",
		SecondaryRef:    "HMJ-1001",
		Kind:            models.KindLocal,
		Branch:          "JNB",
		Company:         "Acme Chemicals",
		PickupAddress:   "10 Industrial Rd, Germiston",
		DeliveryAddress: "55 Main Reef Rd, Roodepoort",
		DriverCode:      &driver,
	}

	path, err := g.Waybill(s)
	if err != nil {
		t.Fatalf("Waybill: %v", err)
	}
	if filepath.Base(path) != "HAZJNB0042.pdf" {
		t.Errorf("unexpected filename: %s", path)
	}
	assertPDF(t, path)
}

func TestProofOfDeliveryWithSignature(t *testing.T) {
	g := newTestGenerator(t)

	path, err := g.ProofOfDelivery(PODData{
		Reference:    "HAZCPT0007",
		SecondaryRef: "HMJ-2002",
		Company:      "Coastal Labs",
		SignedBy:     "T. Naidoo",
		DeliveryDate: "2026-08-30",
		DeliveryTime: "14:35",
		Condition:    "Good",
		SignatureB64: base64.StdEncoding.EncodeToString(testPNG),
	})
	if err != nil {
		t.Fatalf("ProofOfDelivery: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "POD_HAZCPT0007_") {
		t.Errorf("unexpected filename: %s", path)
	}
	assertPDF(t, path)
}

func TestProofOfDeliveryMalformedSignatureStillWrites(t *testing.T) {
	g := newTestGenerator(t)

	path, err := g.ProofOfDelivery(PODData{
		Reference:    "HAZKZN0003",
		SignedBy:     "B. Dlamini",
		DeliveryDate: "2026-08-30",
		DeliveryTime: "09:10",
		SignatureB64: "this is not base64 image data!!!",
	})
	if err != nil {
		t.Fatalf("expected document despite bad signature, got: %v", err)
	}
	assertPDF(t, path)
}

func TestDecodeSignatureDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG)
	raw, imgType, err := decodeSignature(uri)
	if err != nil {
		t.Fatalf("decodeSignature: %v", err)
	}
	if imgType != "PNG" {
		t.Errorf("imgType = %s, want PNG", imgType)
	}
	if len(raw) != len(testPNG) {
		t.Errorf("payload length = %d, want %d", len(raw), len(testPNG))
	}
}

func TestDecodeSignatureRejectsUnknownFormat(t *testing.T) {
	if _, _, err := decodeSignature(base64.StdEncoding.EncodeToString([]byte("plain text"))); err == nil {
		t.Fatal("expected error for non-image payload")
	}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Errorf("%s does not look like a PDF", path)
	}
}
