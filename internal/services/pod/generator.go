package pod

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/hazglobal/hazmatgo/internal/models"
)

// Generator writes waybill and proof-of-delivery PDFs into a documents folder
type Generator struct {
	dir string
}

// NewGenerator ensures the documents directory exists
func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Generator{dir: dir}, nil
}

// Dir returns the documents directory the generator writes into
func (g *Generator) Dir() string { return g.dir }

// Waybill renders the collection document for a shipment. The QR code in the
// top-right corner carries the shipment reference so drivers can scan it at
// collection and delivery. Returns the path of the written PDF.
func (g *Generator) Waybill(s *models.Shipment) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, fmt.Sprintf("Waybill - %s", s.Reference), "", 1, "L", false, 0, "")

	qrPng, err := qrcode.Encode(s.Reference, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode waybill qr: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("waybill_qr", opts, bytes.NewReader(qrPng))
	pdf.ImageOptions("waybill_qr", 160, 10, 38, 38, false, opts, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.Ln(6)

	driver := "Unassigned"
	if s.DriverCode != nil && *s.DriverCode != "" {
		driver = *s.DriverCode
	}
	transporter := s.Transporter
	if transporter == "" {
		transporter = "In-house"
	}

	rows := [][2]string{
		{"Reference", s.Reference},
		{"HMJ Reference", s.SecondaryRef},
		{"Type", titleKind(s.Kind)},
		{"Branch", s.Branch},
		{"Company", s.Company},
		{"Pickup Address", s.PickupAddress},
		{"Delivery Address", s.DeliveryAddress},
		{"Transporter", transporter},
		{"Driver", driver},
		{"Date", time.Now().Format("2006-01-02")},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 8, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(105, 8, row[1], "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Scan the QR code above to confirm collection and delivery.", "", 1, "L", false, 0, "")

	path := filepath.Join(g.dir, fmt.Sprintf("%s.pdf", s.Reference))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write waybill %s: %w", s.Reference, err)
	}
	return path, nil
}

// PODData carries everything printed on a proof-of-delivery document
type PODData struct {
	Reference    string
	SecondaryRef string
	Company      string
	SignedBy     string
	DeliveryDate string // YYYY-MM-DD
	DeliveryTime string // HH:MM
	Condition    string
	Notes        string
	SignatureB64 string // base64 PNG or JPEG, optional
}

// ProofOfDelivery renders the signed delivery confirmation document.
// A malformed signature image is logged and skipped rather than failing the
// whole document, since the text fields are the legally required part.
func (g *Generator) ProofOfDelivery(d PODData) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, "Proof of Delivery", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference: %s", d.Reference), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	condition := d.Condition
	if condition == "" {
		condition = "Good"
	}
	rows := [][2]string{
		{"Reference", d.Reference},
		{"HMJ Reference", d.SecondaryRef},
		{"Company", d.Company},
		{"Delivery Date", d.DeliveryDate},
		{"Delivery Time", d.DeliveryTime},
		{"Received By", d.SignedBy},
		{"Condition", condition},
		{"Notes", d.Notes},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 8, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 8, row[1], "", "L", false)
	}

	if d.SignatureB64 != "" {
		if img, imgType, err := decodeSignature(d.SignatureB64); err != nil {
			log.Printf("⚠️ POD %s: skipping signature image: %v", d.Reference, err)
		} else {
			pdf.Ln(6)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, "Signature:", "", 1, "L", false, 0, "")
			opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
			pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(img))
			pdf.ImageOptions("signature", 15, pdf.GetY(), 70, 0, false, opts, 0, "")
		}
	}

	name := fmt.Sprintf("POD_%s_%s.pdf", d.Reference, time.Now().Format("20060102150405"))
	path := filepath.Join(g.dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pod %s: %w", d.Reference, err)
	}
	return path, nil
}

func titleKind(kind string) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

// decodeSignature accepts raw base64 or a data URI and sniffs the image type
func decodeSignature(b64 string) ([]byte, string, error) {
	if idx := strings.Index(b64, ","); idx >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	switch {
	case len(raw) > 8 && bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")):
		return raw, "PNG", nil
	case len(raw) > 3 && raw[0] == 0xFF && raw[1] == 0xD8 && raw[2] == 0xFF:
		return raw, "JPG", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format")
	}
}
