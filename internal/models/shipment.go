package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Shipment kinds. The kind decides which addresses are mandatory:
// local needs both legs, import only delivery, export only pickup.
const (
	KindLocal  = "local"
	KindImport = "import"
	KindExport = "export"
)

// Shipment lifecycle statuses
const (
	StatusPending    = "Pending"
	StatusAssigned   = "Assigned"
	StatusInProgress = "In Progress"
	StatusDelivered  = "Delivered"
)

// TransporterThirdParty marks a shipment handed to an external carrier
const TransporterThirdParty = "Third-Party"

// Shipment is the master record for a hazmat collection/delivery job
type Shipment struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference    string `gorm:"uniqueIndex;not null" json:"reference"`       // e.g., HAZJNB0042
	SecondaryRef string `json:"secondaryRef"`                                // HMJ reference, optional
	Kind         string `gorm:"not null" json:"kind"`                        // local, import, export
	Branch       string `gorm:"not null" json:"branch"`                      // JNB, CPT, KZN, PLZ
	Company      string `json:"company"`
	Operator     string `json:"operator"` // ops code handling the file

	Status  string `gorm:"index;default:Pending" json:"status"`
	Version int64  `gorm:"default:0" json:"-"` // optimistic lock counter for status transitions

	PickupAddress   string   `json:"pickupAddress"`
	DeliveryAddress string   `json:"deliveryAddress"`
	PickupLat       *float64 `json:"pickupLat"`
	PickupLng       *float64 `json:"pickupLng"`
	DeliveryLat     *float64 `json:"deliveryLat"`
	DeliveryLng     *float64 `json:"deliveryLng"`

	DriverCode  *string `gorm:"index" json:"driverCode"` // nil until a driver is assigned or scans
	Transporter string  `json:"transporter"`             // "" (in-house pool) or Third-Party

	WaybillPath string `json:"waybillPath"`
	MessageID   string `json:"-"` // latest mail thread id, see ShipmentUpdate

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Shipment) TableName() string { return "shipments" }

// ValidateAddresses enforces the per-kind address invariants
func (s *Shipment) ValidateAddresses() error {
	switch s.Kind {
	case KindLocal:
		if s.PickupAddress == "" || s.DeliveryAddress == "" {
			return fmt.Errorf("%w: local requires pickup and delivery addresses", ErrValidation)
		}
	case KindImport:
		if s.DeliveryAddress == "" {
			return fmt.Errorf("%w: import requires delivery address", ErrValidation)
		}
	case KindExport:
		if s.PickupAddress == "" {
			return fmt.Errorf("%w: export requires pickup address", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown shipment kind %q", ErrValidation, s.Kind)
	}
	return nil
}

// CompletedShipment is a write-once snapshot taken when a shipment is delivered
type CompletedShipment struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Operator     string     `json:"operator"`
	SecondaryRef string     `json:"secondaryRef"`
	Reference    string     `gorm:"index;not null" json:"reference"`
	Company      string     `json:"company"`
	PickupDate   *time.Time `json:"pickupDate"`
	DeliveryDate string     `json:"deliveryDate"` // YYYY-MM-DD
	DeliveryTime string     `json:"deliveryTime"` // HH:MM
	SignedBy     string     `json:"signedBy"`
	DocumentPath string     `json:"documentPath"` // shipment document (waybill)
	PODPath      string     `json:"podPath"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (CompletedShipment) TableName() string { return "completed_shipments" }

// ShipmentUpdate carries the client-facing notification state per shipment:
// who gets mailed and the newest gateway message id used for thread continuity.
type ShipmentUpdate struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference    string         `gorm:"uniqueIndex;not null" json:"reference"`
	SecondaryRef string         `json:"secondaryRef"`
	Operator     string         `json:"operator"`
	Company      string         `json:"company"`
	LatestUpdate string         `json:"latestUpdate"`
	DocumentPath string         `json:"documentPath"`
	Recipients   datatypes.JSON `json:"recipients"` // array of email addresses
	MessageID    string         `json:"-"`          // most recent external message id
	UpdatedAt    time.Time      `json:"updatedAt"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (ShipmentUpdate) TableName() string { return "shipment_updates" }

// ScanLog is the audit trail for scan events; the event itself is transient
type ScanLog struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Reference  string    `gorm:"index;not null" json:"reference"`
	DriverCode string    `json:"driverCode"`
	Stage      string    `json:"stage"` // collection or delivery
	SignedBy   string    `json:"signedBy"`
	Condition  string    `json:"condition"`
	Notes      string    `json:"notes"`
	Accepted   bool      `json:"accepted"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (ScanLog) TableName() string { return "scan_logs" }

// Driver holds the in-house driver pool with last known live location
type Driver struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	Name      string    `json:"name"`
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Driver) TableName() string { return "drivers" }
