package store

import (
	"context"

	"github.com/hazglobal/hazmatgo/internal/models"
)

// Store is the single source of truth for shipment state. Dispatch,
// lifecycle and scan components depend on this interface, never on a
// concrete storage handle.
type Store interface {
	// Shipments
	CreateShipment(ctx context.Context, s *models.Shipment) error
	GetShipment(ctx context.Context, reference string) (*models.Shipment, error)
	// TransitionShipment applies a guarded update: the row is only touched
	// when its status and version still match what the caller read. A miss
	// on a live row returns models.ErrConflict, so two concurrent scans for
	// the same shipment can never both succeed.
	TransitionShipment(ctx context.Context, reference, fromStatus string, fromVersion int64, updates map[string]interface{}) error
	SaveWaybillPath(ctx context.Context, reference, path string) error
	ListUnassigned(ctx context.Context) ([]models.Shipment, error)
	ListAssigned(ctx context.Context) ([]models.Shipment, error)
	ListByDriver(ctx context.Context, driverCode string, statuses ...string) ([]models.Shipment, error)
	DeleteTestData(ctx context.Context, prefix string) error

	// Completed records (append-only)
	CreateCompleted(ctx context.Context, c *models.CompletedShipment) error
	ListCompleted(ctx context.Context) ([]models.CompletedShipment, error)

	// Notification thread state
	CreateUpdate(ctx context.Context, u *models.ShipmentUpdate) error
	GetUpdate(ctx context.Context, reference string) (*models.ShipmentUpdate, error)
	// RecordNotification persists the outcome of a sent notification: the
	// human-readable latest update, an optional document path and the new
	// thread message id, written together so the stored id always matches
	// the latest lifecycle step.
	RecordNotification(ctx context.Context, reference, latestUpdate, documentPath, messageID string) error

	// Scan audit trail
	CreateScanLog(ctx context.Context, l *models.ScanLog) error

	// Driver live locations
	UpsertDriverLocation(ctx context.Context, code string, lat, lng float64) error
	ListDrivers(ctx context.Context) ([]models.Driver, error)

	// Place catalog
	FindPlaceByAddress(ctx context.Context, address string) (*models.Place, error)
	FindPlace(ctx context.Context, region, area, place string) (*models.Place, error)
	AllPlaces(ctx context.Context) ([]models.Place, error)
	Regions(ctx context.Context) ([]string, error)
	Areas(ctx context.Context, region string) ([]string, error)
	Places(ctx context.Context, region, area string) ([]models.Place, error)
}
