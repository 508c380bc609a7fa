package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazglobal/hazmatgo/internal/database"
	"github.com/hazglobal/hazmatgo/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore is the GORM-backed Store implementation
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore wraps a database connection
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate synchronizes the schema and seeds the place catalog when empty
func (p *PostgresStore) Migrate() error {
	err := p.db.AutoMigrate(
		&models.UserAuth{},
		&models.Shipment{},
		&models.CompletedShipment{},
		&models.ShipmentUpdate{},
		&models.ScanLog{},
		&models.Driver{},
		&models.Place{},
	)
	if err != nil {
		return err
	}

	var count int64
	if err := p.db.Model(&models.Place{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := p.db.Create(&SeedPlaces).Error; err != nil {
			return fmt.Errorf("failed to seed place catalog: %w", err)
		}
	}
	return nil
}

// CreateShipment persists a new shipment; duplicated references conflict
func (p *PostgresStore) CreateShipment(ctx context.Context, s *models.Shipment) error {
	var existing models.Shipment
	err := p.db.WithContext(ctx).Where("reference = ?", s.Reference).First(&existing).Error
	if err == nil {
		return fmt.Errorf("%w: reference %s already exists", models.ErrConflict, s.Reference)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := p.db.WithContext(ctx).Create(s).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: reference %s already exists", models.ErrConflict, s.Reference)
		}
		return err
	}
	return nil
}

// GetShipment fetches a shipment by its reference
func (p *PostgresStore) GetShipment(ctx context.Context, reference string) (*models.Shipment, error) {
	var s models.Shipment
	if err := p.db.WithContext(ctx).Where("reference = ?", reference).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, reference)
		}
		return nil, err
	}
	return &s, nil
}

// TransitionShipment is the compare-and-swap behind every status change
func (p *PostgresStore) TransitionShipment(ctx context.Context, reference, fromStatus string, fromVersion int64, updates map[string]interface{}) error {
	set := map[string]interface{}{
		"version":    fromVersion + 1,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range updates {
		set[k] = v
	}

	res := p.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("reference = ? AND status = ? AND version = ?", reference, fromStatus, fromVersion).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Row gone or raced by another writer
		var count int64
		if err := p.db.WithContext(ctx).Model(&models.Shipment{}).
			Where("reference = ?", reference).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", models.ErrNotFound, reference)
		}
		return fmt.Errorf("%w: shipment %s changed concurrently", models.ErrConflict, reference)
	}
	return nil
}

// SaveWaybillPath stores the generated waybill location on the shipment
func (p *PostgresStore) SaveWaybillPath(ctx context.Context, reference, path string) error {
	return p.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("reference = ?", reference).
		Update("waybill_path", path).Error
}

// ListUnassigned returns shipments still waiting for a driver
func (p *PostgresStore) ListUnassigned(ctx context.Context) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := p.db.WithContext(ctx).
		Where("status IN ? AND (driver_code IS NULL OR driver_code = '')",
			[]string{models.StatusPending, models.StatusAssigned}).
		Order("created_at ASC").
		Find(&shipments).Error
	return shipments, err
}

// ListAssigned returns shipments with a driver currently on the job
func (p *PostgresStore) ListAssigned(ctx context.Context) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := p.db.WithContext(ctx).
		Where("driver_code IS NOT NULL AND status IN ?",
			[]string{models.StatusAssigned, models.StatusInProgress}).
		Order("updated_at DESC").
		Find(&shipments).Error
	return shipments, err
}

// ListByDriver returns a driver's shipments in the given statuses
func (p *PostgresStore) ListByDriver(ctx context.Context, driverCode string, statuses ...string) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := p.db.WithContext(ctx).
		Where("driver_code = ? AND status IN ?", driverCode, statuses).
		Order("updated_at DESC").
		Find(&shipments).Error
	return shipments, err
}

// DeleteTestData removes dummy shipments created during testing
func (p *PostgresStore) DeleteTestData(ctx context.Context, prefix string) error {
	pattern := prefix + "%"
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference LIKE ?", pattern).Delete(&models.Shipment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reference LIKE ?", pattern).Delete(&models.ShipmentUpdate{}).Error; err != nil {
			return err
		}
		return tx.Where("reference LIKE ?", pattern).Delete(&models.CompletedShipment{}).Error
	})
}

// CreateCompleted appends a delivered-shipment snapshot
func (p *PostgresStore) CreateCompleted(ctx context.Context, c *models.CompletedShipment) error {
	return p.db.WithContext(ctx).Create(c).Error
}

// ListCompleted returns the completed archive, newest first
func (p *PostgresStore) ListCompleted(ctx context.Context) ([]models.CompletedShipment, error) {
	var completed []models.CompletedShipment
	err := p.db.WithContext(ctx).Order("id DESC").Find(&completed).Error
	return completed, err
}

// CreateUpdate creates the notification thread state for a shipment
func (p *PostgresStore) CreateUpdate(ctx context.Context, u *models.ShipmentUpdate) error {
	if err := p.db.WithContext(ctx).Create(u).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: update state for %s already exists", models.ErrConflict, u.Reference)
		}
		return err
	}
	return nil
}

// GetUpdate fetches the thread state for a shipment
func (p *PostgresStore) GetUpdate(ctx context.Context, reference string) (*models.ShipmentUpdate, error) {
	var u models.ShipmentUpdate
	if err := p.db.WithContext(ctx).Where("reference = ?", reference).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no update state for %s", models.ErrNotFound, reference)
		}
		return nil, err
	}
	return &u, nil
}

// RecordNotification writes the latest update text and thread id together
func (p *PostgresStore) RecordNotification(ctx context.Context, reference, latestUpdate, documentPath, messageID string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set := map[string]interface{}{"latest_update": latestUpdate}
		if documentPath != "" {
			set["document_path"] = documentPath
		}
		if messageID != "" {
			set["message_id"] = messageID
		}
		if err := tx.Model(&models.ShipmentUpdate{}).
			Where("reference = ?", reference).Updates(set).Error; err != nil {
			return err
		}
		if messageID != "" {
			if err := tx.Model(&models.Shipment{}).
				Where("reference = ?", reference).
				Update("message_id", messageID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateScanLog appends an audit entry for a scan event
func (p *PostgresStore) CreateScanLog(ctx context.Context, l *models.ScanLog) error {
	return p.db.WithContext(ctx).Create(l).Error
}

// UpsertDriverLocation records a driver's live position
func (p *PostgresStore) UpsertDriverLocation(ctx context.Context, code string, lat, lng float64) error {
	driver := models.Driver{Code: code, Name: code, Lat: &lat, Lng: &lng}
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "updated_at"}),
	}).Create(&driver).Error
}

// ListDrivers returns all drivers with last known locations
func (p *PostgresStore) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	var drivers []models.Driver
	err := p.db.WithContext(ctx).Order("code ASC").Find(&drivers).Error
	return drivers, err
}

// FindPlaceByAddress looks up a catalog row by canonical address
func (p *PostgresStore) FindPlaceByAddress(ctx context.Context, address string) (*models.Place, error) {
	var place models.Place
	if err := p.db.WithContext(ctx).Where("address = ?", address).First(&place).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: place for %q", models.ErrNotFound, address)
		}
		return nil, err
	}
	return &place, nil
}

// FindPlace resolves a region/area/place dropdown selection
func (p *PostgresStore) FindPlace(ctx context.Context, region, area, place string) (*models.Place, error) {
	var row models.Place
	err := p.db.WithContext(ctx).
		Where("region = ? AND area = ? AND place = ?", region, area, place).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s/%s", models.ErrNotFound, region, area, place)
		}
		return nil, err
	}
	return &row, nil
}

// AllPlaces returns the full catalog
func (p *PostgresStore) AllPlaces(ctx context.Context) ([]models.Place, error) {
	var places []models.Place
	err := p.db.WithContext(ctx).Find(&places).Error
	return places, err
}

// Regions lists distinct catalog regions
func (p *PostgresStore) Regions(ctx context.Context) ([]string, error) {
	var regions []string
	err := p.db.WithContext(ctx).Model(&models.Place{}).
		Distinct("region").Order("region").Pluck("region", &regions).Error
	return regions, err
}

// Areas lists distinct areas within a region
func (p *PostgresStore) Areas(ctx context.Context, region string) ([]string, error) {
	var areas []string
	err := p.db.WithContext(ctx).Model(&models.Place{}).
		Where("region = ?", region).
		Distinct("area").Order("area").Pluck("area", &areas).Error
	return areas, err
}

// Places lists catalog entries for a region/area pair
func (p *PostgresStore) Places(ctx context.Context, region, area string) ([]models.Place, error) {
	var places []models.Place
	err := p.db.WithContext(ctx).
		Where("region = ? AND area = ?", region, area).
		Order("place").Find(&places).Error
	return places, err
}
