package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hazglobal/hazmatgo/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local experiments.
// Same semantics as PostgresStore, including the compare-and-swap guard.
type MemoryStore struct {
	mu        sync.RWMutex
	shipments map[string]*models.Shipment
	completed []models.CompletedShipment
	updates   map[string]*models.ShipmentUpdate
	scanLogs  []models.ScanLog
	drivers   map[string]*models.Driver
	places    []models.Place
	nextID    int64
}

// NewMemoryStore creates an empty in-memory store with the seeded catalog
func NewMemoryStore() *MemoryStore {
	places := make([]models.Place, len(SeedPlaces))
	copy(places, SeedPlaces)
	return &MemoryStore{
		shipments: make(map[string]*models.Shipment),
		updates:   make(map[string]*models.ShipmentUpdate),
		drivers:   make(map[string]*models.Driver),
		places:    places,
		nextID:    1,
	}
}

func (m *MemoryStore) CreateShipment(_ context.Context, s *models.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.shipments[s.Reference]; exists {
		return fmt.Errorf("%w: reference %s already exists", models.ErrConflict, s.Reference)
	}

	s.ID = m.nextID
	m.nextID++
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	clone := *s
	m.shipments[s.Reference] = &clone
	return nil
}

func (m *MemoryStore) GetShipment(_ context.Context, reference string) (*models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shipments[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, reference)
	}
	clone := *s
	return &clone, nil
}

func (m *MemoryStore) TransitionShipment(_ context.Context, reference, fromStatus string, fromVersion int64, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shipments[reference]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNotFound, reference)
	}
	if s.Status != fromStatus || s.Version != fromVersion {
		return fmt.Errorf("%w: shipment %s changed concurrently", models.ErrConflict, reference)
	}

	for k, v := range updates {
		switch k {
		case "status":
			s.Status = v.(string)
		case "driver_code":
			switch val := v.(type) {
			case string:
				s.DriverCode = &val
			case *string:
				s.DriverCode = val
			}
		case "transporter":
			s.Transporter = v.(string)
		}
	}
	s.Version = fromVersion + 1
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) SaveWaybillPath(_ context.Context, reference, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.shipments[reference]; ok {
		s.WaybillPath = path
	}
	return nil
}

func (m *MemoryStore) ListUnassigned(_ context.Context) ([]models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Shipment
	for _, s := range m.shipments {
		unassigned := s.DriverCode == nil || *s.DriverCode == ""
		if unassigned && (s.Status == models.StatusPending || s.Status == models.StatusAssigned) {
			out = append(out, *s)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (m *MemoryStore) ListAssigned(_ context.Context) ([]models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Shipment
	for _, s := range m.shipments {
		if s.DriverCode != nil && *s.DriverCode != "" &&
			(s.Status == models.StatusAssigned || s.Status == models.StatusInProgress) {
			out = append(out, *s)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (m *MemoryStore) ListByDriver(_ context.Context, driverCode string, statuses ...string) ([]models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	allowed := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}

	var out []models.Shipment
	for _, s := range m.shipments {
		if s.DriverCode != nil && *s.DriverCode == driverCode && allowed[s.Status] {
			out = append(out, *s)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (m *MemoryStore) DeleteTestData(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ref := range m.shipments {
		if strings.HasPrefix(ref, prefix) {
			delete(m.shipments, ref)
			delete(m.updates, ref)
		}
	}
	kept := m.completed[:0]
	for _, c := range m.completed {
		if !strings.HasPrefix(c.Reference, prefix) {
			kept = append(kept, c)
		}
	}
	m.completed = kept
	return nil
}

func (m *MemoryStore) CreateCompleted(_ context.Context, c *models.CompletedShipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = int64(len(m.completed) + 1)
	c.CreatedAt = time.Now().UTC()
	m.completed = append(m.completed, *c)
	return nil
}

func (m *MemoryStore) ListCompleted(_ context.Context) ([]models.CompletedShipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.CompletedShipment, len(m.completed))
	copy(out, m.completed)
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *MemoryStore) CreateUpdate(_ context.Context, u *models.ShipmentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.updates[u.Reference]; ok {
		return fmt.Errorf("%w: update state for %s already exists", models.ErrConflict, u.Reference)
	}
	clone := *u
	clone.CreatedAt = time.Now().UTC()
	m.updates[u.Reference] = &clone
	return nil
}

func (m *MemoryStore) GetUpdate(_ context.Context, reference string) (*models.ShipmentUpdate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.updates[reference]
	if !ok {
		return nil, fmt.Errorf("%w: no update state for %s", models.ErrNotFound, reference)
	}
	clone := *u
	return &clone, nil
}

func (m *MemoryStore) RecordNotification(_ context.Context, reference, latestUpdate, documentPath, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.updates[reference]
	if !ok {
		return fmt.Errorf("%w: no update state for %s", models.ErrNotFound, reference)
	}
	u.LatestUpdate = latestUpdate
	if documentPath != "" {
		u.DocumentPath = documentPath
	}
	if messageID != "" {
		u.MessageID = messageID
		if s, exists := m.shipments[reference]; exists {
			s.MessageID = messageID
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) CreateScanLog(_ context.Context, l *models.ScanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.CreatedAt = time.Now().UTC()
	m.scanLogs = append(m.scanLogs, *l)
	return nil
}

// ScanLogs exposes the audit trail to tests
func (m *MemoryStore) ScanLogs() []models.ScanLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ScanLog, len(m.scanLogs))
	copy(out, m.scanLogs)
	return out
}

func (m *MemoryStore) UpsertDriverLocation(_ context.Context, code string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drivers[code]
	if !ok {
		d = &models.Driver{ID: int64(len(m.drivers) + 1), Code: code, Name: code}
		m.drivers[code] = d
	}
	d.Lat = &lat
	d.Lng = &lng
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ListDrivers(_ context.Context) ([]models.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Driver
	for _, d := range m.drivers {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) FindPlaceByAddress(_ context.Context, address string) (*models.Place, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.places {
		if p.Address == address {
			place := p
			return &place, nil
		}
	}
	return nil, fmt.Errorf("%w: place for %q", models.ErrNotFound, address)
}

func (m *MemoryStore) FindPlace(_ context.Context, region, area, place string) (*models.Place, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.places {
		if p.Region == region && p.Area == area && p.Place == place {
			row := p
			return &row, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s/%s", models.ErrNotFound, region, area, place)
}

func (m *MemoryStore) AllPlaces(_ context.Context) ([]models.Place, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Place, len(m.places))
	copy(out, m.places)
	return out, nil
}

func (m *MemoryStore) Regions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var regions []string
	for _, p := range m.places {
		if !seen[p.Region] {
			seen[p.Region] = true
			regions = append(regions, p.Region)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

func (m *MemoryStore) Areas(_ context.Context, region string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var areas []string
	for _, p := range m.places {
		if p.Region == region && !seen[p.Area] {
			seen[p.Area] = true
			areas = append(areas, p.Area)
		}
	}
	sort.Strings(areas)
	return areas, nil
}

func (m *MemoryStore) Places(_ context.Context, region, area string) ([]models.Place, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Place
	for _, p := range m.places {
		if p.Region == region && p.Area == area {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Place < out[j].Place })
	return out, nil
}

func sortByCreated(shipments []models.Shipment) {
	sort.Slice(shipments, func(i, j int) bool {
		return shipments[i].CreatedAt.Before(shipments[j].CreatedAt)
	})
}
