package store

import (
	"context"
	"errors"
	"testing"

	"github.com/hazglobal/hazmatgo/internal/models"
)

func seedShipment(t *testing.T, m *MemoryStore, ref string) *models.Shipment {
	t.Helper()
	s := &models.Shipment{Reference: ref, Kind: models.KindLocal, Branch: "JNB", Status: models.StatusPending}
	if err := m.CreateShipment(context.Background(), s); err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	return s
}

func TestTransitionCompareAndSwap(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedShipment(t, m, "HAZJNB0001")

	err := m.TransitionShipment(ctx, "HAZJNB0001", models.StatusPending, 0, map[string]interface{}{
		"status":      models.StatusAssigned,
		"driver_code": "DRV01",
	})
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}

	// Stale version loses
	err = m.TransitionShipment(ctx, "HAZJNB0001", models.StatusPending, 0, map[string]interface{}{
		"status": models.StatusAssigned,
	})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("stale transition err = %v, want ErrConflict", err)
	}

	s, err := m.GetShipment(ctx, "HAZJNB0001")
	if err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("version = %d, want 1", s.Version)
	}
	if s.Status != models.StatusAssigned {
		t.Errorf("status = %q", s.Status)
	}
	if s.DriverCode == nil || *s.DriverCode != "DRV01" {
		t.Error("driver_code not applied")
	}
}

func TestTransitionUnknownReference(t *testing.T) {
	m := NewMemoryStore()
	err := m.TransitionShipment(context.Background(), "HAZJNB9999", models.StatusPending, 0, nil)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordNotificationUpdatesThreadState(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedShipment(t, m, "HAZJNB0002")

	if err := m.CreateUpdate(ctx, &models.ShipmentUpdate{Reference: "HAZJNB0002"}); err != nil {
		t.Fatalf("CreateUpdate: %v", err)
	}
	if err := m.RecordNotification(ctx, "HAZJNB0002", "Booking confirmed", "/docs/HAZJNB0002.pdf", "<m1@hazglobal.com>"); err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}

	u, err := m.GetUpdate(ctx, "HAZJNB0002")
	if err != nil {
		t.Fatalf("GetUpdate: %v", err)
	}
	if u.MessageID != "<m1@hazglobal.com>" || u.LatestUpdate != "Booking confirmed" {
		t.Errorf("update state = %+v", u)
	}

	// Shipment mirrors the latest thread id
	s, _ := m.GetShipment(ctx, "HAZJNB0002")
	if s.MessageID != "<m1@hazglobal.com>" {
		t.Errorf("shipment MessageID = %q", s.MessageID)
	}

	// A send without a new id keeps the previous one
	if err := m.RecordNotification(ctx, "HAZJNB0002", "Collected", "", ""); err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}
	u, _ = m.GetUpdate(ctx, "HAZJNB0002")
	if u.MessageID != "<m1@hazglobal.com>" {
		t.Errorf("MessageID overwritten: %q", u.MessageID)
	}
	if u.LatestUpdate != "Collected" {
		t.Errorf("LatestUpdate = %q", u.LatestUpdate)
	}
}

func TestCreateUpdateDuplicateConflict(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedShipment(t, m, "HAZJNB0007")

	if err := m.CreateUpdate(ctx, &models.ShipmentUpdate{Reference: "HAZJNB0007", LatestUpdate: "Booked"}); err != nil {
		t.Fatalf("CreateUpdate: %v", err)
	}
	err := m.CreateUpdate(ctx, &models.ShipmentUpdate{Reference: "HAZJNB0007", LatestUpdate: "Rebooked"})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("duplicate CreateUpdate err = %v, want ErrConflict", err)
	}

	// Existing thread state survives the rejected insert
	u, getErr := m.GetUpdate(ctx, "HAZJNB0007")
	if getErr != nil {
		t.Fatalf("GetUpdate: %v", getErr)
	}
	if u.LatestUpdate != "Booked" {
		t.Errorf("LatestUpdate = %q, want Booked", u.LatestUpdate)
	}
}

func TestDeleteTestDataScopedByPrefix(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedShipment(t, m, "HAZTEST0001")
	seedShipment(t, m, "HAZJNB0003")

	if err := m.DeleteTestData(ctx, "HAZTEST"); err != nil {
		t.Fatalf("DeleteTestData: %v", err)
	}
	if _, err := m.GetShipment(ctx, "HAZTEST0001"); !errors.Is(err, models.ErrNotFound) {
		t.Error("test shipment should be gone")
	}
	if _, err := m.GetShipment(ctx, "HAZJNB0003"); err != nil {
		t.Error("real shipment should survive")
	}
}

func TestCatalogQueries(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	regions, err := m.Regions(ctx)
	if err != nil || len(regions) == 0 {
		t.Fatalf("Regions: %v (%d)", err, len(regions))
	}

	areas, err := m.Areas(ctx, "Gauteng")
	if err != nil || len(areas) == 0 {
		t.Fatalf("Areas: %v", err)
	}

	places, err := m.Places(ctx, "Gauteng", "Johannesburg")
	if err != nil || len(places) == 0 {
		t.Fatalf("Places: %v", err)
	}

	place, err := m.FindPlace(ctx, "Gauteng", "Johannesburg", "Sandton")
	if err != nil {
		t.Fatalf("FindPlace: %v", err)
	}
	if place.Address == "" {
		t.Error("place has no canonical address")
	}

	if _, err := m.FindPlace(ctx, "Gauteng", "Johannesburg", "Nowhere"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown place err = %v", err)
	}
}
