package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazglobal/hazmatgo/internal/lifecycle"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/notify"
	"github.com/hazglobal/hazmatgo/internal/services/pod"
	"github.com/hazglobal/hazmatgo/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	pods, err := pod.NewGenerator(t.TempDir())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	notifier := notify.NewService(st, nil, "jnb@hazglobal.com", time.Second)
	return NewService(st, pods, notifier), st
}

func seedShipment(t *testing.T, st store.Store, ref, status string) {
	t.Helper()
	s := &models.Shipment{
		Reference:       ref,
		Kind:            models.KindLocal,
		Branch:          "JNB",
		Company:         "Acme Chemicals",
		Status:          status,
		PickupAddress:   "10 Industrial Rd, Germiston",
		DeliveryAddress: "55 Main Reef Rd, Roodepoort",
	}
	if err := st.CreateShipment(context.Background(), s); err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
}

func TestCollectionScanAdvancesAndRecordsDriver(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0001", models.StatusAssigned)

	res, err := svc.Confirm(context.Background(), Request{
		Reference:  "HAZJNB0001",
		DriverCode: "DRV01",
		Stage:      lifecycle.StageCollection,
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Status != models.StatusInProgress {
		t.Errorf("status = %q, want %q", res.Status, models.StatusInProgress)
	}

	s, _ := st.GetShipment(context.Background(), "HAZJNB0001")
	if s.Status != models.StatusInProgress {
		t.Errorf("stored status = %q", s.Status)
	}
	if s.DriverCode == nil || *s.DriverCode != "DRV01" {
		t.Error("collection scan should record the collecting driver")
	}
}

func TestCollectionScanAcceptedFromPending(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0002", models.StatusPending)

	res, err := svc.Confirm(context.Background(), Request{
		Reference:  "HAZJNB0002",
		DriverCode: "DRV02",
		Stage:      lifecycle.StageCollection,
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Status != models.StatusInProgress {
		t.Errorf("status = %q", res.Status)
	}
}

func TestDeliveryBeforeCollectionRejected(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0003", models.StatusAssigned)

	_, err := svc.Confirm(context.Background(), Request{
		Reference: "HAZJNB0003",
		Stage:     lifecycle.StageDelivery,
		SignedBy:  "J. Smith",
	})
	if !errors.Is(err, models.ErrInvalidStage) {
		t.Fatalf("err = %v, want ErrInvalidStage", err)
	}

	s, _ := st.GetShipment(context.Background(), "HAZJNB0003")
	if s.Status != models.StatusAssigned {
		t.Error("rejected scan must not mutate status")
	}
	if len(st.ScanLogs()) != 1 || st.ScanLogs()[0].Accepted {
		t.Error("rejected scan should leave a non-accepted audit entry")
	}
}

func TestDeliveryScanClosesOut(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0004", models.StatusInProgress)

	res, err := svc.Confirm(context.Background(), Request{
		Reference: "HAZJNB0004",
		Stage:     lifecycle.StageDelivery,
		SignedBy:  "J. Smith",
		Condition: "Good",
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Status != models.StatusDelivered {
		t.Errorf("status = %q", res.Status)
	}
	if res.PODPath == "" {
		t.Error("delivery scan should produce a POD document")
	}

	completed, _ := st.ListCompleted(context.Background())
	if len(completed) != 1 {
		t.Fatalf("completed records = %d, want 1", len(completed))
	}
	if completed[0].SignedBy != "J. Smith" {
		t.Errorf("SignedBy = %q", completed[0].SignedBy)
	}
	if completed[0].PODPath != res.PODPath {
		t.Error("completed record should reference the POD document")
	}
}

func TestDuplicateDeliveryScanRejected(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0005", models.StatusInProgress)

	ctx := context.Background()
	if _, err := svc.Confirm(ctx, Request{Reference: "HAZJNB0005", Stage: lifecycle.StageDelivery, SignedBy: "A"}); err != nil {
		t.Fatalf("first delivery scan: %v", err)
	}
	_, err := svc.Confirm(ctx, Request{Reference: "HAZJNB0005", Stage: lifecycle.StageDelivery, SignedBy: "B"})
	if !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("second scan err = %v, want ErrTerminalState", err)
	}

	completed, _ := st.ListCompleted(ctx)
	if len(completed) != 1 {
		t.Errorf("completed records = %d, want exactly 1", len(completed))
	}
}

func TestUnknownReference(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Confirm(context.Background(), Request{Reference: "HAZJNB9999", Stage: lifecycle.StageCollection})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRejectedScansAudited(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0008", models.StatusAssigned)

	ctx := context.Background()
	if _, err := svc.Confirm(ctx, Request{Reference: "HAZJNB0008", Stage: "teleport"}); !errors.Is(err, models.ErrInvalidStage) {
		t.Fatalf("unknown stage err = %v, want ErrInvalidStage", err)
	}
	if _, err := svc.Confirm(ctx, Request{Reference: "HAZJNB9999", Stage: lifecycle.StageCollection}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("unknown reference err = %v, want ErrNotFound", err)
	}

	logs := st.ScanLogs()
	if len(logs) != 2 {
		t.Fatalf("scan logs = %d, want 2", len(logs))
	}
	for _, entry := range logs {
		if entry.Accepted {
			t.Errorf("rejected scan for %s logged as accepted", entry.Reference)
		}
	}
}

func TestUnknownStage(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0006", models.StatusAssigned)

	_, err := svc.Confirm(context.Background(), Request{Reference: "HAZJNB0006", Stage: "teleport"})
	if !errors.Is(err, models.ErrInvalidStage) {
		t.Fatalf("err = %v, want ErrInvalidStage", err)
	}
}

func TestManualDeliveryFromAssigned(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0009", models.StatusAssigned)

	res, err := svc.ConfirmManual(context.Background(), Request{
		Reference:    "HAZJNB0009",
		SignedBy:     "M. Dlamini",
		Condition:    "Good",
		DeliveryDate: "2026-08-28",
		DeliveryTime: "11:30",
	})
	if err != nil {
		t.Fatalf("ConfirmManual: %v", err)
	}
	if res.Status != models.StatusDelivered {
		t.Errorf("status = %q, want %q", res.Status, models.StatusDelivered)
	}
	if res.PODPath == "" {
		t.Error("manual delivery should produce a POD document")
	}

	s, _ := st.GetShipment(context.Background(), "HAZJNB0009")
	if s.Status != models.StatusDelivered {
		t.Errorf("stored status = %q", s.Status)
	}

	completed, _ := st.ListCompleted(context.Background())
	if len(completed) != 1 {
		t.Fatalf("completed records = %d, want 1", len(completed))
	}
	if completed[0].DeliveryDate != "2026-08-28" || completed[0].DeliveryTime != "11:30" {
		t.Errorf("completed record kept %s %s, want the captured date and time",
			completed[0].DeliveryDate, completed[0].DeliveryTime)
	}

	logs := st.ScanLogs()
	if len(logs) != 1 || !logs[0].Accepted || logs[0].Stage != lifecycle.StageDelivery {
		t.Error("manual delivery should leave one accepted delivery audit entry")
	}
}

func TestManualDeliveryRejectsDelivered(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0010", models.StatusAssigned)

	ctx := context.Background()
	if _, err := svc.ConfirmManual(ctx, Request{Reference: "HAZJNB0010", SignedBy: "A"}); err != nil {
		t.Fatalf("first close-out: %v", err)
	}
	_, err := svc.ConfirmManual(ctx, Request{Reference: "HAZJNB0010", SignedBy: "B"})
	if !errors.Is(err, models.ErrTerminalState) {
		t.Fatalf("second close-out err = %v, want ErrTerminalState", err)
	}

	completed, _ := st.ListCompleted(ctx)
	if len(completed) != 1 {
		t.Errorf("completed records = %d, want exactly 1", len(completed))
	}
}

func TestConcurrentCollectionScansSingleWinner(t *testing.T) {
	svc, st := newTestService(t)
	seedShipment(t, st, "HAZJNB0007", models.StatusAssigned)

	ctx := context.Background()
	type outcome struct {
		err error
	}
	results := make(chan outcome, 2)
	for _, code := range []string{"DRV01", "DRV02"} {
		go func(code string) {
			_, err := svc.Confirm(ctx, Request{Reference: "HAZJNB0007", DriverCode: code, Stage: lifecycle.StageCollection})
			results <- outcome{err: err}
		}(code)
	}

	var failures int
	for i := 0; i < 2; i++ {
		if r := <-results; r.err != nil {
			failures++
			if !errors.Is(r.err, models.ErrConflict) && !errors.Is(r.err, models.ErrInvalidStage) {
				t.Errorf("loser err = %v, want conflict or invalid stage", r.err)
			}
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want exactly one losing scan", failures)
	}

	s, _ := st.GetShipment(ctx, "HAZJNB0007")
	if s.Status != models.StatusInProgress {
		t.Errorf("final status = %q", s.Status)
	}
	if s.Version != 1 {
		t.Errorf("version = %d, want 1 (single applied transition)", s.Version)
	}
}
