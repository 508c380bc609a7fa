package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hazglobal/hazmatgo/internal/lifecycle"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/notify"
	"github.com/hazglobal/hazmatgo/internal/services/pod"
	"github.com/hazglobal/hazmatgo/internal/store"
)

// Service processes QR scan confirmations from driver devices. A collection
// scan moves the shipment into In Progress and records the collector; a
// delivery scan closes it out: POD document, completed record, delivered mail.
type Service struct {
	store    store.Store
	pods     *pod.Generator
	notifier *notify.Service
}

func NewService(st store.Store, pods *pod.Generator, notifier *notify.Service) *Service {
	return &Service{store: st, pods: pods, notifier: notifier}
}

// Request is one scan event from a device
type Request struct {
	Reference    string `json:"reference"`
	DriverCode   string `json:"driverCode"`
	Stage        string `json:"stage"` // collection or delivery
	SignedBy     string `json:"signedBy"`
	Condition    string `json:"condition"`
	Notes        string `json:"notes"`
	SignatureB64 string `json:"signature"`

	// Optional ops-entered timestamp for third-party deliveries confirmed
	// after the fact; defaults to the scan time.
	DeliveryDate string `json:"deliveryDate"` // YYYY-MM-DD
	DeliveryTime string `json:"deliveryTime"` // HH:MM
}

// Result is returned to the scanning device on acceptance
type Result struct {
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	PODPath   string    `json:"podPath,omitempty"`
}

// Confirm validates and applies one scan. The status transition is guarded by
// a compare-and-swap on (status, version), so two devices scanning the same
// code race to a single winner; the loser gets ErrConflict and no side
// effects run twice.
func (s *Service) Confirm(ctx context.Context, req Request) (Result, error) {
	event, err := lifecycle.StageEvent(req.Stage)
	if err != nil {
		s.audit(ctx, req, false)
		return Result{}, err
	}

	shipment, err := s.store.GetShipment(ctx, req.Reference)
	if err != nil {
		s.audit(ctx, req, false)
		return Result{}, err
	}

	next, err := lifecycle.Next(shipment.Status, event)
	if err != nil {
		s.audit(ctx, req, false)
		return Result{}, err
	}

	updates := map[string]interface{}{"status": next}
	if event == lifecycle.EventCollect && req.DriverCode != "" {
		updates["driver_code"] = req.DriverCode
	}
	if err := s.store.TransitionShipment(ctx, shipment.Reference, shipment.Status, shipment.Version, updates); err != nil {
		s.audit(ctx, req, false)
		return Result{}, err
	}
	s.audit(ctx, req, true)

	now := time.Now()
	result := Result{Reference: shipment.Reference, Status: next, Timestamp: now}

	switch event {
	case lifecycle.EventCollect:
		s.notifier.Publish(notify.Event{
			Reference: shipment.Reference,
			Update:    "Shipment collected",
			Subject:   notify.Subject("Shipment Collected", shipment),
			HTMLBody: fmt.Sprintf(
				"<p>Good day,</p><p>Your shipment <b>%s</b> has been collected and is now in transit.</p><p>Regards,<br>Hazmat Global Operations</p>",
				shipment.Reference),
		})

	case lifecycle.EventDeliver:
		podPath := s.closeOut(ctx, shipment, req, now)
		result.PODPath = podPath
	}

	return result, nil
}

// ConfirmManual closes out a shipment from the ops console. Third-party
// transporters never produce a collection scan, so the shipment may still be
// Assigned (or even Pending) when the signed POD arrives; any non-terminal
// status is accepted and moved straight to Delivered.
func (s *Service) ConfirmManual(ctx context.Context, req Request) (Result, error) {
	req.Stage = lifecycle.StageDelivery

	shipment, err := s.store.GetShipment(ctx, req.Reference)
	if err != nil {
		s.audit(ctx, req, false)
		return Result{}, err
	}
	if lifecycle.Terminal(shipment.Status) {
		s.audit(ctx, req, false)
		return Result{}, fmt.Errorf("%w: shipment %s is already %s", models.ErrTerminalState, shipment.Reference, shipment.Status)
	}

	updates := map[string]interface{}{"status": models.StatusDelivered}
	if err := s.store.TransitionShipment(ctx, shipment.Reference, shipment.Status, shipment.Version, updates); err != nil {
		s.audit(ctx, req, false)
		return Result{}, err
	}
	s.audit(ctx, req, true)

	now := time.Now()
	podPath := s.closeOut(ctx, shipment, req, now)
	return Result{Reference: shipment.Reference, Status: models.StatusDelivered, Timestamp: now, PODPath: podPath}, nil
}

// closeOut runs the delivery side effects after the transition has already
// won the CAS. Each step is best-effort: a failed POD render or mail must not
// undo a physically completed delivery.
func (s *Service) closeOut(ctx context.Context, shipment *models.Shipment, req Request, at time.Time) string {
	deliveryDate := req.DeliveryDate
	if deliveryDate == "" {
		deliveryDate = at.Format("2006-01-02")
	}
	deliveryTime := req.DeliveryTime
	if deliveryTime == "" {
		deliveryTime = at.Format("15:04")
	}

	podPath := ""
	if s.pods != nil {
		path, err := s.pods.ProofOfDelivery(pod.PODData{
			Reference:    shipment.Reference,
			SecondaryRef: shipment.SecondaryRef,
			Company:      shipment.Company,
			SignedBy:     req.SignedBy,
			DeliveryDate: deliveryDate,
			DeliveryTime: deliveryTime,
			Condition:    req.Condition,
			Notes:        req.Notes,
			SignatureB64: req.SignatureB64,
		})
		if err != nil {
			log.Printf("⚠️ Scan: POD generation failed for %s: %v", shipment.Reference, err)
		} else {
			podPath = path
		}
	}

	completed := &models.CompletedShipment{
		Operator:     shipment.Operator,
		SecondaryRef: shipment.SecondaryRef,
		Reference:    shipment.Reference,
		Company:      shipment.Company,
		DeliveryDate: deliveryDate,
		DeliveryTime: deliveryTime,
		SignedBy:     req.SignedBy,
		DocumentPath: shipment.WaybillPath,
		PODPath:      podPath,
	}
	if err := s.store.CreateCompleted(ctx, completed); err != nil {
		log.Printf("⚠️ Scan: completed record failed for %s: %v", shipment.Reference, err)
	}

	s.notifier.Publish(notify.Event{
		Reference: shipment.Reference,
		Update:    "Shipment delivered",
		Subject:   notify.Subject("Shipment Delivered", shipment),
		HTMLBody: fmt.Sprintf(
			"<p>Good day,</p><p>Your shipment <b>%s</b> was delivered on %s at %s and signed for by %s.</p><p>The proof of delivery is attached.</p><p>Regards,<br>Hazmat Global Operations</p>",
			shipment.Reference, deliveryDate, deliveryTime, req.SignedBy),
		AttachmentPath: podPath,
	})

	return podPath
}

func (s *Service) audit(ctx context.Context, req Request, accepted bool) {
	err := s.store.CreateScanLog(ctx, &models.ScanLog{
		ID:         uuid.NewString(),
		Reference:  req.Reference,
		DriverCode: req.DriverCode,
		Stage:      req.Stage,
		SignedBy:   req.SignedBy,
		Condition:  req.Condition,
		Notes:      req.Notes,
		Accepted:   accepted,
	})
	if err != nil {
		log.Printf("⚠️ Scan: audit log write failed for %s: %v", req.Reference, err)
	}
}
