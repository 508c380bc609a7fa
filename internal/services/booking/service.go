package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/hazglobal/hazmatgo/internal/dispatch"
	"github.com/hazglobal/hazmatgo/internal/geo"
	"github.com/hazglobal/hazmatgo/internal/lifecycle"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/hazglobal/hazmatgo/internal/services/notify"
	"github.com/hazglobal/hazmatgo/internal/services/pod"
	"github.com/hazglobal/hazmatgo/internal/store"
)

// AddressResolver turns free text into coordinates, nil when unresolved
type AddressResolver interface {
	Resolve(ctx context.Context, address string) *geo.Coord
}

// JobAlerter pushes a job notification to a connected driver device
type JobAlerter interface {
	NotifyDriver(code string, payload interface{})
}

// Service owns shipment intake and ops-side lifecycle actions: booking,
// assignment, manual overrides and the import airport-collection flow.
type Service struct {
	store    store.Store
	resolver AddressResolver
	pods     *pod.Generator
	notifier *notify.Service
	alerts   JobAlerter
}

func NewService(st store.Store, resolver AddressResolver, pods *pod.Generator, notifier *notify.Service, alerts JobAlerter) *Service {
	return &Service{store: st, resolver: resolver, pods: pods, notifier: notifier, alerts: alerts}
}

// CreateRequest is a new booking. Reference is optional, one is generated
// when the ops system does not supply its own.
type CreateRequest struct {
	Reference       string   `json:"reference"`
	SecondaryRef    string   `json:"secondaryRef"`
	Kind            string   `json:"kind"`
	Branch          string   `json:"branch"`
	Company         string   `json:"company"`
	Operator        string   `json:"operator"`
	PickupAddress   string   `json:"pickupAddress"`
	DeliveryAddress string   `json:"deliveryAddress"`
	Recipients      []string `json:"recipients"`
}

// CreateResult reports the booked shipment back to the caller
type CreateResult struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	Transporter string `json:"transporter"`
	WaybillPath string `json:"waybillPath,omitempty"`
}

// Create books a shipment: kind rules, geocoding, the 150 km transporter
// decision, waybill document and the first mail of the notification thread.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if !dispatch.KnownBranch(req.Branch) {
		return nil, fmt.Errorf("%w: unknown branch %q", models.ErrValidation, req.Branch)
	}

	shipment := &models.Shipment{
		Reference:       strings.TrimSpace(req.Reference),
		SecondaryRef:    req.SecondaryRef,
		Kind:            req.Kind,
		Branch:          req.Branch,
		Company:         req.Company,
		Operator:        req.Operator,
		Status:          models.StatusPending,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
	}
	if shipment.Reference == "" {
		shipment.Reference = generateReference(req.Branch)
	}
	if err := shipment.ValidateAddresses(); err != nil {
		return nil, err
	}

	if pickup := s.resolver.Resolve(ctx, shipment.PickupAddress); pickup != nil {
		shipment.PickupLat, shipment.PickupLng = &pickup.Lat, &pickup.Lng
	}
	if delivery := s.resolver.Resolve(ctx, shipment.DeliveryAddress); delivery != nil {
		shipment.DeliveryLat, shipment.DeliveryLng = &delivery.Lat, &delivery.Lng
	}

	var pickup *geo.Coord
	if shipment.PickupLat != nil && shipment.PickupLng != nil {
		pickup = &geo.Coord{Lat: *shipment.PickupLat, Lng: *shipment.PickupLng}
	}
	shipment.Transporter = dispatch.Transporter(shipment.Kind, shipment.Branch, pickup)

	if err := s.store.CreateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	// Documents and mail are best-effort once the shipment row exists
	if s.pods != nil {
		if path, err := s.pods.Waybill(shipment); err != nil {
			log.Printf("⚠️ Booking: waybill failed for %s: %v", shipment.Reference, err)
		} else {
			shipment.WaybillPath = path
			if err := s.store.SaveWaybillPath(ctx, shipment.Reference, path); err != nil {
				log.Printf("⚠️ Booking: waybill path not saved for %s: %v", shipment.Reference, err)
			}
		}
	}

	recipients, err := json.Marshal(req.Recipients)
	if err != nil {
		recipients = []byte("[]")
	}
	update := &models.ShipmentUpdate{
		Reference:    shipment.Reference,
		SecondaryRef: shipment.SecondaryRef,
		Operator:     shipment.Operator,
		Company:      shipment.Company,
		LatestUpdate: "Booking received",
		Recipients:   datatypes.JSON(recipients),
	}
	if err := s.store.CreateUpdate(ctx, update); err != nil {
		log.Printf("⚠️ Booking: update state not saved for %s: %v", shipment.Reference, err)
	}

	s.notifier.Publish(notify.Event{
		Reference:      shipment.Reference,
		Update:         "Booking confirmed",
		Subject:        notify.Subject("Booking Confirmation", shipment),
		HTMLBody:       bookingBody(shipment),
		AttachmentPath: shipment.WaybillPath,
	})

	return &CreateResult{
		Reference:   shipment.Reference,
		Status:      shipment.Status,
		Transporter: shipment.Transporter,
		WaybillPath: shipment.WaybillPath,
	}, nil
}

// Assign puts a shipment in a driver's or carrier's hands. Re-assignment is
// allowed and simply overwrites the assignee.
func (s *Service) Assign(ctx context.Context, reference, driverCode string) error {
	shipment, err := s.store.GetShipment(ctx, reference)
	if err != nil {
		return err
	}
	next, err := lifecycle.Next(shipment.Status, lifecycle.EventAssign)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":      next,
		"driver_code": driverCode,
	}
	if err := s.store.TransitionShipment(ctx, reference, shipment.Status, shipment.Version, updates); err != nil {
		return err
	}

	if s.alerts != nil && driverCode != "" && shipment.Transporter == "" {
		s.alerts.NotifyDriver(driverCode, map[string]interface{}{
			"type":            "job_alert",
			"reference":       shipment.Reference,
			"pickupAddress":   shipment.PickupAddress,
			"deliveryAddress": shipment.DeliveryAddress,
			"company":         shipment.Company,
		})
	}

	log.Printf("📦 Booking: %s assigned to %s", reference, driverCode)
	return nil
}

// OverrideStatus is the ops escape hatch: force a status without running the
// scan path. Still CAS-guarded so a concurrent scan cannot be silently undone.
func (s *Service) OverrideStatus(ctx context.Context, reference, status string, driverCode *string) error {
	switch status {
	case models.StatusPending, models.StatusAssigned, models.StatusInProgress, models.StatusDelivered:
	default:
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}

	shipment, err := s.store.GetShipment(ctx, reference)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"status": status}
	if driverCode != nil {
		updates["driver_code"] = *driverCode
	}
	if err := s.store.TransitionShipment(ctx, reference, shipment.Status, shipment.Version, updates); err != nil {
		return err
	}
	log.Printf("⚠️ Booking: status of %s manually set to %s", reference, status)
	return nil
}

// ImportCollected records that an import shipment was picked up at the
// airport and mails the client an arrival promise based on the delivery leg.
func (s *Service) ImportCollected(ctx context.Context, reference string) error {
	shipment, err := s.store.GetShipment(ctx, reference)
	if err != nil {
		return err
	}
	if shipment.Kind != models.KindImport {
		return fmt.Errorf("%w: %s is not an import shipment", models.ErrValidation, reference)
	}

	var delivery *geo.Coord
	if shipment.DeliveryLat != nil && shipment.DeliveryLng != nil {
		delivery = &geo.Coord{Lat: *shipment.DeliveryLat, Lng: *shipment.DeliveryLng}
	}
	eta := dispatch.ImportETAText(shipment.Branch, delivery, time.Now())

	s.notifier.Publish(notify.Event{
		Reference: reference,
		Update:    "Collected from airport",
		Subject:   notify.Subject("Import Collected", shipment),
		HTMLBody: fmt.Sprintf(
			"<p>Good day,</p><p>Your import shipment <b>%s</b> has been collected from the airport and %s.</p><p>Regards,<br>Hazmat Global Operations</p>",
			reference, eta),
	})
	return nil
}

func bookingBody(s *models.Shipment) string {
	switch s.Kind {
	case models.KindImport:
		return fmt.Sprintf(
			"<p>Good day,</p><p>Your import shipment has been booked under reference <b>%s</b>. We will collect it from the airport on arrival and deliver to %s.</p><p>Regards,<br>Hazmat Global Operations</p>",
			s.Reference, s.DeliveryAddress)
	case models.KindExport:
		return fmt.Sprintf(
			"<p>Good day,</p><p>Your export shipment has been booked under reference <b>%s</b>. Collection from %s will be arranged for the next available flight.</p><p>Regards,<br>Hazmat Global Operations</p>",
			s.Reference, s.PickupAddress)
	default:
		carrier := "one of our drivers"
		if s.Transporter == models.TransporterThirdParty {
			carrier = "a partner carrier"
		}
		return fmt.Sprintf(
			"<p>Good day,</p><p>Your shipment has been booked under reference <b>%s</b>. Collection from %s by %s, delivery to %s.</p><p>Regards,<br>Hazmat Global Operations</p>",
			s.Reference, s.PickupAddress, carrier, s.DeliveryAddress)
	}
}

// generateReference mints a booking reference like HAZJNB7F3A9C
func generateReference(branch string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("HAZ%s%s", branch, suffix)
}
