package lifecycle

import (
	"fmt"

	"github.com/hazglobal/hazmatgo/internal/models"
)

// Event is a trigger that may advance a shipment's status
type Event string

const (
	EventAssign  Event = "assign"
	EventCollect Event = "collect"
	EventDeliver Event = "deliver"
)

// Scan stages accepted from driver devices
const (
	StageCollection = "collection"
	StageDelivery   = "delivery"
)

// StageEvent maps a scan stage string onto a lifecycle event
func StageEvent(stage string) (Event, error) {
	switch stage {
	case StageCollection:
		return EventCollect, nil
	case StageDelivery:
		return EventDeliver, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrInvalidStage, stage)
	}
}

// Next returns the status an event moves a shipment into, or an error when
// the transition is illegal. Rules:
//
//	Pending  --assign-->  Assigned     (re-entrant: reassignment overwrites)
//	Assigned --collect--> In Progress  (Pending also accepted: the scan
//	                                    implicitly confirms the collector)
//	In Progress --deliver--> Delivered (terminal)
//
// A rejected event must never mutate state; callers apply the returned
// status themselves, guarded by a compare-and-swap on the store.
func Next(status string, event Event) (string, error) {
	switch event {
	case EventAssign:
		switch status {
		case models.StatusPending, models.StatusAssigned:
			return models.StatusAssigned, nil
		case models.StatusDelivered:
			return "", fmt.Errorf("cannot assign: %w", models.ErrTerminalState)
		default:
			return "", fmt.Errorf("%w: cannot assign shipment in status %q", models.ErrInvalidStage, status)
		}

	case EventCollect:
		switch status {
		case models.StatusPending, models.StatusAssigned:
			return models.StatusInProgress, nil
		case models.StatusDelivered:
			return "", fmt.Errorf("collection scan rejected: %w", models.ErrTerminalState)
		default:
			return "", fmt.Errorf("%w: collection scan in status %q", models.ErrInvalidStage, status)
		}

	case EventDeliver:
		switch status {
		case models.StatusInProgress:
			return models.StatusDelivered, nil
		case models.StatusDelivered:
			return "", fmt.Errorf("delivery scan rejected: %w", models.ErrTerminalState)
		default:
			return "", fmt.Errorf("%w: delivery scan before collection (status %q)", models.ErrInvalidStage, status)
		}
	}

	return "", fmt.Errorf("%w: unknown event %q", models.ErrInvalidStage, event)
}

// Terminal reports whether a status permits no further transitions
func Terminal(status string) bool {
	return status == models.StatusDelivered
}
