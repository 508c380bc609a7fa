package dispatch

import (
	"time"

	"github.com/hazglobal/hazmatgo/internal/geo"
	"github.com/hazglobal/hazmatgo/internal/models"
	"github.com/jinzhu/now"
)

// Branch hubs: fixed depot coordinates used as the origin for
// distance-based dispatch decisions.
var hubs = map[string]geo.Coord{
	"JNB": {Lat: -26.2041, Lng: 28.0473},
	"CPT": {Lat: -33.9249, Lng: 18.4241},
	"KZN": {Lat: -29.8579, Lng: 31.0292},
	"PLZ": {Lat: -33.9608, Lng: 25.6022},
}

// sameDayCutoffHour: import deliveries booked before this hour go out the
// same day.
const sameDayCutoffHour = 13

// Hub returns the hub coordinate for a branch code
func Hub(branch string) (geo.Coord, bool) {
	hub, ok := hubs[branch]
	return hub, ok
}

// KnownBranch reports whether the branch code maps to a depot
func KnownBranch(branch string) bool {
	_, ok := hubs[branch]
	return ok
}

// Transporter decides whether a new shipment needs a third-party carrier.
// Only local and export shipments have a collection leg from the hub; an
// unresolved pickup never blocks booking and defaults to the driver pool.
// Returns models.TransporterThirdParty or "" (driver-eligible).
func Transporter(kind, branch string, pickup *geo.Coord) string {
	if kind != models.KindLocal && kind != models.KindExport {
		return ""
	}
	if pickup == nil {
		return ""
	}
	hub, ok := hubs[branch]
	if !ok {
		return ""
	}
	if geo.ClassifyLeg(hub, *pickup) == geo.LegRemote {
		return models.TransporterThirdParty
	}
	return ""
}

// ImportETAText words the expected delivery timing for an import that has
// just been collected at the airport. Within driver range the promise
// depends on the booking hour; otherwise no commitment is made.
func ImportETAText(branch string, delivery *geo.Coord, at time.Time) string {
	hub, ok := hubs[branch]
	if delivery == nil || !ok {
		return "will be delivered as soon as possible"
	}
	if geo.ClassifyLeg(hub, *delivery) == geo.LegRemote {
		return "will be delivered as soon as possible"
	}

	cutoff := now.With(at).BeginningOfDay().Add(sameDayCutoffHour * time.Hour)
	if at.Before(cutoff) {
		return "will be delivered today"
	}
	return "will be delivered tomorrow"
}
