package engine

import (
	"fmt"
	"math"

	"github.com/zulandar/railsection/internal/models"
)

// arbitrateDepartures evaluates every stopped train whose departure time has
// come. A train with a clear path is released onto the main line; a blocked
// train stays put, keeps its departure time, and gets one High alert.
func arbitrateDepartures(tx *txn, p Params, newID func(prefix string) string) {
	w := tx.world()
	for i, t := range w.Trains {
		if t.Status != models.StatusStopped || t.DepartureTime == nil || tx.now.Before(*t.DepartureTime) {
			continue
		}

		if blocker, blocked := pathBlocked(w.Trains, t, p.ConflictWindow); blocked {
			key := models.AdvisoryKey{Train: t.Label(), Kind: models.KindDepartureConflict, Station: t.CurrentLocation}
			if tx.hasAlert(key) {
				continue
			}
			alert := models.Alert{
				ID:       newID("conflict-" + t.Label()),
				Message:  fmt.Sprintf("Departure conflict for %s at %s. Path is blocked.", t.Label(), t.CurrentLocation),
				Severity: models.SeverityHigh,
				SuggestedActions: []models.Action{{
					DisplayText: "Hold " + t.Label(),
					Command:     models.CmdHold,
					TrainID:     t.Label(),
					StationName: t.CurrentLocation,
				}},
				CreatedAt: tx.now,
				ExpiresAt: tx.now.Add(p.AdvisoryLifetime),
				Key:       key,
			}
			tx.addAlert(alert)
			tx.emit(Event{
				Kind:       EventAlertRaised,
				TrainID:    t.ID,
				Station:    t.CurrentLocation,
				AdvisoryID: alert.ID,
				Severity:   alert.Severity,
				Message:    fmt.Sprintf("%s (blocked by %s)", alert.Message, blocker.Label()),
				Alert:      &alert,
			})
			continue
		}

		from := t.CurrentLocation
		tr := tx.train(i)
		tr.CurrentLocation = models.InTransit
		tr.Track = models.TrackMain
		tr.DepartureTime = nil
		tr.Status = models.StatusDeparting
		tr.Speed = p.ReleaseSpeed
		tx.emit(Event{
			Kind:    EventTrainReleased,
			TrainID: t.ID,
			Station: from,
			Message: fmt.Sprintf("%s departed %s %s", t.Label(), from, t.Direction),
		})
	}
}

// pathBlocked reports whether another non-siding train lies within window
// of t and ahead of it in its direction of travel.
func pathBlocked(trains []models.Train, t models.Train, window float64) (models.Train, bool) {
	for _, other := range trains {
		if other.ID == t.ID || other.Status == models.StatusSiding {
			continue
		}
		if math.Abs(other.Progress-t.Progress) > window {
			continue
		}
		ahead := (other.Progress - t.Progress) * t.Direction.Sign()
		if ahead > 0 {
			return other, true
		}
	}
	return models.Train{}, false
}
