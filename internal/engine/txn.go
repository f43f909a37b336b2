package engine

import (
	"slices"
	"time"

	"github.com/zulandar/railsection/internal/models"
)

// EventKind names something a mutation pass did.
type EventKind string

const (
	EventTrainReleased        EventKind = "train_released"
	EventTrainExited          EventKind = "train_exited"
	EventAlertRaised          EventKind = "alert_raised"
	EventRecommendationRaised EventKind = "recommendation_raised"
	EventAdvisoryExpired      EventKind = "advisory_expired"
	EventCommandApplied       EventKind = "command_applied"
	EventWorldReset           EventKind = "world_reset"
)

// Event describes one change committed by a mutation pass.
type Event struct {
	Kind       EventKind
	At         time.Time
	TrainID    string
	Station    string
	AdvisoryID string
	Severity   models.Severity
	Message    string

	// Set for EventAlertRaised and EventRecommendationRaised.
	Alert          *models.Alert
	Recommendation *models.Recommendation
}

const (
	touchTrains uint8 = 1 << iota
	touchAlerts
	touchRecs
)

// txn is a copy-on-write view of a committed World. Sections are cloned the
// first time they are written; untouched sections stay shared with base.
// Stations are never written.
type txn struct {
	base    *models.World
	next    models.World
	now     time.Time
	touched uint8
	dirty   bool
	events  []Event
}

func begin(base *models.World, now time.Time) *txn {
	if base == nil {
		base = &models.World{}
	}
	return &txn{base: base, next: *base, now: now}
}

// world returns the in-progress state for reading.
func (tx *txn) world() *models.World { return &tx.next }

// train returns a writable pointer to train i and marks the pass dirty.
func (tx *txn) train(i int) *models.Train {
	if tx.touched&touchTrains == 0 {
		tx.next.Trains = slices.Clone(tx.next.Trains)
		tx.touched |= touchTrains
	}
	tx.dirty = true
	return &tx.next.Trains[i]
}

// keepTrains drops trains for which keep returns false.
func (tx *txn) keepTrains(keep func(models.Train) bool) []models.Train {
	kept := make([]models.Train, 0, len(tx.next.Trains))
	var dropped []models.Train
	for _, t := range tx.next.Trains {
		if keep(t) {
			kept = append(kept, t)
		} else {
			dropped = append(dropped, t)
		}
	}
	if len(dropped) > 0 {
		tx.next.Trains = kept
		tx.touched |= touchTrains
		tx.dirty = true
	}
	return dropped
}

func (tx *txn) addAlert(a models.Alert) {
	if tx.touched&touchAlerts == 0 {
		tx.next.Alerts = slices.Clone(tx.next.Alerts)
		tx.touched |= touchAlerts
	}
	tx.next.Alerts = append(tx.next.Alerts, a)
	tx.dirty = true
}

func (tx *txn) addRecommendation(r models.Recommendation) {
	if tx.touched&touchRecs == 0 {
		tx.next.Recommendations = slices.Clone(tx.next.Recommendations)
		tx.touched |= touchRecs
	}
	tx.next.Recommendations = append(tx.next.Recommendations, r)
	tx.dirty = true
}

// keepAlerts drops alerts for which keep returns false.
func (tx *txn) keepAlerts(keep func(models.Alert) bool) []models.Alert {
	kept := make([]models.Alert, 0, len(tx.next.Alerts))
	var dropped []models.Alert
	for _, a := range tx.next.Alerts {
		if keep(a) {
			kept = append(kept, a)
		} else {
			dropped = append(dropped, a)
		}
	}
	if len(dropped) > 0 {
		tx.next.Alerts = kept
		tx.touched |= touchAlerts
		tx.dirty = true
	}
	return dropped
}

// keepRecommendations drops recommendations for which keep returns false.
func (tx *txn) keepRecommendations(keep func(models.Recommendation) bool) []models.Recommendation {
	kept := make([]models.Recommendation, 0, len(tx.next.Recommendations))
	var dropped []models.Recommendation
	for _, r := range tx.next.Recommendations {
		if keep(r) {
			kept = append(kept, r)
		} else {
			dropped = append(dropped, r)
		}
	}
	if len(dropped) > 0 {
		tx.next.Recommendations = kept
		tx.touched |= touchRecs
		tx.dirty = true
	}
	return dropped
}

func (tx *txn) hasAlert(key models.AdvisoryKey) bool {
	for _, a := range tx.next.Alerts {
		if a.Key == key {
			return true
		}
	}
	return false
}

func (tx *txn) hasRecommendation(key models.AdvisoryKey) bool {
	for _, r := range tx.next.Recommendations {
		if r.Key == key {
			return true
		}
	}
	return false
}

func (tx *txn) emit(ev Event) {
	ev.At = tx.now
	tx.events = append(tx.events, ev)
}

// result returns the next committed state, or base when nothing changed.
func (tx *txn) result() *models.World {
	if !tx.dirty {
		return tx.base
	}
	next := tx.next
	return &next
}

func findTrain(trains []models.Train, target string) int {
	for i, t := range trains {
		if t.ID == target {
			return i
		}
	}
	for i, t := range trains {
		if t.Matches(target) {
			return i
		}
	}
	return -1
}
