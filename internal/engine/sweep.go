package engine

import "github.com/zulandar/railsection/internal/models"

// sweepExpired removes alerts and recommendations whose deadline has passed.
func sweepExpired(tx *txn) {
	for _, a := range tx.keepAlerts(func(a models.Alert) bool { return !a.Expired(tx.now) }) {
		tx.emit(Event{Kind: EventAdvisoryExpired, AdvisoryID: a.ID, Severity: a.Severity, Message: a.Message})
	}
	for _, r := range tx.keepRecommendations(func(r models.Recommendation) bool { return !r.Expired(tx.now) }) {
		tx.emit(Event{Kind: EventAdvisoryExpired, AdvisoryID: r.ID, Message: r.Title})
	}
}
