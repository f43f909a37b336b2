package engine

import (
	"math"

	"github.com/zulandar/railsection/internal/models"
)

// classify applies the automatic status transitions: Departing settles into
// On Time at cruise speed, and running trains close to their next stop become
// Approaching. Delayed is never set or cleared here.
func classify(tx *txn, p Params) {
	w := tx.world()
	for i, t := range w.Trains {
		if t.Status == models.StatusDeparting {
			tr := tx.train(i)
			tr.Status = models.StatusOnTime
			tr.Speed = p.Cruise(tr.Type)
			t = *tr
		}
		if t.Status != models.StatusOnTime && t.Status != models.StatusDelayed {
			continue
		}
		if t.NextStop == "" || t.NextStop == models.EndOfLine {
			continue
		}
		st, ok := w.Station(t.NextStop)
		if !ok {
			continue
		}
		if math.Abs(t.Progress-st.Position) < p.ApproachThreshold {
			tx.train(i).Status = models.StatusApproaching
		}
	}
}
