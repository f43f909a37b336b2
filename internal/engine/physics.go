package engine

import (
	"fmt"
	"time"

	"github.com/zulandar/railsection/internal/models"
)

// msPerHour converts km/h into corridor units per millisecond.
const msPerHour = 3600000

// advance moves every train that is in motion by dt and removes trains that
// have run off the end of the corridor.
func advance(tx *txn, dt time.Duration) {
	dtMs := float64(dt) / float64(time.Millisecond)
	if dtMs > 0 {
		for i, t := range tx.world().Trains {
			if t.Speed <= 0 || !t.Status.Movable() {
				continue
			}
			distance := t.Speed / msPerHour * dtMs
			next := clampProgress(t.Progress + distance*t.Direction.Sign())
			if next == t.Progress {
				continue
			}
			tx.train(i).Progress = next
		}
	}

	exited := tx.keepTrains(func(t models.Train) bool { return !atTerminal(t) })
	for _, t := range exited {
		tx.emit(Event{
			Kind:    EventTrainExited,
			TrainID: t.ID,
			Message: fmt.Sprintf("%s left the section %s", t.Label(), t.Direction),
		})
	}
}

// atTerminal reports whether t has finished its run and left the corridor.
func atTerminal(t models.Train) bool {
	if t.NextStop != models.EndOfLine {
		return false
	}
	if t.Direction == models.Westbound {
		return t.Progress <= 0
	}
	return t.Progress >= 100
}

func clampProgress(p float64) float64 {
	return min(100, max(0, p))
}
