package engine

import (
	"fmt"
	"math"

	"github.com/zulandar/railsection/internal/models"
)

// adviseArrivals offers platform assignments to approaching trains that are
// about to reach their next stop. At most one recommendation per train and
// stop is outstanding; nothing is offered while every platform is taken.
func adviseArrivals(tx *txn, p Params, newID func(prefix string) string) {
	w := tx.world()
	for _, t := range w.Trains {
		if t.Status != models.StatusApproaching || t.NextStop == "" || t.NextStop == models.EndOfLine {
			continue
		}
		st, ok := w.Station(t.NextStop)
		if !ok || math.Abs(t.Progress-st.Position) >= p.ArrivalThreshold {
			continue
		}
		key := models.AdvisoryKey{Train: t.Label(), Kind: models.KindArrival, Station: st.Name}
		if tx.hasRecommendation(key) {
			continue
		}
		free := w.FreePlatforms(st)
		if len(free) == 0 {
			continue
		}

		actions := make([]models.Action, 0, len(free))
		for _, n := range free {
			actions = append(actions, models.Action{
				DisplayText: fmt.Sprintf("Assign Platform %d", n),
				Command:     models.CmdAssignPlatform,
				TrainID:     t.Label(),
				StationName: st.Name,
				Platform:    n,
			})
		}
		rec := models.Recommendation{
			ID:        newID("arrival-rec-" + t.Label()),
			Title:     fmt.Sprintf("Assign platform for %s (%s)", t.Name, t.Label()),
			Reason:    fmt.Sprintf("Train is approaching its next stop: %s. Assign a platform for a smooth arrival.", st.Name),
			Actions:   actions,
			CreatedAt: tx.now,
			ExpiresAt: tx.now.Add(p.AdvisoryLifetime),
			Key:       key,
		}
		tx.addRecommendation(rec)
		tx.emit(Event{
			Kind:           EventRecommendationRaised,
			TrainID:        t.ID,
			Station:        st.Name,
			AdvisoryID:     rec.ID,
			Message:        rec.Title,
			Recommendation: &rec,
		})
	}
}
