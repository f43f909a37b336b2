package dashboard

import (
	"time"

	"github.com/zulandar/railsection/internal/models"
)

// StateView is the JSON document served for the corridor state.
type StateView struct {
	Version           uint64                     `json:"version"`
	ServerTime        time.Time                  `json:"serverTime"`
	World             *models.World              `json:"world"`
	StatusCounts      map[models.TrainStatus]int `json:"statusCounts"`
	PlatformOccupancy map[string][]int           `json:"platformOccupancy"`
	Timers            []AdvisoryTimer            `json:"timers"`
}

// AdvisoryTimer reports how much of an advisory's lifetime is left.
type AdvisoryTimer struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expiresAt"`
	// Remaining is the fraction of the lifetime still left, in [0,1]. It is
	// 0 when the advisory has no recorded creation time.
	Remaining float64 `json:"remaining"`
}

func buildStateView(w *models.World, version uint64, now time.Time) StateView {
	if w == nil {
		w = &models.World{}
	}
	v := StateView{
		Version:           version,
		ServerTime:        now,
		World:             w,
		StatusCounts:      w.StatusCounts(),
		PlatformOccupancy: w.PlatformOccupancy(),
		Timers:            []AdvisoryTimer{},
	}
	for _, a := range w.Alerts {
		v.Timers = append(v.Timers, AdvisoryTimer{ID: a.ID, Kind: "alert", ExpiresAt: a.ExpiresAt, Remaining: remaining(a.CreatedAt, a.ExpiresAt, now)})
	}
	for _, r := range w.Recommendations {
		v.Timers = append(v.Timers, AdvisoryTimer{ID: r.ID, Kind: "recommendation", ExpiresAt: r.ExpiresAt, Remaining: remaining(r.CreatedAt, r.ExpiresAt, now)})
	}
	return v
}

func remaining(created, expires, now time.Time) float64 {
	total := expires.Sub(created)
	if created.IsZero() || total <= 0 {
		return 0
	}
	left := expires.Sub(now)
	return min(1, max(0, float64(left)/float64(total)))
}
