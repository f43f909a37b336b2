package oracle

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/railsection/internal/models"
)

// Advisory lifetime bounds and fallbacks.
const (
	MinLifetime = 120 * time.Second
	MaxLifetime = 300 * time.Second

	// FallbackRecommendationLifetime applies when a recommendation has no
	// action, or its action names no running train and known station.
	FallbackRecommendationLifetime = 120 * time.Second
	// FallbackHighAlertLifetime and FallbackAlertLifetime apply to alerts
	// without a usable action, by severity.
	FallbackHighAlertLifetime = 120 * time.Second
	FallbackAlertLifetime     = 150 * time.Second

	// lifetimeMinSpeed is the speed a train must exceed for travel time to
	// count towards a lifetime.
	lifetimeMinSpeed = 10
	// lifetimePacing compresses travel time into advisory lifetime.
	lifetimePacing = 10
)

// DefaultRoutes lists the calling pattern of the regular services on the
// default corridor, keyed by service name.
func DefaultRoutes() map[string][]string {
	return map[string][]string{
		"Vande Bharat":      {"Prayagraj", "Vindhyachal", "Mirzapur", "Chunar"},
		"Rajdhani Express":  {"Chunar", "Mirzapur", "Vindhyachal", "Prayagraj"},
		"Goods Hauler":      {"Prayagraj", "Chunar"},
		"Freight Train":     {"Chunar", "Prayagraj"},
		"Local Passenger":   {"Prayagraj", "Vindhyachal", "Mirzapur", "Chunar"},
		"Prayagraj Express": {"Chunar", "Mirzapur", "Vindhyachal", "Prayagraj"},
	}
}

// AdmitOpts controls how a raw snapshot becomes an engine world.
type AdmitOpts struct {
	Now time.Time
	// Routes maps train codes or service names to station lists. Trains
	// matching neither get every station in their direction of travel.
	Routes map[string][]string
	// NewSuffix returns the suffix appended to train codes. Defaults to a
	// short uuid.
	NewSuffix func() string
	// NewID returns advisory ids. Defaults to prefix plus a uuid.
	NewID func(prefix string) string
}

// Admit normalizes a raw snapshot: it fills missing lists, assigns
// process-unique ids, resolves routes, and gives every advisory a deadline.
// The input is not modified.
func Admit(raw *models.World, opts AdmitOpts) *models.World {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.NewSuffix == nil {
		opts.NewSuffix = func() string { return uuid.NewString()[:8] }
	}
	if opts.NewID == nil {
		opts.NewID = func(prefix string) string { return prefix + "-" + uuid.NewString() }
	}
	if raw == nil {
		raw = &models.World{}
	}

	w := &models.World{
		Stations:        append([]models.Station{}, raw.Stations...),
		Trains:          make([]models.Train, 0, len(raw.Trains)),
		Recommendations: make([]models.Recommendation, 0, len(raw.Recommendations)),
		Alerts:          make([]models.Alert, 0, len(raw.Alerts)),
	}

	for i, t := range raw.Trains {
		w.Trains = append(w.Trains, admitTrain(i, t, w.Stations, opts))
	}

	for _, r := range raw.Recommendations {
		r.ID = opts.NewID("rec")
		r.Actions = cloneActions(r.Actions)
		r.Key = models.AdvisoryKey{}
		r.CreatedAt = opts.Now
		lifetime := FallbackRecommendationLifetime
		if len(r.Actions) > 0 {
			if d, ok := Lifetime(r.Actions[0], w); ok {
				lifetime = d
			}
		}
		r.ExpiresAt = opts.Now.Add(lifetime)
		w.Recommendations = append(w.Recommendations, r)
	}

	for _, a := range raw.Alerts {
		a.ID = opts.NewID("alert")
		a.SuggestedActions = cloneActions(a.SuggestedActions)
		a.Key = models.AdvisoryKey{}
		a.CreatedAt = opts.Now
		lifetime := FallbackAlertLifetime
		if a.Severity == models.SeverityHigh {
			lifetime = FallbackHighAlertLifetime
		}
		if len(a.SuggestedActions) > 0 {
			if d, ok := Lifetime(a.SuggestedActions[0], w); ok {
				lifetime = d
			}
		}
		a.ExpiresAt = opts.Now.Add(lifetime)
		w.Alerts = append(w.Alerts, a)
	}

	return w
}

func admitTrain(i int, t models.Train, stations []models.Station, opts AdmitOpts) models.Train {
	if t.Code == "" {
		t.Code = t.ID
	}
	if t.Code == "" {
		t.Code = fmt.Sprintf("train-%d", i)
	}
	t.ID = t.Code + "-" + opts.NewSuffix()

	if t.Direction != models.Westbound {
		t.Direction = models.Eastbound
	}
	if t.Status == "" {
		t.Status = models.StatusOnTime
	}
	if t.Track == "" {
		t.Track = models.TrackMain
	}
	if t.CurrentLocation == "" {
		t.CurrentLocation = models.InTransit
	}
	t.Progress = min(100, max(0, t.Progress))
	if t.Speed < 0 || t.Status == models.StatusStopped || t.Status == models.StatusSiding {
		t.Speed = 0
	}
	if t.DepartureTime != nil {
		dt := *t.DepartureTime
		t.DepartureTime = &dt
	}

	t.Route = lookupRoute(opts.Routes, t)
	if len(t.Route) == 0 {
		t.Route = directionalRoute(stations, t.Direction)
	}
	if t.NextStop == "" {
		t.NextStop = nextStopAhead(t, stations)
	}
	return t
}

// lookupRoute finds the route of t by train code first, then by service
// name.
func lookupRoute(routes map[string][]string, t models.Train) []string {
	for _, key := range []string{t.Code, t.Name} {
		if route, ok := routes[key]; ok && key != "" && len(route) > 0 {
			return slices.Clone(route)
		}
	}
	return nil
}

// directionalRoute lists every station in the order a train heading dir
// passes them.
func directionalRoute(stations []models.Station, dir models.Direction) []string {
	sorted := slices.Clone(stations)
	slices.SortFunc(sorted, func(a, b models.Station) int {
		return cmp.Compare(a.Position, b.Position) * int(dir.Sign())
	})
	route := make([]string, 0, len(sorted))
	for _, s := range sorted {
		route = append(route, s.Name)
	}
	return route
}

// nextStopAhead returns the first route station strictly ahead of t.
func nextStopAhead(t models.Train, stations []models.Station) string {
	pos := make(map[string]float64, len(stations))
	for _, s := range stations {
		pos[s.Name] = s.Position
	}
	for _, name := range t.Route {
		p, ok := pos[name]
		if ok && (p-t.Progress)*t.Direction.Sign() > 0 {
			return name
		}
	}
	return models.EndOfLine
}

// Lifetime derives an advisory lifetime from the travel time of the action's
// train to the action's station. It reports false when the train or station
// is unknown or the train is at or below walking pace.
func Lifetime(a models.Action, w *models.World) (time.Duration, bool) {
	var train *models.Train
	for i := range w.Trains {
		if w.Trains[i].Matches(a.TrainID) {
			train = &w.Trains[i]
			break
		}
	}
	station, ok := w.Station(a.StationName)
	if train == nil || !ok || train.Speed <= lifetimeMinSpeed {
		return 0, false
	}
	hours := math.Abs(train.Progress-station.Position) / train.Speed
	d := time.Duration(math.Round(hours * float64(time.Hour) / lifetimePacing))
	return min(MaxLifetime, max(MinLifetime, d)), true
}

func cloneActions(actions []models.Action) []models.Action {
	if actions == nil {
		return []models.Action{}
	}
	return slices.Clone(actions)
}
