package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/zulandar/railsection/internal/models"
)

// Source identifies where an operator action came from.
type Source string

const (
	SourceAlert          Source = "alert"
	SourceRecommendation Source = "rec"
	SourceDirect         Source = "direct"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceAlert || s == SourceRecommendation || s == SourceDirect
}

// Reasons a command is rejected. A rejected command leaves the world as it was.
var (
	ErrTrainNotFound    = errors.New("train not found")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrNoSiding         = errors.New("station has no siding")
	ErrStationRequired  = errors.New("station and platform are required")
	ErrNoSuchPlatform   = errors.New("station has no such platform")
	ErrPlatformOccupied = errors.New("platform is occupied")
	ErrNotMoving        = errors.New("train is not running")
)

// Result reports the outcome of an operator action.
type Result struct {
	Applied bool   `json:"applied"`
	TrainID string `json:"trainId,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

func rejected(trainID string, err error) Result {
	return Result{TrainID: trainID, Reason: err.Error(), Err: err}
}

// Apply executes an operator action against the current world. Actions that
// came from an alert or recommendation consume that advisory once applied.
// Lookup failures and unmet preconditions are logged and leave the world
// unchanged.
func (e *Engine) Apply(action models.Action, source Source, sourceID string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := begin(e.state.Load(), e.clock())
	res := applyCommand(tx, e.params, action)
	if !res.Applied {
		log.Printf("engine: %s %s rejected: %v", action.Command, action.TrainID, res.Err)
		return res
	}

	switch source {
	case SourceAlert:
		if sourceID != "" {
			tx.keepAlerts(func(a models.Alert) bool { return a.ID != sourceID })
		}
	case SourceRecommendation:
		if sourceID != "" {
			tx.keepRecommendations(func(r models.Recommendation) bool { return r.ID != sourceID })
		}
	}
	tx.emit(Event{
		Kind:       EventCommandApplied,
		TrainID:    res.TrainID,
		Station:    action.StationName,
		AdvisoryID: sourceID,
		Message:    describeAction(action, source),
	})
	e.commit(tx)
	return res
}

func applyCommand(tx *txn, p Params, action models.Action) Result {
	w := tx.world()
	idx := findTrain(w.Trains, action.TrainID)
	if idx < 0 {
		return rejected(action.TrainID, ErrTrainNotFound)
	}
	cur := w.Trains[idx]
	station, hasStation := w.Station(action.StationName)

	switch action.Command {
	case models.CmdMoveToSiding:
		if !hasStation || !station.HasSiding {
			return rejected(cur.ID, ErrNoSiding)
		}
		t := tx.train(idx)
		t.Track = models.TrackSiding
		t.Progress = station.Position
		t.Status = models.StatusSiding
		t.Speed = 0
		t.CurrentLocation = station.Name

	case models.CmdHold:
		t := tx.train(idx)
		t.Status = models.StatusStopped
		t.Speed = 0
		if hasStation {
			t.Progress = station.Position
			t.CurrentLocation = station.Name
		}

	case models.CmdProceed:
		t := tx.train(idx)
		t.Status = models.StatusOnTime
		t.Track = models.TrackMain
		t.Speed = p.Cruise(t.Type)
		t.CurrentLocation = models.InTransit
		t.DepartureTime = nil

	case models.CmdAssignPlatform:
		if !hasStation || action.Platform <= 0 {
			return rejected(cur.ID, ErrStationRequired)
		}
		if action.Platform > station.PlatformTracks {
			return rejected(cur.ID, ErrNoSuchPlatform)
		}
		if w.OccupiedPlatforms(station.Name, cur.ID)[action.Platform] {
			return rejected(cur.ID, ErrPlatformOccupied)
		}
		departure := tx.now.Add(p.DwellTime)
		t := tx.train(idx)
		t.Status = models.StatusStopped
		t.Track = models.PlatformTrack(action.Platform)
		t.Progress = station.Position
		t.Speed = 0
		t.CurrentLocation = station.Name
		t.DepartureTime = &departure
		t.NextStop = t.NextStopAfter(station.Name)

		stale := models.AdvisoryKey{Train: cur.Label(), Kind: models.KindArrival, Station: station.Name}
		tx.keepRecommendations(func(r models.Recommendation) bool { return r.Key != stale })

	case models.CmdIncreaseSpeed:
		if !cur.Status.Movable() {
			return rejected(cur.ID, ErrNotMoving)
		}
		t := tx.train(idx)
		t.Speed = max(p.MinSpeed, min(p.MaxSpeed(t.Type), t.Speed+p.SpeedStep))

	case models.CmdDecreaseSpeed:
		if !cur.Status.Movable() {
			return rejected(cur.ID, ErrNotMoving)
		}
		t := tx.train(idx)
		t.Speed = max(p.MinSpeed, t.Speed-p.SpeedStep)

	default:
		return rejected(cur.ID, fmt.Errorf("%w: %q", ErrUnknownCommand, action.Command))
	}

	return Result{Applied: true, TrainID: cur.ID}
}

func describeAction(a models.Action, source Source) string {
	msg := fmt.Sprintf("%s %s", a.Command, a.TrainID)
	if a.StationName != "" {
		msg += " at " + a.StationName
	}
	if a.Platform > 0 {
		msg += fmt.Sprintf(" platform %d", a.Platform)
	}
	return msg + " (" + string(source) + ")"
}
