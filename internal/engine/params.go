package engine

import (
	"time"

	"github.com/zulandar/railsection/internal/models"
)

// Default simulation constants. Distances are in corridor units (1 unit = 1 km
// on a 100 km section), speeds in km/h.
const (
	DefaultTickInterval      = 50 * time.Millisecond
	DefaultSweepSchedule     = "@every 1s"
	DefaultApproachThreshold = 15
	DefaultArrivalThreshold  = 5
	DefaultConflictWindow    = 10
	DefaultDwellTime         = 30 * time.Second
	DefaultAdvisoryLifetime  = 120 * time.Second
	DefaultReleaseSpeed      = 30
	DefaultSpeedStep         = 10
	DefaultMinSpeed          = 20
)

// ClassSpeeds holds the cruise and ceiling speed for a train class.
type ClassSpeeds struct {
	Cruise float64
	Max    float64
}

// Params tunes the engine's rules.
type Params struct {
	TickInterval      time.Duration
	SweepSchedule     string
	ApproachThreshold float64
	ArrivalThreshold  float64
	ConflictWindow    float64
	DwellTime         time.Duration
	AdvisoryLifetime  time.Duration
	ReleaseSpeed      float64
	SpeedStep         float64
	MinSpeed          float64

	Classes map[models.TrainType]ClassSpeeds
	// Fallback applies to classes missing from Classes.
	Fallback ClassSpeeds
}

// DefaultClasses returns the built-in speed table.
func DefaultClasses() map[models.TrainType]ClassSpeeds {
	return map[models.TrainType]ClassSpeeds{
		models.TypeExpress: {Cruise: 110, Max: 140},
		models.TypeFreight: {Cruise: 60, Max: 80},
		models.TypeLocal:   {Cruise: 50, Max: 70},
		models.TypeSpecial: {Cruise: 130, Max: 160},
	}
}

// DefaultParams returns the stock rule set.
func DefaultParams() Params {
	return Params{
		TickInterval:      DefaultTickInterval,
		SweepSchedule:     DefaultSweepSchedule,
		ApproachThreshold: DefaultApproachThreshold,
		ArrivalThreshold:  DefaultArrivalThreshold,
		ConflictWindow:    DefaultConflictWindow,
		DwellTime:         DefaultDwellTime,
		AdvisoryLifetime:  DefaultAdvisoryLifetime,
		ReleaseSpeed:      DefaultReleaseSpeed,
		SpeedStep:         DefaultSpeedStep,
		MinSpeed:          DefaultMinSpeed,
		Classes:           DefaultClasses(),
		Fallback:          ClassSpeeds{Cruise: 80, Max: 120},
	}
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.TickInterval <= 0 {
		p.TickInterval = d.TickInterval
	}
	if p.SweepSchedule == "" {
		p.SweepSchedule = d.SweepSchedule
	}
	if p.ApproachThreshold <= 0 {
		p.ApproachThreshold = d.ApproachThreshold
	}
	if p.ArrivalThreshold <= 0 {
		p.ArrivalThreshold = d.ArrivalThreshold
	}
	if p.ConflictWindow <= 0 {
		p.ConflictWindow = d.ConflictWindow
	}
	if p.DwellTime <= 0 {
		p.DwellTime = d.DwellTime
	}
	if p.AdvisoryLifetime <= 0 {
		p.AdvisoryLifetime = d.AdvisoryLifetime
	}
	if p.ReleaseSpeed <= 0 {
		p.ReleaseSpeed = d.ReleaseSpeed
	}
	if p.SpeedStep <= 0 {
		p.SpeedStep = d.SpeedStep
	}
	if p.MinSpeed <= 0 {
		p.MinSpeed = d.MinSpeed
	}
	if p.Classes == nil {
		p.Classes = d.Classes
	}
	if p.Fallback.Cruise <= 0 {
		p.Fallback.Cruise = d.Fallback.Cruise
	}
	if p.Fallback.Max <= 0 {
		p.Fallback.Max = d.Fallback.Max
	}
	return p
}

// Cruise returns the cruise speed for a class.
func (p Params) Cruise(t models.TrainType) float64 {
	if c, ok := p.Classes[t]; ok && c.Cruise > 0 {
		return c.Cruise
	}
	return p.Fallback.Cruise
}

// MaxSpeed returns the speed ceiling for a class.
func (p Params) MaxSpeed(t models.TrainType) float64 {
	if c, ok := p.Classes[t]; ok && c.Max > 0 {
		return c.Max
	}
	return p.Fallback.Max
}
