package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TrainType is the service class of a train. It selects cruise and
// maximum speeds.
type TrainType string

const (
	TypeExpress TrainType = "Express"
	TypeFreight TrainType = "Freight"
	TypeLocal   TrainType = "Local"
	TypeSpecial TrainType = "Special"
)

// TrainStatus is the operational state of a train.
type TrainStatus string

const (
	StatusOnTime      TrainStatus = "On Time"
	StatusDelayed     TrainStatus = "Delayed"
	StatusApproaching TrainStatus = "Approaching"
	StatusStopped     TrainStatus = "Stopped"
	StatusSiding      TrainStatus = "Siding"
	StatusDeparting   TrainStatus = "Departing"
)

// Movable reports whether a train in this status advances along the corridor.
func (s TrainStatus) Movable() bool {
	switch s {
	case StatusOnTime, StatusDelayed, StatusApproaching, StatusDeparting:
		return true
	}
	return false
}

// Direction is the heading of a train. Eastbound increases progress.
type Direction string

const (
	Eastbound Direction = "Eastbound"
	Westbound Direction = "Westbound"
)

// Sign returns +1 for Eastbound and -1 for Westbound.
func (d Direction) Sign() float64 {
	if d == Westbound {
		return -1
	}
	return 1
}

// Well-known location and track values.
const (
	InTransit      = "In Transit"
	EndOfLine      = "End of Line"
	TrackMain      = "main"
	TrackSiding    = "siding"
	platformPrefix = "platform-"
)

// PlatformTrack returns the track name for platform n.
func PlatformTrack(n int) string {
	return platformPrefix + strconv.Itoa(n)
}

// ParsePlatform extracts the platform number from a "platform-N" track.
func ParsePlatform(track string) (int, bool) {
	if !strings.HasPrefix(track, platformPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(track, platformPrefix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Train is a moving entity on the corridor.
type Train struct {
	ID              string      `json:"id" yaml:"id"`
	Code            string      `json:"code" yaml:"code"`
	Name            string      `json:"name" yaml:"name"`
	Type            TrainType   `json:"type" yaml:"type"`
	Priority        int         `json:"priority" yaml:"priority"`
	Status          TrainStatus `json:"status" yaml:"status"`
	CurrentLocation string      `json:"currentLocation" yaml:"currentLocation"`
	NextStop        string      `json:"nextStop" yaml:"nextStop"`
	Progress        float64     `json:"progress" yaml:"progress"`
	Track           string      `json:"track" yaml:"track"`
	Direction       Direction   `json:"direction" yaml:"direction"`
	Speed           float64     `json:"speed" yaml:"speed"`
	DepartureTime   *time.Time  `json:"departureTime,omitempty" yaml:"departureTime,omitempty"`

	// Route is the ordered list of stations this train calls at. It is
	// resolved once when the train is admitted and never rewritten.
	Route []string `json:"route,omitempty" yaml:"route,omitempty"`
}

// Label returns the operator-facing identifier of the train.
func (t Train) Label() string {
	if t.Code != "" {
		return t.Code
	}
	return t.ID
}

// Matches reports whether target identifies this train: the full id, the
// operator code, or the id with its admission suffix stripped.
func (t Train) Matches(target string) bool {
	if target == "" {
		return false
	}
	return t.ID == target || t.Code == target || strings.HasPrefix(t.ID, target+"-")
}

// NextStopAfter returns the route entry following station, or EndOfLine.
func (t Train) NextStopAfter(station string) string {
	for i, name := range t.Route {
		if name == station && i < len(t.Route)-1 {
			return t.Route[i+1]
		}
	}
	return EndOfLine
}

// Station is a fixed point on the corridor.
type Station struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Position       float64 `json:"position" yaml:"position"`
	HasSiding      bool    `json:"hasSiding" yaml:"hasSiding"`
	PlatformTracks int     `json:"platformTracks" yaml:"platformTracks"`
}

func (s Station) String() string {
	return fmt.Sprintf("%s@%.0f", s.Name, s.Position)
}
