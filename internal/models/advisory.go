package models

import "time"

// Command is the machine-readable kind of an operator action.
type Command string

const (
	CmdMoveToSiding   Command = "MOVE_SIDING"
	CmdHold           Command = "HOLD"
	CmdProceed        Command = "PROCEED"
	CmdAssignPlatform Command = "ASSIGN_PLATFORM"
	CmdIncreaseSpeed  Command = "INCREASE_SPEED"
	CmdDecreaseSpeed  Command = "DECREASE_SPEED"
)

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	switch c {
	case CmdMoveToSiding, CmdHold, CmdProceed, CmdAssignPlatform, CmdIncreaseSpeed, CmdDecreaseSpeed:
		return true
	}
	return false
}

// Action is an immutable command descriptor. Actions are only executed by
// the command processor.
type Action struct {
	DisplayText string  `json:"displayText" yaml:"displayText"`
	Command     Command `json:"command" yaml:"command" binding:"required"`
	TrainID     string  `json:"trainId" yaml:"trainId" binding:"required"`
	StationName string  `json:"stationName,omitempty" yaml:"stationName,omitempty"`
	Platform    int     `json:"platform,omitempty" yaml:"platform,omitempty" binding:"gte=0"`
}

// Severity grades an alert.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// AdvisoryKind distinguishes engine-generated advisories.
type AdvisoryKind string

const (
	KindDepartureConflict AdvisoryKind = "departure_conflict"
	KindArrival           AdvisoryKind = "arrival"
)

// AdvisoryKey identifies an engine-generated advisory for idempotency. The
// zero key marks advisories supplied by the bootstrap source.
type AdvisoryKey struct {
	Train   string       `json:"train,omitempty" yaml:"train,omitempty"`
	Kind    AdvisoryKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Station string       `json:"station,omitempty" yaml:"station,omitempty"`
}

// IsZero reports whether k is unset.
func (k AdvisoryKey) IsZero() bool {
	return k == AdvisoryKey{}
}

// Alert is a time-boxed safety warning.
type Alert struct {
	ID               string      `json:"id" yaml:"id"`
	Message          string      `json:"message" yaml:"message"`
	Severity         Severity    `json:"severity" yaml:"severity"`
	SuggestedActions []Action    `json:"suggestedActions" yaml:"suggestedActions"`
	CreatedAt        time.Time   `json:"createdAt" yaml:"createdAt"`
	ExpiresAt        time.Time   `json:"expiresAt" yaml:"expiresAt"`
	Key              AdvisoryKey `json:"key,omitzero" yaml:"key,omitempty"`
}

// Recommendation is a time-boxed efficiency advisory.
type Recommendation struct {
	ID        string      `json:"id" yaml:"id"`
	Title     string      `json:"title" yaml:"title"`
	Reason    string      `json:"reason" yaml:"reason"`
	Actions   []Action    `json:"actions" yaml:"actions"`
	CreatedAt time.Time   `json:"createdAt" yaml:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt" yaml:"expiresAt"`
	Key       AdvisoryKey `json:"key,omitzero" yaml:"key,omitempty"`
}

// Expired reports whether the deadline has passed at now.
func (a Alert) Expired(now time.Time) bool { return !a.ExpiresAt.After(now) }

// Expired reports whether the deadline has passed at now.
func (r Recommendation) Expired(now time.Time) bool { return !r.ExpiresAt.After(now) }
