package models

import "time"

// JournalEntry is an audit record of something the engine did.
type JournalEntry struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind       string    `gorm:"size:32;not null;index" json:"kind"`
	TrainID    string    `gorm:"size:64;index" json:"trainId,omitempty"`
	Station    string    `gorm:"size:64" json:"station,omitempty"`
	AdvisoryID string    `gorm:"size:64" json:"advisoryId,omitempty"`
	Severity   string    `gorm:"size:8" json:"severity,omitempty"`
	Message    string    `gorm:"type:text" json:"message"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}
