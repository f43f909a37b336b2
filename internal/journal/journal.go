// Package journal keeps an audit trail of engine events in the database.
package journal

import (
	"fmt"
	"time"

	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/models"
	"gorm.io/gorm"
)

// DefaultLimit caps List results when Filters.Limit is unset.
const DefaultLimit = 50

// Filters narrows a journal query. Zero fields match everything.
type Filters struct {
	Kind    string
	TrainID string
	Since   time.Time
	Limit   int
}

// Entry converts an engine event into a journal row.
func Entry(ev engine.Event) models.JournalEntry {
	return models.JournalEntry{
		Kind:       string(ev.Kind),
		TrainID:    ev.TrainID,
		Station:    ev.Station,
		AdvisoryID: ev.AdvisoryID,
		Severity:   string(ev.Severity),
		Message:    ev.Message,
		CreatedAt:  ev.At,
	}
}

// Record writes events in one transaction.
func Record(db *gorm.DB, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]models.JournalEntry, 0, len(events))
	for _, ev := range events {
		rows = append(rows, Entry(ev))
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("journal: record %d events: %w", len(rows), err)
	}
	return nil
}

// List returns matching entries, newest first.
func List(db *gorm.DB, f Filters) ([]models.JournalEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := db.Model(&models.JournalEntry{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.TrainID != "" {
		q = q.Where("train_id = ? OR train_id LIKE ?", f.TrainID, f.TrainID+"-%")
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}

	var entries []models.JournalEntry
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	return entries, nil
}
