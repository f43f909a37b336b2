package journal

import (
	"context"
	"log"

	"github.com/zulandar/railsection/internal/engine"
	"gorm.io/gorm"
)

// Subscriber is the part of the engine the recorder listens to.
type Subscriber interface {
	Subscribe(buffer int) (<-chan engine.Update, func())
}

// Recorder writes every committed engine event to the journal.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a Recorder backed by db.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Run records updates from src until ctx is cancelled. Write failures are
// logged and do not stop the recorder.
func (r *Recorder) Run(ctx context.Context, src Subscriber) error {
	updates, cancel := src.Subscribe(256)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := Record(r.db, u.Events); err != nil {
				log.Printf("journal: version %d: %v", u.Version, err)
			}
		}
	}
}
