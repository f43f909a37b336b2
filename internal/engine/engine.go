// Package engine runs the corridor simulation: it advances trains, settles
// their status, arbitrates departures, offers platform assignments, expires
// advisories and applies operator commands.
//
// All mutations are serialized. Each pass reads the latest committed World,
// builds the next one copy-on-write, and commits it only when something
// changed. Readers take snapshots without blocking writers.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/railsection/internal/models"
)

// Update is delivered to subscribers after every committed change.
type Update struct {
	Version uint64
	World   *models.World
	Events  []Event
}

// Opts holds parameters for creating an Engine.
type Opts struct {
	Params Params
	World  *models.World
	// Clock defaults to time.Now.
	Clock func() time.Time
	// NewID defaults to a uuid-derived id with the given prefix.
	NewID func(prefix string) string
}

// Engine owns the committed World and serializes every mutation of it.
type Engine struct {
	params Params
	clock  func() time.Time
	newID  func(prefix string) string

	mu       sync.Mutex
	lastTick time.Time

	state   atomic.Pointer[models.World]
	version atomic.Uint64

	subMu   sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// New creates an Engine holding opts.World (empty if nil).
func New(opts Opts) *Engine {
	e := &Engine{
		params: opts.Params.withDefaults(),
		clock:  opts.Clock,
		newID:  opts.NewID,
		subs:   make(map[int]chan Update),
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.newID == nil {
		e.newID = defaultID
	}
	w := opts.World
	if w == nil {
		w = &models.World{}
	}
	e.state.Store(w)
	e.lastTick = e.clock()
	return e
}

func defaultID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Params returns the rule set in use.
func (e *Engine) Params() Params { return e.params }

// Now reads the engine clock.
func (e *Engine) Now() time.Time { return e.clock() }

// Snapshot returns the committed World and its version. The World must be
// treated as read-only.
func (e *Engine) Snapshot() (*models.World, uint64) {
	return e.state.Load(), e.version.Load()
}

// Subscribe registers for committed updates. Updates that do not fit in the
// buffer are dropped for that subscriber; Snapshot always has the latest
// state. The returned func unsubscribes and closes the channel.
func (e *Engine) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Update, buffer)

	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subs, id)
			e.subMu.Unlock()
			close(ch)
		})
	}
}

// Reset replaces the whole World, e.g. after a fresh bootstrap.
func (e *Engine) Reset(w *models.World) {
	if w == nil {
		w = &models.World{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	e.lastTick = now
	e.state.Store(w)
	e.publish(Update{
		Version: e.version.Add(1),
		World:   w,
		Events:  []Event{{Kind: EventWorldReset, At: now, Message: "world replaced"}},
	})
}

// Tick runs one simulation step covering the time since the previous tick.
// It reports whether the World changed.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	dt := now.Sub(e.lastTick)
	e.lastTick = now

	tx := begin(e.state.Load(), now)
	advance(tx, dt)
	classify(tx, e.params)
	arbitrateDepartures(tx, e.params, e.newID)
	adviseArrivals(tx, e.params, e.newID)
	return e.commit(tx)
}

// Sweep removes expired alerts and recommendations. It reports whether the
// World changed.
func (e *Engine) Sweep() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := begin(e.state.Load(), e.clock())
	sweepExpired(tx)
	return e.commit(tx)
}

// commit stores tx's result if it is dirty. Callers hold e.mu.
func (e *Engine) commit(tx *txn) bool {
	if !tx.dirty {
		return false
	}
	next := tx.result()
	e.state.Store(next)
	e.publish(Update{Version: e.version.Add(1), World: next, Events: tx.events})
	return true
}

func (e *Engine) publish(u Update) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
