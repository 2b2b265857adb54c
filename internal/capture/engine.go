package capture

import (
	"errors"
	"time"

	"github.com/StephenLReed/consullo-terminal-automation/internal/vtmodel"
)

// Config holds the engine's tunable options. All fields are fixed for the
// lifetime of an Engine.
type Config struct {
	// VolatileRowCount is the number of bottom screen rows excluded from
	// screen-stability emission (the "status/spinner band"). Default 2.
	VolatileRowCount int
	// StabilityWindow is the minimum contiguous unchanged time required
	// before a screen row may be emitted. Default 350ms.
	StabilityWindow time.Duration
	// SuppressAlternateScreen inhibits screen-stability emission while the
	// model's alternate screen is active; history emission continues.
	// Default true.
	SuppressAlternateScreen bool
	// Filter is the churn policy. DefaultChurnFilter{} if nil.
	Filter ChurnFilter
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	return Config{
		VolatileRowCount:        2,
		StabilityWindow:         350 * time.Millisecond,
		SuppressAlternateScreen: true,
		Filter:                  DefaultChurnFilter{},
	}
}

type rowKey struct {
	epoch uint64
	row   int
}

type rowEntry struct {
	content     string
	firstSeenAt time.Time
	emitted     bool
}

// State is the engine's bookkeeping, exposed for tests.
type State struct {
	LastEmittedHistoryIndex int
	Epoch                   uint64
	TrackedRows             int
	EmittedHashes           int
}

// Engine is the capture engine (component C): a purely reactive, stateful
// transformer. It has no timers of its own; stability is measured in
// wall-clock time at the moment OnDamage is invoked.
type Engine struct {
	cfg Config

	lastEmittedHistoryIndex int
	epoch                   uint64
	rowState                map[rowKey]rowEntry
	emittedHashes           map[uint64]struct{}
	recentByRow             map[int][]string

	now func() time.Time
}

const recentSamplesCap = 8

// New creates an Engine with the given configuration. A zero Config is not
// valid; use DefaultConfig() and override fields as needed.
func New(cfg Config) *Engine {
	if cfg.Filter == nil {
		cfg.Filter = DefaultChurnFilter{}
	}
	return &Engine{
		cfg:           cfg,
		rowState:      make(map[rowKey]rowEntry),
		emittedHashes: make(map[uint64]struct{}),
		recentByRow:   make(map[int][]string),
		now:           time.Now,
	}
}

// CurrentState returns a snapshot of the engine's bookkeeping, for tests.
func (e *Engine) CurrentState() State {
	return State{
		LastEmittedHistoryIndex: e.lastEmittedHistoryIndex,
		Epoch:                   e.epoch,
		TrackedRows:             len(e.rowState),
		EmittedHashes:           len(e.emittedHashes),
	}
}

// OnDamage reads the view following a damage notification and returns the
// transcript events produced: all History events first, then ScreenStable
// events in top-to-bottom row order.
func (e *Engine) OnDamage(view *vtmodel.View, snapshot vtmodel.Snapshot, damage vtmodel.Damage) ([]Event, error) {
	if view == nil {
		return nil, errors.New("OnDamage: view must not be nil")
	}

	if damage.FullRedraw {
		e.epoch++
		e.rowState = make(map[rowKey]rowEntry)
	}

	now := e.now()
	var events []Event

	historyEvents, err := e.emitHistory(view, now)
	if err != nil {
		return nil, err
	}
	events = append(events, historyEvents...)

	if snapshot.AlternateScreen && e.cfg.SuppressAlternateScreen {
		e.clearEpochRowState()
		return events, nil
	}

	screenEvents, err := e.emitScreenStability(view, now)
	if err != nil {
		return nil, err
	}
	events = append(events, screenEvents...)

	return events, nil
}

func (e *Engine) emitHistory(view *vtmodel.View, now time.Time) ([]Event, error) {
	count := view.HistoryLineCount()
	start := e.lastEmittedHistoryIndex
	if start > count {
		start = count
	}
	if start < 0 {
		start = 0
	}

	var events []Event
	if start < count {
		lines, err := view.ReadHistoryLines(start, count)
		if err != nil {
			return nil, err
		}
		for _, raw := range lines {
			line := vtmodel.Normalize(raw)
			if line == "" {
				// Empty history lines carry no transcript content and are
				// skipped rather than emitted as bare "\n" events.
				continue
			}
			if e.cfg.Filter.ShouldSuppress(line, nil) {
				continue
			}
			fp := fingerprint(line)
			if _, seen := e.emittedHashes[fp]; seen {
				continue
			}
			e.emittedHashes[fp] = struct{}{}
			events = append(events, Event{
				Kind:      Append,
				Text:      line + "\n",
				Timestamp: now.UTC(),
				Source:    History,
			})
		}
	}
	e.lastEmittedHistoryIndex = count
	return events, nil
}

func (e *Engine) emitScreenStability(view *vtmodel.View, now time.Time) ([]Event, error) {
	screenRows := view.ScreenRowCount()
	stableEnd := screenRows - e.cfg.VolatileRowCount
	if stableEnd < 0 {
		stableEnd = 0
	}

	var events []Event
	if stableEnd > 0 {
		lines, err := view.ReadScreenLines(0, stableEnd)
		if err != nil {
			return nil, err
		}
		for row, raw := range lines {
			content := vtmodel.Normalize(raw)
			e.noteRecentSample(row, content)

			key := rowKey{epoch: e.epoch, row: row}
			prev, ok := e.rowState[key]
			switch {
			case !ok:
				e.rowState[key] = rowEntry{content: content, firstSeenAt: now}
			case prev.content != content:
				e.rowState[key] = rowEntry{content: content, firstSeenAt: now}
			case prev.emitted:
				// already emitted, matches, no action
			case now.Sub(prev.firstSeenAt) >= e.cfg.StabilityWindow:
				prev.emitted = true
				e.rowState[key] = prev
				if content != "" && !e.cfg.Filter.ShouldSuppress(content, e.recentByRow[row]) {
					fp := fingerprint(content)
					if _, seen := e.emittedHashes[fp]; !seen {
						e.emittedHashes[fp] = struct{}{}
						events = append(events, Event{
							Kind:      Append,
							Text:      content + "\n",
							Timestamp: now.UTC(),
							Source:    ScreenStable,
						})
					}
				}
			}
		}
	}

	e.dropRowsBeyond(screenRows)
	return events, nil
}

func (e *Engine) noteRecentSample(row int, content string) {
	samples := e.recentByRow[row]
	samples = append(samples, content)
	if len(samples) > recentSamplesCap {
		samples = samples[len(samples)-recentSamplesCap:]
	}
	e.recentByRow[row] = samples
}

// dropRowsBeyond removes bookkeeping for rows no longer on screen (the
// geometry shrank).
func (e *Engine) dropRowsBeyond(screenRows int) {
	for k := range e.rowState {
		if k.row >= screenRows {
			delete(e.rowState, k)
		}
	}
}

// clearEpochRowState clears all row-stability entries for the current
// epoch, used when entering the alt-screen short-circuit so that stability
// timers don't silently resume once the alt screen exits.
func (e *Engine) clearEpochRowState() {
	for k := range e.rowState {
		if k.epoch == e.epoch {
			delete(e.rowState, k)
		}
	}
}
