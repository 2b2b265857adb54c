package vtmodel

import (
	"sync"
	"time"

	"github.com/vito/midterm"
)

const defaultMaxHistory = 50000

// Model is the terminal-state model (component A): it consumes raw bytes,
// maintains a screen grid and scrollback history, tracks the cursor and
// alternate-screen flag, and fires a damage notification after every state
// change. Screen/cursor arithmetic is delegated to midterm.Terminal; Model
// layers on top of it bounded plain-text history, independent
// alternate-screen tracking, and damage dispatch.
type Model struct {
	mu sync.Mutex

	cols, rows int
	maxHistory int

	vt *midterm.Terminal

	history []string

	alternateScreen bool
	scanner         modeScanner

	epoch uint64

	listeners []Listener
}

// NewModel creates a Model with the given initial geometry. maxHistory <= 0
// uses the default of 50,000 lines.
func NewModel(cols, rows, maxHistory int) *Model {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	m := &Model{
		cols:       cols,
		rows:       rows,
		maxHistory: maxHistory,
		vt:         midterm.NewTerminal(rows, cols),
	}
	m.vt.OnScrollback(func(line midterm.Line) {
		m.onScrollback(line)
	})
	return m
}

// onScrollback is invoked by midterm synchronously during Write, for each
// row pushed off the top of the screen. Rows scrolled while the alternate
// screen is active are discarded, never committed to history.
func (m *Model) onScrollback(line midterm.Line) {
	if m.alternateScreen {
		return
	}
	m.history = append(m.history, string(line))
	if len(m.history) > m.maxHistory {
		trim := len(m.history) - m.maxHistory
		m.history = m.history[trim:]
	}
}

// Feed consumes a prefix of a byte stream. It tolerates arbitrary
// chunking, including escape sequences split across calls. After
// processing it fires exactly one damage notification summarizing the
// changed region.
func (m *Model) Feed(data []byte) {
	m.mu.Lock()

	fullRedraw := false
	prevAlt := m.alternateScreen
	segStart := 0
	for _, ev := range m.scanner.scan(data) {
		sub := data[segStart:ev.offset]
		if len(sub) > 0 {
			m.vt.Write(sub)
		}
		segStart = ev.offset
		if ev.altEnter {
			m.alternateScreen = true
		}
		if ev.altExit {
			m.alternateScreen = false
		}
		if ev.fullErase {
			fullRedraw = true
		}
	}
	if rest := data[segStart:]; len(rest) > 0 {
		m.vt.Write(rest)
	}
	if m.alternateScreen != prevAlt {
		fullRedraw = true
	}

	if fullRedraw {
		m.epoch++
	}

	d := Damage{
		Timestamp:       time.Now().UTC(),
		ChangedRowStart: 0,
		ChangedRowEnd:   m.rows,
		FullRedraw:      fullRedraw,
	}
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		dispatchSafely(l, d)
	}
}

// dispatchSafely invokes a listener, recovering from a panic so that one
// misbehaving listener does not stop delivery to the rest.
func dispatchSafely(l Listener, d Damage) {
	defer func() {
		if r := recover(); r != nil {
			logDispatchError(r)
		}
	}()
	l(d)
}

// Snapshot returns an immutable value describing the model's current
// geometry, cursor, and alternate-screen flag.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Cols:            m.cols,
		Rows:            m.rows,
		CursorRow:       m.vt.Cursor.Y,
		CursorCol:       m.vt.Cursor.X,
		AlternateScreen: m.alternateScreen,
		Timestamp:       time.Now().UTC(),
	}
}

// Scrollback returns a read-only view (component B) over the model's
// current state.
func (m *Model) Scrollback() *View {
	return &View{m: m}
}

// currentEpoch returns the model's current epoch, bumped on every
// full-redraw damage.
func (m *Model) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Resize reflows the screen to the new geometry: clipped/padded, cursor
// clamped, then fires a damage event with FullRedraw true. A resize to the
// current geometry is a no-op. Non-positive dimensions fail with
// InvalidArgumentError.
func (m *Model) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return invalidArgumentf("resize: cols and rows must be positive, got %dx%d", cols, rows)
	}

	m.mu.Lock()
	if cols == m.cols && rows == m.rows {
		m.mu.Unlock()
		return nil
	}
	m.cols = cols
	m.rows = rows
	m.vt.Resize(rows, cols)
	m.epoch++
	d := Damage{
		Timestamp:       time.Now().UTC(),
		ChangedRowStart: 0,
		ChangedRowEnd:   rows,
		FullRedraw:      true,
	}
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		dispatchSafely(l, d)
	}
	return nil
}

// Subscribe registers a damage listener. Listeners are delivered in
// registration order.
func (m *Model) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}
