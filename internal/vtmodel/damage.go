// Package vtmodel implements the terminal-state model: it applies ANSI/VT
// sequences to a screen grid plus scrollback history and notifies listeners
// of damage (state changes) so a capture engine can decide what to emit.
package vtmodel

import "time"

// Damage is the internal notification fired by Model after any state
// change caused by Feed or Resize. At most one Damage is fired per Feed
// call; FullRedraw is set for full-screen clears, alt-screen switches, and
// resizes.
type Damage struct {
	Timestamp       time.Time
	ChangedRowStart int
	ChangedRowEnd   int // half-open
	FullRedraw      bool
}

// Snapshot is an immutable view of the model's geometry and cursor at a
// point in time.
type Snapshot struct {
	Cols            int
	Rows            int
	CursorRow       int
	CursorCol       int
	AlternateScreen bool
	Timestamp       time.Time
}

// Listener receives damage notifications. Listeners are invoked in
// registration order, synchronously, on the goroutine that called Feed or
// Resize.
type Listener func(Damage)
