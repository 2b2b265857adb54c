package vtmodel

import "github.com/vito/midterm"

// View is a stateless, read-only projection over a Model (component B). Its
// results are consistent with the Model's state at the instant it is
// queried; callers consuming a View during damage dispatch see exactly the
// state that produced that damage as long as Feed and Resize are called
// from a single goroutine. Each View method takes the Model's lock on its
// own, so a concurrent Feed or Resize can change state between two calls.
type View struct {
	m *Model
}

// HistoryLineCount returns the number of history lines currently retained.
func (v *View) HistoryLineCount() int {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return len(v.m.history)
}

// ScreenRowCount returns the number of rows in the current screen (equal to
// the model's row count).
func (v *View) ScreenRowCount() int {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return v.m.rows
}

// ReadHistoryLines returns plain-text history lines, oldest first, right
// trimmed of ASCII space/tab/NUL. 0 <= start <= end <= HistoryLineCount()
// is required; violations fail with InvalidArgumentError.
func (v *View) ReadHistoryLines(start, end int) ([]string, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if err := checkRange(start, end, len(v.m.history)); err != nil {
		return nil, err
	}
	out := make([]string, 0, end-start)
	for _, line := range v.m.history[start:end] {
		out = append(out, Normalize(line))
	}
	return out, nil
}

// ReadScreenLines returns plain-text screen rows, top first, right trimmed
// of ASCII space/tab/NUL. 0 <= start <= end <= ScreenRowCount() is
// required; violations fail with InvalidArgumentError.
func (v *View) ReadScreenLines(start, end int) ([]string, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if err := checkRange(start, end, v.m.rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, end-start)
	for row := start; row < end; row++ {
		out = append(out, Normalize(rowText(v.m.vt, row)))
	}
	return out, nil
}

func checkRange(start, end, limit int) error {
	if start < 0 || end < start || end > limit {
		return invalidArgumentf("range [%d, %d) out of bounds for length %d", start, end, limit)
	}
	return nil
}

// rowText extracts the plain text of a screen row. midterm keeps cell
// content (Content) and styling (Format) separate, so the row's runes are
// already style-free.
func rowText(vt *midterm.Terminal, row int) string {
	if row < 0 || row >= len(vt.Content) {
		return ""
	}
	return string(vt.Content[row])
}
