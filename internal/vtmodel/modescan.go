package vtmodel

// modeScanner tracks DEC private-mode (alternate screen) transitions and
// full-screen erase sequences, independent of the underlying VT engine's
// own screen handling. It is a streaming scanner: state is persistent
// across Feed calls so that sequences split across chunk boundaries (down
// to one byte at a time) are still recognized. It recognizes CSI
// ?1049/?1047/?47 h/l (alternate-screen enter/exit) and CSI 2J/3J
// (full-screen erase); other CSI J forms are not reported.
type modeScanner struct {
	state   scanState
	private bool
	params  []byte
}

type scanState int

const (
	scanGround scanState = iota
	scanEsc
	scanCSI
	scanOSC
	scanOSCEsc
)

// modeEvent describes a recognized transition found at a byte offset in
// the scanned chunk. offset is the index one past the sequence's final
// byte — i.e. the point at which the transition takes effect.
type modeEvent struct {
	offset     int
	altEnter   bool
	altExit    bool
	fullErase  bool
}

// scan walks data with the scanner's persistent state and returns the
// transitions found, in order.
func (s *modeScanner) scan(data []byte) []modeEvent {
	var events []modeEvent
	for i := 0; i < len(data); i++ {
		b := data[i]
		switch s.state {
		case scanGround:
			if b == 0x1B {
				s.state = scanEsc
			}
		case scanEsc:
			switch b {
			case '[':
				s.state = scanCSI
				s.private = false
				s.params = s.params[:0]
			case ']':
				s.state = scanOSC
			default:
				s.state = scanGround
			}
		case scanCSI:
			switch {
			case b == '?' && len(s.params) == 0:
				s.private = true
			case b >= 0x40 && b <= 0x7E:
				if ev, ok := classifyCSI(s.private, s.params, b); ok {
					ev.offset = i + 1
					events = append(events, ev)
				}
				s.state = scanGround
			default:
				s.params = append(s.params, b)
			}
		case scanOSC:
			switch b {
			case 0x07:
				s.state = scanGround
			case 0x1B:
				s.state = scanOSCEsc
			}
		case scanOSCEsc:
			switch b {
			case '\\':
				s.state = scanGround
			case 0x1B:
				s.state = scanOSCEsc
			default:
				s.state = scanOSC
			}
		}
	}
	return events
}

// classifyCSI interprets a finished CSI sequence's private marker, numeric
// parameters (';'-separated, parsed left to right, default 0), and final
// byte.
func classifyCSI(private bool, params []byte, final byte) (modeEvent, bool) {
	codes := parseParams(params)
	if private {
		switch final {
		case 'h':
			if hasCode(codes, 1049, 1047, 47) {
				return modeEvent{altEnter: true}, true
			}
		case 'l':
			if hasCode(codes, 1049, 1047, 47) {
				return modeEvent{altExit: true}, true
			}
		}
		return modeEvent{}, false
	}
	if final == 'J' {
		// CSI J / 0J clears from cursor down; 2J and 3J clear the whole
		// display (3J also clears scrollback on real terminals).
		if len(codes) == 0 {
			return modeEvent{}, false
		}
		if codes[0] == 2 || codes[0] == 3 {
			return modeEvent{fullErase: true}, true
		}
	}
	return modeEvent{}, false
}

func hasCode(codes []int, want ...int) bool {
	for _, c := range codes {
		for _, w := range want {
			if c == w {
				return true
			}
		}
	}
	return false
}

func parseParams(params []byte) []int {
	if len(params) == 0 {
		return nil
	}
	var codes []int
	n := 0
	has := false
	for _, b := range params {
		if b == ';' {
			codes = append(codes, n)
			n = 0
			has = false
			continue
		}
		if b >= '0' && b <= '9' {
			n = n*10 + int(b-'0')
			has = true
		}
	}
	if has || len(codes) == 0 {
		codes = append(codes, n)
	}
	return codes
}
