package capture

import "strings"

// ChurnFilter is a replaceable policy for suppressing visual noise
// (spinners, progress bars, status lines) before it reaches the
// transcript. Implementations must be pure functions: no locale-dependent
// behavior, no regular expressions.
type ChurnFilter interface {
	// ShouldSuppress reports whether rowText (already right-trimmed) is
	// noise rather than content. recentSamples is a caller-supplied
	// sequence of recently observed values for the same row; it may be
	// empty and is only used by the rolling-distinct heuristic.
	ShouldSuppress(rowText string, recentSamples []string) bool
}

// DefaultChurnFilter suppresses spinner glyphs, trailing spinners, progress
// bars, status-word prefixes, and high-churn short lines.
type DefaultChurnFilter struct{}

var _ ChurnFilter = DefaultChurnFilter{}

func (DefaultChurnFilter) ShouldSuppress(rowText string, recentSamples []string) bool {
	s := rowText
	if isSpinnerGlyphLine(s) {
		return true
	}
	if hasTrailingSpinner(s) {
		return true
	}
	if hasProgressBar(s) {
		return true
	}
	if hasStatusPrefix(s) {
		return true
	}
	if isHighChurn(s, recentSamples) {
		return true
	}
	return false
}

func isSpinnerGlyph(r rune) bool {
	switch r {
	case '|', '/', '\\', '-', '*', '.':
		return true
	}
	return r >= 0x2800 && r <= 0x28FF
}

// isSpinnerGlyphLine matches a lone spinner glyph, or up to three dots.
func isSpinnerGlyphLine(s string) bool {
	runes := []rune(s)
	if len(runes) == 1 && isSpinnerGlyph(runes[0]) {
		return true
	}
	if len(runes) >= 1 && len(runes) <= 3 {
		for _, r := range runes {
			if r != '.' {
				return false
			}
		}
		return true
	}
	return false
}

// hasTrailingSpinner matches len>=3 lines ending in a spinner glyph whose
// prefix is solely ASCII letters and spaces with at least one letter, e.g.
// "spinner |".
func hasTrailingSpinner(s string) bool {
	runes := []rune(s)
	if len(runes) < 3 {
		return false
	}
	last := runes[len(runes)-1]
	if !isSpinnerGlyph(last) {
		return false
	}
	prefix := runes[:len(runes)-1]
	hasLetter := false
	for _, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

// hasProgressBar matches a balanced [...] pair of interior length >= 10
// drawn from {'=','-','#','>',' '} (one exception allowed), or text ending
// in "N%".
func hasProgressBar(s string) bool {
	if open := strings.IndexByte(s, '['); open >= 0 {
		if close := strings.IndexByte(s[open+1:], ']'); close >= 0 {
			interior := s[open+1 : open+1+close]
			if len(interior) >= 10 {
				exceptions := 0
				ok := true
				for _, r := range interior {
					switch r {
					case '=', '-', '#', '>', ' ':
					default:
						exceptions++
						if exceptions > 1 {
							ok = false
						}
					}
				}
				if ok {
					return true
				}
			}
		}
	}
	return endsWithPercent(s)
}

// endsWithPercent matches text ending in a digit immediately followed by
// '%', e.g. "50%" or "[====] 100%".
func endsWithPercent(s string) bool {
	if !strings.HasSuffix(s, "%") {
		return false
	}
	body := s[:len(s)-1]
	if body == "" {
		return false
	}
	last := body[len(body)-1]
	return last >= '0' && last <= '9'
}

var statusPrefixes = []string{"loading", "thinking", "working", "waiting", "analyzing"}

// hasStatusPrefix matches a case-insensitive status word followed by
// trailing "...".
func hasStatusPrefix(s string) bool {
	if !strings.HasSuffix(s, "...") {
		return false
	}
	lower := strings.ToLower(s)
	for _, p := range statusPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// isHighChurn suppresses short lines that have changed at least 5 distinct
// times across at least 6 recent samples (run-length reduced), a signature
// of a rapidly redrawing status line rather than settled content.
func isHighChurn(s string, recentSamples []string) bool {
	if len(recentSamples) < 6 || len(s) > 40 {
		return false
	}
	distinct := 0
	var prev string
	first := true
	for _, sample := range recentSamples {
		if first || sample != prev {
			distinct++
		}
		prev = sample
		first = false
	}
	return distinct >= 5
}
