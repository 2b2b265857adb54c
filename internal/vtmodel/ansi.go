package vtmodel

// Normalize right-trims ASCII space, horizontal tab, and NUL — the bytes
// emulators use to mark untouched cells — without left-trimming, since
// indentation is content. It never introduces \r or other control bytes.
func Normalize(s string) string {
	end := len(s)
	for end > 0 {
		switch s[end-1] {
		case ' ', '\t', 0:
			end--
			continue
		}
		break
	}
	return s[:end]
}
