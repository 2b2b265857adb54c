package capture

import "hash/fnv"

// fingerprint computes the 64-bit FNV-1a hash of a normalized line, used
// for content-level dedup across the history and screen-stability signals.
func fingerprint(normalized string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(normalized))
	return h.Sum64()
}
