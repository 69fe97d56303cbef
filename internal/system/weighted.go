package system

import "github.com/arenad/server/internal/rng"

// weightedEntry pairs a candidate id with its selection weight.
type weightedEntry struct {
	id     string
	weight float64
}

// pickWeighted draws one entry proportionally to weight using a single
// value from the stream. Entries must be in a stable order for a given
// input, or determinism across runs is lost. Returns false when the total
// weight is zero.
func pickWeighted(stream *rng.Stream, entries []weightedEntry) (string, bool) {
	var total float64
	for _, e := range entries {
		total += e.weight
	}
	if total <= 0 {
		return "", false
	}
	roll := stream.Float64() * total
	for _, e := range entries {
		roll -= e.weight
		if roll < 0 {
			return e.id, true
		}
	}
	// Floating point remainder lands on the last entry.
	return entries[len(entries)-1].id, true
}
