package mirror

import (
	"errors"
	"sort"
)

// ErrNoResults is returned when no mirror produced a measurable rate.
var ErrNoResults = errors.New("no mirror returned a measurable download rate")

// Rank returns a copy of results sorted by rate, fastest first. Mirrors with
// equal rates keep their relative order.
func Rank(results []Result) []Result {
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BytesPerSecond > ranked[j].BytesPerSecond
	})
	return ranked
}

// Fastest returns the mirror with the highest rate.
func Fastest(results []Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, ErrNoResults
	}
	return Rank(results)[0], nil
}
