// Package positions turns arbitrary finishing-position representations into
// dense integer positions per race.
package positions

import (
	"fmt"
	"math"

	"github.com/pranch555/F1-Prediction/internal/domain/columns"
	"github.com/pranch555/F1-Prediction/internal/domain/table"
)

// Unplaced is assigned to every row of a race that has no valid position at
// all, keeping those rows behind any classified finisher.
const Unplaced = 99999

// Normalize returns one finishing position per results row.
//
// Non-numeric values (DNF, DSQ, R, ...) are placed behind the race's last
// classified finisher (max+1). Residual values below 1 are clamped to 1.
func Normalize(results *table.Table) ([]int, error) {
	if results.Empty() {
		return nil, fmt.Errorf("results table is empty; cannot compute finish positions: %w", ErrMissingColumn)
	}
	col, ok := columns.Lookup(results, columns.Finish...)
	if !ok {
		return nil, fmt.Errorf("finish position column not found, looked for %v: %w", columns.Finish, ErrMissingColumn)
	}

	raw := col.Floats()
	groups := raceKeys(results)

	maxByRace := make(map[string]float64)
	for i, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		if m, seen := maxByRace[groups[i]]; !seen || v > m {
			maxByRace[groups[i]] = v
		}
	}

	out := make([]int, len(raw))
	for i, v := range raw {
		var p int
		switch {
		case !math.IsNaN(v):
			p = int(v)
		default:
			if m, seen := maxByRace[groups[i]]; seen {
				p = int(m) + 1
			} else {
				p = Unplaced
			}
		}
		if p < 1 {
			p = 1
		}
		out[i] = p
	}
	return out, nil
}

// raceKeys returns the race key of each row, or one shared key when the
// results table has no resolvable race column.
func raceKeys(results *table.Table) []string {
	keys := make([]string, results.Len())
	col, ok := columns.Lookup(results, columns.Race...)
	if !ok {
		return keys
	}
	for i := range keys {
		keys[i] = col.String(i)
	}
	return keys
}
