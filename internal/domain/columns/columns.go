// Package columns resolves heterogeneous column headers to canonical keys.
//
// Matching ignores case and every non-alphanumeric character, so race_id,
// raceId and RaceID all resolve to the same candidate.
package columns

import (
	"strings"
	"unicode"

	"github.com/pranch555/F1-Prediction/internal/domain/table"
)

// Candidate lists in priority order.
var (
	Race   = []string{"race_id", "raceId"}
	Driver = []string{"driver_id", "driverId"}
	Team   = []string{"constructor_id", "constructorId"}
	Grid   = []string{"grid"}
	Year   = []string{"year"}
	Round  = []string{"round"}

	Finish = []string{
		"finish_position", "finishPosition",
		"positionOrder", "position", "pos",
		"final_position", "finish_pos", "finishing_position",
		"place", "rank", "positionText",
	}

	QualifyingPosition = []string{"position", "positionOrder", "pos"}
)

// Normalize lower-cases name and strips everything that is not a letter or digit.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the actual column name in t matching the first candidate
// that resolves. It never fails: a missing table or no match reports false.
func Resolve(t *table.Table, candidates ...string) (string, bool) {
	if t.Empty() {
		return "", false
	}
	byKey := make(map[string]string, len(t.Columns()))
	for _, c := range t.Columns() {
		k := Normalize(c)
		if _, seen := byKey[k]; !seen {
			byKey[k] = c
		}
	}
	for _, cand := range candidates {
		if actual, ok := byKey[Normalize(cand)]; ok {
			return actual, true
		}
	}
	return "", false
}

// Lookup resolves and returns the column itself.
func Lookup(t *table.Table, candidates ...string) (table.Column, bool) {
	name, ok := Resolve(t, candidates...)
	if !ok {
		return table.Column{}, false
	}
	return t.Column(name)
}
