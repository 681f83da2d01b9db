// Package leaderboard turns row scores into per-race predicted finishing
// orders.
package leaderboard

import (
	"fmt"
	"sort"
)

// Entry is one driver's predicted result in a race.
type Entry struct {
	Rank       int     `json:"pred_rank"`
	RaceID     string  `json:"race_id"`
	DriverID   string  `json:"driver_id,omitempty"`
	DriverName string  `json:"driver_name,omitempty"`
	TeamID     string  `json:"constructor_id,omitempty"`
	TeamName   string  `json:"team,omitempty"`
	Grid       float64 `json:"grid"`
	Score      float64 `json:"score"`
	Actual     int     `json:"actual_pos,omitempty"`
	Delta      int     `json:"delta,omitempty"`
	Row        int     `json:"row"`
}

// Race is a predicted leaderboard, best predicted finish first.
type Race struct {
	ID      string
	Info    RaceInfo
	Entries []Entry
}

// Input carries the row-aligned keys of scored rows. Drivers, Teams, Grid
// and Actual may be nil; Actual is nil at inference time.
type Input struct {
	Groups  []string
	Drivers []string
	Teams   []string
	Grid    []float64
	Actual  []int
}

// Board holds the leaderboards of every race in first-seen order.
type Board struct {
	races       []Race
	index       map[string]int
	raceInfo    map[string]RaceInfo
	driverNames map[string]string
	teamNames   map[string]string
	withActual  bool
}

// RankWithinGroups returns the 1-based predicted position of every row
// within its group, higher score first, ties in row order.
func RankWithinGroups(scores []float64, groups []string) []int {
	ranks := make([]int, len(scores))
	for _, rows := range groupRows(groups) {
		order := append([]int(nil), rows...)
		sort.SliceStable(order, func(a, b int) bool {
			return scores[order[a]] > scores[order[b]]
		})
		for r, i := range order {
			ranks[i] = r + 1
		}
	}
	return ranks
}

// Build ranks scored rows within their races.
func Build(in Input, scores []float64, opts ...Option) (*Board, error) {
	n := len(scores)
	if len(in.Groups) != n {
		return nil, fmt.Errorf("%d groups for %d scores: %w", len(in.Groups), n, ErrShape)
	}
	for name, l := range map[string]int{"drivers": len(in.Drivers), "teams": len(in.Teams), "grid": len(in.Grid), "actual": len(in.Actual)} {
		if l != 0 && l != n {
			return nil, fmt.Errorf("%d %s for %d scores: %w", l, name, n, ErrShape)
		}
	}

	b := &Board{index: make(map[string]int), withActual: in.Actual != nil}
	for _, opt := range opts {
		opt(b)
	}

	ranks := RankWithinGroups(scores, in.Groups)
	for _, rows := range groupRows(in.Groups) {
		id := in.Groups[rows[0]]
		race := Race{ID: id, Info: b.raceInfo[id], Entries: make([]Entry, len(rows))}
		for _, i := range rows {
			e := Entry{Rank: ranks[i], RaceID: id, Score: scores[i], Row: i}
			if in.Drivers != nil {
				e.DriverID = in.Drivers[i]
				e.DriverName = b.driverNames[e.DriverID]
			}
			if in.Teams != nil {
				e.TeamID = in.Teams[i]
				e.TeamName = b.teamNames[e.TeamID]
			}
			if in.Grid != nil {
				e.Grid = in.Grid[i]
			}
			if in.Actual != nil {
				e.Actual = in.Actual[i]
				e.Delta = e.Actual - e.Rank
			}
			race.Entries[e.Rank-1] = e
		}
		b.index[id] = len(b.races)
		b.races = append(b.races, race)
	}
	return b, nil
}

// Races returns every race leaderboard in first-seen order.
func (b *Board) Races() []Race { return b.races }

// HasActual reports whether entries carry actual positions.
func (b *Board) HasActual() bool { return b.withActual }

// Count returns the number of races.
func (b *Board) Count() int { return len(b.races) }

// Race returns the leaderboard of one race.
func (b *Board) Race(id string) (Race, error) {
	k, ok := b.index[id]
	if !ok {
		return Race{}, fmt.Errorf("race %q: %w", id, ErrNotFound)
	}
	return b.races[k], nil
}

// TopN returns the first n entries of a race, or all of them when the race
// is smaller.
func (b *Board) TopN(id string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("limit %d: %w", n, ErrInvalidLimit)
	}
	race, err := b.Race(id)
	if err != nil {
		return nil, err
	}
	n = min(n, len(race.Entries))
	out := make([]Entry, n)
	copy(out, race.Entries[:n])
	return out, nil
}

// Entries flattens all races, each in predicted order.
func (b *Board) Entries() []Entry {
	var out []Entry
	for _, r := range b.races {
		out = append(out, r.Entries...)
	}
	return out
}

func groupRows(groups []string) [][]int {
	index := make(map[string]int)
	var out [][]int
	for i, g := range groups {
		k, ok := index[g]
		if !ok {
			k = len(out)
			index[g] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}
