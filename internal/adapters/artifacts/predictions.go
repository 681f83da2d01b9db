package artifacts

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pranch555/F1-Prediction/internal/domain/leaderboard"
)

var predictionHeader = []string{
	"race_id", "race_name", "year", "round",
	"driver_id", "driver_name", "constructor_id", "team",
	"grid", "score", "pred_rank",
}

// WritePredictions stores every leaderboard entry as CSV, races in
// first-seen order and drivers in predicted order. Actual positions and
// deltas are appended when the board carries them.
func (r *Run) WritePredictions(board *leaderboard.Board) error {
	f, err := os.Create(r.Path(FilePredictions))
	if err != nil {
		return fmt.Errorf("write %s: %w", FilePredictions, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := predictionHeader
	if board.HasActual() {
		header = append(append([]string{}, header...), "actual_pos", "delta")
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, race := range board.Races() {
		for _, e := range race.Entries {
			rec := []string{
				e.RaceID, race.Info.Name, race.Info.Year, race.Info.Round,
				e.DriverID, e.DriverName, e.TeamID, e.TeamName,
				formatFloat(e.Grid), formatFloat(e.Score), strconv.Itoa(e.Rank),
			}
			if board.HasActual() {
				rec = append(rec, strconv.Itoa(e.Actual), strconv.Itoa(e.Delta))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", FilePredictions, err)
	}
	return f.Close()
}

// WriteReport renders a markdown summary: the metric table followed by the
// top entries of each race.
func (r *Run) WriteReport(title string, report map[string]float64, board *leaderboard.Board) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(report) > 0 {
		keys := make([]string, 0, len(report))
		for k := range report {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("## Metrics\n\n| metric | value |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", k, formatMetric(report[k]))
		}
		b.WriteString("\n")
	}

	if board != nil {
		for _, race := range board.Races() {
			fmt.Fprintf(&b, "## %s\n\n", raceTitle(race))
			if board.HasActual() {
				b.WriteString("| pred | driver | team | grid | score | actual | delta |\n|---|---|---|---|---|---|---|\n")
			} else {
				b.WriteString("| pred | driver | team | grid | score |\n|---|---|---|---|---|\n")
			}
			entries, err := board.TopN(race.ID, r.topN)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(&b, "| %d | %s | %s | %s | %.4f |", e.Rank, orID(e.DriverName, e.DriverID), orID(e.TeamName, e.TeamID), formatFloat(e.Grid), e.Score)
				if board.HasActual() {
					fmt.Fprintf(&b, " %d | %+d |", e.Actual, e.Delta)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	return r.write(FileReport, []byte(b.String()))
}

func raceTitle(race leaderboard.Race) string {
	title := "Race " + race.ID
	if race.Info.Name != "" {
		title = race.Info.Name
	}
	if race.Info.Year != "" {
		title += " " + race.Info.Year
	}
	if race.Info.Round != "" {
		title += " (round " + race.Info.Round + ")"
	}
	return title
}

func orID(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
