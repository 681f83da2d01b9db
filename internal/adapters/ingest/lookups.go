package ingest

import (
	"strings"

	"github.com/pranch555/F1-Prediction/internal/domain/columns"
	"github.com/pranch555/F1-Prediction/internal/domain/features"
	"github.com/pranch555/F1-Prediction/internal/domain/leaderboard"
	"github.com/pranch555/F1-Prediction/internal/domain/table"
)

var (
	raceNameColumns   = []string{"name", "race_name", "grand_prix"}
	forenameColumns   = []string{"forename", "first_name", "given_name"}
	surnameColumns    = []string{"surname", "last_name", "family_name"}
	driverNameColumns = []string{"driver_name", "name", "driverRef", "code"}
	teamNameColumns   = []string{"name", "constructor_name", "team", "constructorRef"}
)

// RaceInfo returns display metadata keyed by race id. It is empty when the
// races table or its id column is unavailable.
func RaceInfo(tables table.Set) map[string]leaderboard.RaceInfo {
	out := map[string]leaderboard.RaceInfo{}
	races, ok := tables.Get(features.TableRaces)
	if !ok {
		return out
	}
	id, ok := columns.Lookup(races, columns.Race...)
	if !ok {
		return out
	}
	name, hasName := columns.Lookup(races, raceNameColumns...)
	year, hasYear := columns.Lookup(races, columns.Year...)
	round, hasRound := columns.Lookup(races, columns.Round...)
	for i := 0; i < races.Len(); i++ {
		var info leaderboard.RaceInfo
		if hasName {
			info.Name = name.String(i)
		}
		if hasYear {
			info.Year = year.String(i)
		}
		if hasRound {
			info.Round = round.String(i)
		}
		out[id.String(i)] = info
	}
	return out
}

// DriverNames returns "forename surname" keyed by driver id, falling back to
// a single name column when the split names are absent.
func DriverNames(tables table.Set) map[string]string {
	out := map[string]string{}
	drivers, ok := tables.Get(features.TableDrivers)
	if !ok {
		return out
	}
	id, ok := columns.Lookup(drivers, columns.Driver...)
	if !ok {
		return out
	}
	fore, hasFore := columns.Lookup(drivers, forenameColumns...)
	sur, hasSur := columns.Lookup(drivers, surnameColumns...)
	single, hasSingle := columns.Lookup(drivers, driverNameColumns...)
	for i := 0; i < drivers.Len(); i++ {
		var name string
		switch {
		case hasFore || hasSur:
			parts := make([]string, 0, 2)
			if hasFore && fore.String(i) != "" {
				parts = append(parts, fore.String(i))
			}
			if hasSur && sur.String(i) != "" {
				parts = append(parts, sur.String(i))
			}
			name = strings.Join(parts, " ")
		case hasSingle:
			name = single.String(i)
		}
		if name != "" {
			out[id.String(i)] = name
		}
	}
	return out
}

// TeamNames returns constructor names keyed by constructor id.
func TeamNames(tables table.Set) map[string]string {
	out := map[string]string{}
	teams, ok := tables.Get(features.TableConstructors)
	if !ok {
		return out
	}
	id, ok := columns.Lookup(teams, columns.Team...)
	if !ok {
		return out
	}
	name, ok := columns.Lookup(teams, teamNameColumns...)
	if !ok {
		return out
	}
	for i := 0; i < teams.Len(); i++ {
		if v := name.String(i); v != "" {
			out[id.String(i)] = v
		}
	}
	return out
}
