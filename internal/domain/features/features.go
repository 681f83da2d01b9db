// Package features builds the numeric feature matrix, target and race
// grouping from loaded race-result tables.
//
// Every optional input degrades gracefully: a feature whose source columns or
// tables are absent is omitted and reported in Dataset.Degraded. Only a
// missing results table or finishing-position column is fatal.
package features

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pranch555/F1-Prediction/internal/domain/columns"
	"github.com/pranch555/F1-Prediction/internal/domain/positions"
	"github.com/pranch555/F1-Prediction/internal/domain/table"
)

// Logical table names.
const (
	TableResults      = "results"
	TableRaces        = "races"
	TableQualifying   = "qualifying"
	TableDrivers      = "drivers"
	TableConstructors = "constructors"
)

// Feature names, in declared column order.
const (
	FeatureGrid       = "grid"
	FeatureGridIsPit  = "grid_is_pit"
	FeatureDriverID   = "driverId_num"
	FeatureTeamID     = "constructorId_num"
	FeatureDriverForm = "driver_form3"
	FeatureTeamForm   = "team_form3"
	FeatureQualifying = "q_pos_best"
)

var declaredOrder = []string{
	FeatureGrid,
	FeatureGridIsPit,
	FeatureDriverID,
	FeatureTeamID,
	FeatureDriverForm,
	FeatureTeamForm,
	FeatureQualifying,
}

// DeclaredOrder returns the full feature column order.
func DeclaredOrder() []string {
	out := make([]string, len(declaredOrder))
	copy(out, declaredOrder)
	return out
}

// NoGroup is the group id given to every row when no race key resolves.
const NoGroup = "-1"

const (
	defaultFormWindow = 3
	unknownGrid       = -1
	unknownID         = -1
)

// Mode selects between fitting a new state and reusing a fitted one.
type Mode int

const (
	ModeTraining Mode = iota
	ModeInference
)

func (m Mode) String() string {
	if m == ModeInference {
		return "inference"
	}
	return "training"
}

// RollingScope tells how rolling-form history was partitioned.
type RollingScope string

const (
	// ScopeSeason restarts form history at each season.
	ScopeSeason RollingScope = "season"
	// ScopePooled carries form history across all seasons because no season
	// metadata was available.
	ScopePooled RollingScope = "pooled"
)

// FittedState is what must travel from a training build to later inference
// builds on data sharing the same schema.
type FittedState struct {
	FeatureNames []string           `json:"feature_names"`
	NSamples     int                `json:"n_samples"`
	ConfigUsed   map[string]any     `json:"config_used"`
	ImputeMeans  map[string]float64 `json:"impute_means"`
	RollingScope RollingScope       `json:"rolling_scope"`
}

// Keys holds the raw identifiers of each row. A slice is nil when the key
// could not be resolved.
type Keys struct {
	Race   []string
	Driver []string
	Team   []string
}

// Dataset is the immutable output of one Build call. X, Target, Groups and
// the Keys slices are aligned index for index.
type Dataset struct {
	X                 *mat.Dense
	Names             []string
	Target            []int
	Groups            []string
	GroupingAvailable bool
	RollingScope      RollingScope
	Degraded          []string
	Keys              Keys
	State             FittedState
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Target) }

// Column returns a copy of the named feature column.
func (d *Dataset) Column(name string) ([]float64, bool) {
	for j, n := range d.Names {
		if n == name {
			return mat.Col(nil, j, d.X), true
		}
	}
	return nil, false
}

// Builder computes datasets. It holds no per-call state and is safe to reuse.
type Builder struct {
	formWindow       int
	reuseFittedMeans bool
	configEcho       map[string]any
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		formWindow: defaultFormWindow,
		configEcho: map[string]any{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the feature matrix, target, grouping vector and fitted state.
//
// In ModeInference with a non-nil state the emitted columns follow
// state.FeatureNames exactly; columns that cannot be computed are filled with
// the fitted mean and listed in Degraded.
func (b *Builder) Build(ctx context.Context, tables table.Set, mode Mode, state *FittedState) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results, ok := tables.Get(TableResults)
	if !ok {
		return nil, fmt.Errorf("%q table is absent or empty: %w", TableResults, ErrMissingTable)
	}
	n := results.Len()

	raceCol, hasRace := columns.Lookup(results, columns.Race...)
	driverCol, hasDriver := columns.Lookup(results, columns.Driver...)
	teamCol, hasTeam := columns.Lookup(results, columns.Team...)
	gridCol, hasGrid := columns.Lookup(results, columns.Grid...)

	finish, err := positions.Normalize(results)
	if err != nil {
		return nil, fmt.Errorf("build target: %w", err)
	}
	target := make([]int, n)
	for i, p := range finish {
		target[i] = max(p, 1)
	}

	ds := &Dataset{
		Target:            target,
		Groups:            make([]string, n),
		GroupingAvailable: hasRace,
	}
	for i := range ds.Groups {
		if hasRace {
			ds.Groups[i] = raceCol.String(i)
		} else {
			ds.Groups[i] = NoGroup
		}
	}
	if hasRace {
		ds.Keys.Race = raceCol.Strings()
	}
	if hasDriver {
		ds.Keys.Driver = driverCol.Strings()
	}
	if hasTeam {
		ds.Keys.Team = teamCol.Strings()
	}

	computed := make(map[string][]float64, len(declaredOrder))

	grid := make([]float64, n)
	pit := make([]float64, n)
	for i := range grid {
		grid[i] = unknownGrid
		if hasGrid {
			if v, ok := gridCol.Float(i); ok {
				grid[i] = math.Trunc(v)
			}
		}
		if grid[i] == 0 {
			pit[i] = 1
		}
	}
	computed[FeatureGrid] = grid
	computed[FeatureGridIsPit] = pit

	if hasDriver {
		computed[FeatureDriverID] = numericIDs(driverCol)
	}
	if hasTeam {
		computed[FeatureTeamID] = numericIDs(teamCol)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, seasonal := joinRaceMeta(results, raceCol, hasRace, tables)
	ds.RollingScope = ScopePooled
	var season []string
	if seasonal {
		ds.RollingScope = ScopeSeason
		season = meta.season
	}
	order := chronology(n, meta.year, meta.round)
	var raceIDs []string
	if hasRace {
		raceIDs = raceCol.Strings()
	}
	if hasDriver {
		computed[FeatureDriverForm] = b.rollingForm(driverCol, raceIDs, season, order, finish)
	}
	if hasTeam {
		computed[FeatureTeamForm] = b.rollingForm(teamCol, raceIDs, season, order, finish)
	}

	if hasRace && hasDriver {
		if q, ok := tables.Get(TableQualifying); ok {
			if best, ok := qualifyingBest(q, raceCol, driverCol); ok {
				computed[FeatureQualifying] = best
			}
		}
	}

	names := make([]string, 0, len(declaredOrder))
	var fitted map[string]float64
	if mode == ModeInference && state != nil {
		names = append(names, state.FeatureNames...)
		fitted = state.ImputeMeans
	} else {
		for _, name := range declaredOrder {
			if _, ok := computed[name]; ok {
				names = append(names, name)
			}
		}
	}
	for _, name := range declaredOrder {
		if _, ok := computed[name]; !ok {
			ds.Degraded = append(ds.Degraded, name)
		}
	}

	data := make([]float64, n*len(names))
	means := make(map[string]float64, len(names))
	for j, name := range names {
		values, ok := computed[name]
		if !ok {
			values = make([]float64, n)
			floats.AddConst(math.NaN(), values)
		}
		fill := meanFinite(values)
		if fm, ok := fitted[name]; ok && (b.reuseFittedMeans || math.IsNaN(fill)) {
			fill = fm
		}
		if math.IsNaN(fill) {
			fill = 0
		}
		means[name] = fill
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = fill
			}
			data[i*len(names)+j] = v
		}
	}

	ds.Names = names
	ds.X = mat.NewDense(n, len(names), data)
	ds.State = FittedState{
		FeatureNames: append([]string(nil), names...),
		NSamples:     n,
		ConfigUsed:   b.configEcho,
		ImputeMeans:  means,
		RollingScope: ds.RollingScope,
	}
	return ds, nil
}

// rollingForm averages the previous formWindow finishing positions of each
// entity over earlier races only. Every row of a race reads the history as it
// stood before that race, so teammates and repeated rows never see each
// other's finish. The first appearance of an entity within its partition is
// NaN.
func (b *Builder) rollingForm(entity table.Column, race, season []string, order []int, finish []int) []float64 {
	out := make([]float64, entity.Len())
	floats.AddConst(math.NaN(), out)

	key := func(i int) string {
		if season != nil {
			return entity.String(i) + "\x00" + season[i]
		}
		return entity.String(i)
	}
	history := make(map[string][]float64)
	for _, rows := range raceBatches(order, race) {
		for _, i := range rows {
			if h := history[key(i)]; len(h) > 0 {
				start := max(0, len(h)-b.formWindow)
				out[i] = stat.Mean(h[start:], nil)
			}
		}
		for _, i := range rows {
			k := key(i)
			history[k] = append(history[k], float64(finish[i]))
		}
	}
	return out
}

// raceBatches splits order into per-race row lists, races in the order they
// first appear. Without race ids every row is its own batch.
func raceBatches(order []int, race []string) [][]int {
	if race == nil {
		out := make([][]int, len(order))
		for k, i := range order {
			out[k] = []int{i}
		}
		return out
	}
	index := make(map[string]int)
	var out [][]int
	for _, i := range order {
		k, ok := index[race[i]]
		if !ok {
			k = len(out)
			index[race[i]] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}

type raceMeta struct {
	season []string
	year   []float64
	round  []float64
}

// joinRaceMeta left-joins season year and round from the races table onto
// results rows. It reports false when season metadata is unavailable.
func joinRaceMeta(results *table.Table, raceCol table.Column, hasRace bool, tables table.Set) (raceMeta, bool) {
	races, ok := tables.Get(TableRaces)
	if !ok || !hasRace {
		return raceMeta{}, false
	}
	rk, ok := columns.Lookup(races, columns.Race...)
	if !ok {
		return raceMeta{}, false
	}
	yc, ok := columns.Lookup(races, columns.Year...)
	if !ok {
		return raceMeta{}, false
	}
	rc, hasRound := columns.Lookup(races, columns.Round...)

	byRace := make(map[string]int, races.Len())
	for j := 0; j < races.Len(); j++ {
		if _, seen := byRace[rk.String(j)]; !seen {
			byRace[rk.String(j)] = j
		}
	}

	n := results.Len()
	m := raceMeta{
		season: make([]string, n),
		year:   make([]float64, n),
	}
	if hasRound {
		m.round = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m.year[i] = math.NaN()
		if m.round != nil {
			m.round[i] = math.NaN()
		}
		j, found := byRace[raceCol.String(i)]
		if !found {
			continue
		}
		m.season[i] = yc.String(j)
		if v, ok := yc.Float(j); ok {
			m.year[i] = v
		}
		if m.round != nil {
			if v, ok := rc.Float(j); ok {
				m.round[i] = v
			}
		}
	}
	return m, true
}

// chronology returns row indices ordered by (year, round) when every row has
// both, otherwise the input order.
func chronology(n int, year, round []float64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if year == nil || round == nil {
		return order
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(year[i]) || math.IsNaN(round[i]) {
			return order
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if year[ia] != year[ib] {
			return year[ia] < year[ib]
		}
		return round[ia] < round[ib]
	})
	return order
}

// qualifyingBest returns the best (minimum) qualifying position per
// (race, driver), aligned to results rows; unmatched rows are NaN.
func qualifyingBest(q *table.Table, raceCol, driverCol table.Column) ([]float64, bool) {
	qRace, ok := columns.Lookup(q, columns.Race...)
	if !ok {
		return nil, false
	}
	qDriver, ok := columns.Lookup(q, columns.Driver...)
	if !ok {
		return nil, false
	}
	qPos, ok := columns.Lookup(q, columns.QualifyingPosition...)
	if !ok {
		return nil, false
	}

	type key struct{ race, driver string }
	best := make(map[key]float64, q.Len())
	for j := 0; j < q.Len(); j++ {
		v, ok := qPos.Float(j)
		if !ok {
			continue
		}
		k := key{qRace.String(j), qDriver.String(j)}
		if cur, seen := best[k]; !seen || v < cur {
			best[k] = v
		}
	}

	out := make([]float64, raceCol.Len())
	for i := range out {
		v, ok := best[key{raceCol.String(i), driverCol.String(i)}]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out, true
}

func numericIDs(col table.Column) []float64 {
	out := make([]float64, col.Len())
	for i := range out {
		v, ok := col.Float(i)
		if !ok {
			out[i] = unknownID
			continue
		}
		out[i] = math.Trunc(v)
	}
	return out
}

// meanFinite is the mean over finite values; NaN when there are none.
func meanFinite(values []float64) float64 {
	var sum float64
	var cnt int
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		cnt++
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}
