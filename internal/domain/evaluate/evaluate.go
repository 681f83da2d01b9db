// Package evaluate scores predicted race orderings against actual finishing
// positions. Every metric is computed per race and macro-averaged so that
// large fields do not dominate small ones.
package evaluate

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Metric families.
const (
	MetricNDCG     = "ndcg"
	MetricMAP      = "map"
	MetricSpearman = "spearman"
	MetricRMSE     = "rmse"
)

// Bootstrap defaults.
const (
	DefaultBootstrapSamples       = 1000
	DefaultBootstrapSeed    int64 = 42
)

const (
	lowerPercentile = 0.025
	upperPercentile = 0.975
)

var (
	defaultTopK    = []int{1, 3, 5, 10}
	defaultMetrics = []string{MetricNDCG, MetricMAP, MetricSpearman, MetricRMSE}
)

// Report maps metric keys such as "ndcg@10" or "rmse_lo" to values.
type Report map[string]float64

// Keys returns the report keys in lexical order.
func (r Report) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Evaluator computes ranking metrics. It is immutable after New and safe for
// concurrent use.
type Evaluator struct {
	topK        []int
	metrics     []string
	bootstrap   Bootstrap
	parallelism int
}

// New creates an Evaluator. Without options it reports ndcg, map, spearman
// and rmse at cutoffs 1, 3, 5 and 10, with bootstrap disabled.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		topK:        append([]int(nil), defaultTopK...),
		metrics:     append([]string(nil), defaultMetrics...),
		bootstrap:   Bootstrap{Samples: DefaultBootstrapSamples, Seed: DefaultBootstrapSeed},
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the macro-averaged metrics for the given true positions,
// scores (higher is better) and race ids. With bootstrap enabled the report
// also carries <key>_mean, <key>_lo and <key>_hi for every metric key.
func (e *Evaluator) Evaluate(yTrue, scores []float64, groups []string) (Report, error) {
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("no rows to evaluate: %w", ErrInvalidArgument)
	}
	if len(yTrue) != len(scores) || len(yTrue) != len(groups) {
		return nil, fmt.Errorf("length mismatch: %d positions, %d scores, %d groups: %w",
			len(yTrue), len(scores), len(groups), ErrInvalidArgument)
	}
	keys, err := e.keys()
	if err != nil {
		return nil, err
	}

	perRace := e.perRace(keys, yTrue, scores, groupIndices(groups))

	report := make(Report, len(keys)*4)
	column := make([]float64, len(perRace))
	for j, key := range keys {
		for r, values := range perRace {
			column[r] = values[j]
		}
		report[key] = nanMean(column)
	}

	if !e.bootstrap.Enabled {
		return report, nil
	}
	samples, err := e.resample(perRace, len(keys))
	if err != nil {
		return nil, err
	}
	for j, key := range keys {
		mean, lo, hi := interval(samples, j)
		report[key+"_mean"] = mean
		report[key+"_lo"] = lo
		report[key+"_hi"] = hi
	}
	return report, nil
}

// keys expands the selected metric families into report keys.
func (e *Evaluator) keys() ([]string, error) {
	selected := make(map[string]bool, len(e.metrics))
	for _, name := range e.metrics {
		family, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(name)), "@")
		switch family {
		case MetricNDCG, MetricMAP, MetricSpearman, MetricRMSE:
			selected[family] = true
		default:
			return nil, fmt.Errorf("unknown metric %q: %w", name, ErrInvalidArgument)
		}
	}

	var keys []string
	for _, k := range e.topK {
		suffix := "@" + strconv.Itoa(k)
		if selected[MetricNDCG] {
			keys = append(keys, MetricNDCG+suffix)
		}
		if selected[MetricMAP] {
			keys = append(keys, MetricMAP+suffix)
		}
	}
	if selected[MetricSpearman] {
		keys = append(keys, MetricSpearman)
	}
	if selected[MetricRMSE] {
		keys = append(keys, MetricRMSE)
	}
	return keys, nil
}

// perRace computes one row of metric values per race, aligned with keys.
func (e *Evaluator) perRace(keys []string, yTrue, scores []float64, races [][]int) [][]float64 {
	out := make([][]float64, len(races))
	for r, idx := range races {
		pos := make([]float64, len(idx))
		sc := make([]float64, len(idx))
		for i, row := range idx {
			pos[i] = yTrue[row]
			sc[i] = scores[row]
		}
		values := make([]float64, len(keys))
		for j, key := range keys {
			family, cut, _ := strings.Cut(key, "@")
			k, _ := strconv.Atoi(cut)
			switch family {
			case MetricNDCG:
				values[j] = NDCG(pos, sc, k)
			case MetricMAP:
				values[j] = MAP(pos, sc, k)
			case MetricSpearman:
				values[j] = Spearman(pos, sc)
			case MetricRMSE:
				values[j] = RMSE(pos, sc)
			}
		}
		out[r] = values
	}
	return out
}

// resample draws races with replacement. Draws come from a single seeded
// source in sample order; only the averaging runs concurrently.
func (e *Evaluator) resample(perRace [][]float64, nKeys int) ([][]float64, error) {
	n := len(perRace)
	rng := rand.New(rand.NewSource(e.bootstrap.Seed))
	draws := make([][]int, e.bootstrap.Samples)
	for b := range draws {
		d := make([]int, n)
		for i := range d {
			d[i] = rng.Intn(n)
		}
		draws[b] = d
	}

	samples := make([][]float64, len(draws))
	eg, _ := errgroup.WithContext(context.Background())
	eg.SetLimit(e.parallelism)
	for b, d := range draws {
		b, d := b, d
		eg.Go(func() error {
			out := make([]float64, nKeys)
			column := make([]float64, len(d))
			for j := range out {
				for i, race := range d {
					column[i] = perRace[race][j]
				}
				out[j] = nanMean(column)
			}
			samples[b] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// interval returns the mean and the 2.5 / 97.5 percentiles of key j across
// samples, ignoring NaN samples.
func interval(samples [][]float64, j int) (mean, lo, hi float64) {
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s[j]) {
			values = append(values, s[j])
		}
	}
	if len(values) == 0 {
		nan := math.NaN()
		return nan, nan, nan
	}
	sort.Float64s(values)
	mean = stat.Mean(values, nil)
	lo = stat.Quantile(lowerPercentile, stat.LinInterp, values, nil)
	hi = stat.Quantile(upperPercentile, stat.LinInterp, values, nil)
	return mean, lo, hi
}

// groupIndices returns the row indices of each race in first-seen order.
func groupIndices(groups []string) [][]int {
	index := make(map[string]int)
	var out [][]int
	for row, g := range groups {
		k, ok := index[g]
		if !ok {
			k = len(out)
			index[g] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], row)
	}
	return out
}
