package evaluate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PredictedPositions converts scores to 1-based ranks, higher score first,
// ties resolved by original order.
func PredictedPositions(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	ranks := make([]int, len(scores))
	for r, i := range order {
		ranks[i] = r + 1
	}
	return ranks
}

func predictedOrder(scores []float64) []int {
	ranks := PredictedPositions(scores)
	order := make([]int, len(ranks))
	for i, r := range ranks {
		order[r-1] = i
	}
	return order
}

// NDCG computes NDCG@k for one race. Relevance is race_size+1-position.
func NDCG(pos, scores []float64, k int) float64 {
	n := len(pos)
	if n == 0 {
		return math.NaN()
	}
	k = min(k, n)
	rel := make([]float64, n)
	for i, p := range pos {
		rel[i] = float64(n+1) - p
	}

	var dcg float64
	for r, i := range predictedOrder(scores)[:k] {
		dcg += rel[i] / math.Log2(float64(r+2))
	}

	ideal := append([]float64(nil), rel...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	var idcg float64
	for r, v := range ideal[:k] {
		idcg += v / math.Log2(float64(r+2))
	}
	if idcg == 0 {
		idcg = 1
	}
	return dcg / idcg
}

// MAP computes average precision at k for one race, counting rows that
// finished in the top k as relevant. NaN when no row is relevant.
func MAP(pos, scores []float64, k int) float64 {
	n := len(pos)
	k = min(k, n)
	relevant := make(map[int]struct{})
	for i, p := range pos {
		if p <= float64(k) {
			relevant[i] = struct{}{}
		}
	}
	if len(relevant) == 0 {
		return math.NaN()
	}

	var hits int
	var sum float64
	for r, i := range predictedOrder(scores)[:k] {
		if _, ok := relevant[i]; ok {
			hits++
			sum += float64(hits) / float64(r+1)
		}
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}

// Spearman is the Pearson correlation of average ranks of true positions and
// predicted positions. A race without variance on either side scores 0.
func Spearman(pos, scores []float64) float64 {
	pred := PredictedPositions(scores)
	predF := make([]float64, len(pred))
	for i, p := range pred {
		predF[i] = float64(p)
	}
	a := averageRanks(pos)
	b := averageRanks(predF)
	if len(a) < 2 || stat.Variance(a, nil) == 0 || stat.Variance(b, nil) == 0 {
		return 0
	}
	return stat.Correlation(a, b, nil)
}

// RMSE is the root mean squared difference between predicted rank and true
// position.
func RMSE(pos, scores []float64) float64 {
	if len(pos) == 0 {
		return math.NaN()
	}
	var sum float64
	for i, r := range PredictedPositions(scores) {
		d := float64(r) - pos[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pos)))
}

// averageRanks assigns 1-based ranks, ties sharing their mean rank.
func averageRanks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for m := i; m <= j; m++ {
			ranks[order[m]] = avg
		}
		i = j + 1
	}
	return ranks
}

// nanMean averages the non-NaN values; NaN when none remain.
func nanMean(values []float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}
