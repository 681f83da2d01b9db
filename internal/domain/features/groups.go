package features

// GroupOrder returns a stable permutation that makes rows of the same group
// contiguous, groups appearing in first-seen order.
func GroupOrder(groups []string) []int {
	first := make(map[string]int)
	var distinct []string
	for _, g := range groups {
		if _, seen := first[g]; !seen {
			first[g] = len(distinct)
			distinct = append(distinct, g)
		}
	}
	buckets := make([][]int, len(distinct))
	for i, g := range groups {
		k := first[g]
		buckets[k] = append(buckets[k], i)
	}
	order := make([]int, 0, len(groups))
	for _, b := range buckets {
		order = append(order, b...)
	}
	return order
}

// GroupSizes returns the lengths of contiguous runs of equal group ids.
// Callers must order rows with GroupOrder first.
func GroupSizes(groups []string) []int {
	var sizes []int
	for i, g := range groups {
		if i == 0 || g != groups[i-1] {
			sizes = append(sizes, 0)
		}
		sizes[len(sizes)-1]++
	}
	return sizes
}

// Distinct returns the distinct group ids in first-seen order.
func Distinct(groups []string) []string {
	seen := make(map[string]struct{}, len(groups))
	var out []string
	for _, g := range groups {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
