package features

import "strings"

// relevanceCeiling bounds the ranking relevance: P1 maps to 31, P32 and
// beyond map to 0.
const relevanceCeiling = 32

// Positions returns finishing positions as float targets (regression).
func Positions(pos []int) []float64 {
	out := make([]float64, len(pos))
	for i, p := range pos {
		out[i] = float64(p)
	}
	return out
}

// Relevance converts finishing positions into a monotone relevance label,
// higher is better, for ranking estimators.
func Relevance(pos []int) []float64 {
	out := make([]float64, len(pos))
	for i, p := range pos {
		out[i] = float64(max(0, relevanceCeiling-p))
	}
	return out
}

// WinIndicator labels winners 1 and everyone else 0.
func WinIndicator(pos []int) []float64 {
	out := make([]float64, len(pos))
	for i, p := range pos {
		if p == 1 {
			out[i] = 1
		}
	}
	return out
}

// IsWinLabel reports whether a configured target label asks for a win indicator.
func IsWinLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "win", "winner":
		return true
	}
	return false
}

// ForbiddenNames lists the target label and known post-race proxies that must
// never appear among feature names.
func ForbiddenNames(label string) []string {
	names := []string{
		"finish_pos", "finish_position", "position", "positionOrder",
		"positionText", "podium", "points",
	}
	if label = strings.TrimSpace(label); label != "" {
		names = append(names, label)
	}
	return names
}

// Target kinds accepted by TransformTarget.
const (
	TargetRegression     = "regression"
	TargetClassification = "classification"
	TargetRanking        = "ranking"
)

// TransformTarget maps normalized positions onto the target an estimator of
// the given kind is trained on. Unknown kinds get raw positions.
func TransformTarget(kind string, pos []int, label string) []float64 {
	switch kind {
	case TargetRanking:
		return Relevance(pos)
	case TargetClassification:
		if IsWinLabel(label) {
			return WinIndicator(pos)
		}
	}
	return Positions(pos)
}
