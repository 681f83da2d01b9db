package leaderboard

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("race not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrShape        = errors.New("input lengths differ")
)
