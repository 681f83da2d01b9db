package leaderboard

// Option applies a configuration option to Build.
type Option func(*Board)

// RaceInfo describes a race for display.
type RaceInfo struct {
	Name  string
	Year  string
	Round string
}

// WithRaces attaches race names, seasons and rounds keyed by race id.
func WithRaces(races map[string]RaceInfo) Option {
	return func(b *Board) {
		b.raceInfo = races
	}
}

// WithDriverNames attaches display names keyed by driver id.
func WithDriverNames(names map[string]string) Option {
	return func(b *Board) {
		b.driverNames = names
	}
}

// WithTeamNames attaches display names keyed by constructor id.
func WithTeamNames(names map[string]string) Option {
	return func(b *Board) {
		b.teamNames = names
	}
}
