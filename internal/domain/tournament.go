package domain

import "time"

// TournamentResult is everything a finished run produces, handed to the
// result sink for persistence.
type TournamentResult struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Duration    time.Duration
	Leaderboard []LeaderboardEntry
	Trades      map[string][]Trade          // strategy name → trade history
	EquityCurve map[string][]EquitySnapshot // strategy name → equity curve
}
