package model

import "time"

// Matchup is one scheduled game with its home-win probability.
type Matchup struct {
	GameID      int       `json:"game_id"`
	Date        time.Time `json:"date"`
	HomeTeam    int       `json:"home_team"`
	AwayTeam    int       `json:"away_team"`
	HomeWinProb float64   `json:"home_win_prob"`
}

// Projection summarizes one team's simulated win distribution.
type Projection struct {
	TeamID    int     `json:"team_id"`
	Name      string  `json:"name"`
	MeanWins  float64 `json:"mean_wins"`
	LowerWins float64 `json:"lower_wins"`
	UpperWins float64 `json:"upper_wins"`
	LowerPct  float64 `json:"lower_pct"`
	UpperPct  float64 `json:"upper_pct"`
}
