package model

import "time"

// SideFeatures are one team's pre-game features.
type SideFeatures struct {
	Rest        int     `json:"rest"`
	GamesLast7  int     `json:"games_last_7"`
	WinsLast5   int     `json:"wins_last_5"`
	WinsLast10  int     `json:"wins_last_10"`
	WinPct      float64 `json:"win_pct"`
	OPS         float64 `json:"ops"`
	AVG         float64 `json:"avg"`
	OBP         float64 `json:"obp"`
	SLG         float64 `json:"slg"`
	RunDiff     float64 `json:"run_diff"`
	StarterID   int     `json:"starter_id"`
	StarterERA  float64 `json:"starter_era"`
	StarterWHIP float64 `json:"starter_whip"`
}

// FeatureRow is the point-in-time feature set for one game plus its label.
type FeatureRow struct {
	GameID      int          `json:"game_id"`
	Season      int          `json:"year"`
	Date        time.Time    `json:"date"`
	HomeTeam    int          `json:"home_team"`
	AwayTeam    int          `json:"away_team"`
	Environment Environment  `json:"environment"`
	ParkFactor  float64      `json:"park_factor"`
	Home        SideFeatures `json:"home"`
	Away        SideFeatures `json:"away"`
	Degraded    bool         `json:"degraded"` // box score unavailable

	HomeScore int  `json:"home_score"`
	AwayScore int  `json:"away_score"`
	HomeWin   bool `json:"home_win"`
}

// TeamSnapshot is a team's latest state after a run.
type TeamSnapshot struct {
	TeamID          int       `json:"team_id"`
	Name            string    `json:"name"`
	Season          int       `json:"season"`
	AsOf            time.Time `json:"as_of"`
	GamesPlayed     int       `json:"games_played"`
	Wins            int       `json:"wins"`
	WinPct          float64   `json:"win_pct"`
	OPS             float64   `json:"ops"`
	AVG             float64   `json:"avg"`
	RunDiff         float64   `json:"run_diff"`
	WinsLast5       int       `json:"wins_last_5"`
	WinsLast10      int       `json:"wins_last_10"`
	GamesLast7      int       `json:"games_last_7"`
	LastStarterWHIP float64   `json:"last_starter_whip"`
}
