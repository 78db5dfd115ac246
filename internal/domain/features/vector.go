package features

import "github.com/okian/bullpen/internal/domain/model"

// Model input names.
const (
	FeatureTemp           = "temp"
	FeatureWindSpeed      = "wind_speed"
	FeatureParkFactor     = "park_factor"
	FeatureDiffRunDiff    = "diff_run_diff"
	FeatureDiffOPS        = "diff_ops"
	FeatureDiffWHIP       = "diff_whip"
	FeatureDiffERA        = "diff_era"
	FeatureDiffAVG        = "diff_avg"
	FeatureDiffWinPct     = "diff_win_pct"
	FeatureDiffWinsLast10 = "diff_wins_last_10"
	FeatureDiffWinsLast5  = "diff_wins_last_5"
	FeatureDiffGamesLast7 = "diff_games_last_7"
	FeatureDiffRest       = "diff_rest"
)

// VectorNames lists the model inputs in a stable order.
var VectorNames = []string{
	FeatureTemp,
	FeatureWindSpeed,
	FeatureParkFactor,
	FeatureDiffRunDiff,
	FeatureDiffOPS,
	FeatureDiffWHIP,
	FeatureDiffERA,
	FeatureDiffAVG,
	FeatureDiffWinPct,
	FeatureDiffWinsLast10,
	FeatureDiffWinsLast5,
	FeatureDiffGamesLast7,
	FeatureDiffRest,
}

// Vector is a named model input. Differences are home minus away.
type Vector map[string]float64

// VectorOf derives the model input for a feature row.
func VectorOf(row model.FeatureRow) Vector {
	h, a := row.Home, row.Away
	return Vector{
		FeatureTemp:           float64(row.Environment.Temperature),
		FeatureWindSpeed:      float64(row.Environment.WindSpeed),
		FeatureParkFactor:     row.ParkFactor,
		FeatureDiffRunDiff:    h.RunDiff - a.RunDiff,
		FeatureDiffOPS:        h.OPS - a.OPS,
		FeatureDiffWHIP:       h.StarterWHIP - a.StarterWHIP,
		FeatureDiffERA:        h.StarterERA - a.StarterERA,
		FeatureDiffAVG:        h.AVG - a.AVG,
		FeatureDiffWinPct:     h.WinPct - a.WinPct,
		FeatureDiffWinsLast10: float64(h.WinsLast10 - a.WinsLast10),
		FeatureDiffWinsLast5:  float64(h.WinsLast5 - a.WinsLast5),
		FeatureDiffGamesLast7: float64(h.GamesLast7 - a.GamesLast7),
		FeatureDiffRest:       float64(h.Rest - a.Rest),
	}
}

// SnapshotVector builds a model input from two team snapshots, for matchups
// that have not been played. Starter ERA and rest are unknown and left out.
func SnapshotVector(home, away model.TeamSnapshot, env model.Environment, parkFactor float64) Vector {
	return Vector{
		FeatureTemp:           float64(env.Temperature),
		FeatureWindSpeed:      float64(env.WindSpeed),
		FeatureParkFactor:     parkFactor,
		FeatureDiffRunDiff:    home.RunDiff - away.RunDiff,
		FeatureDiffOPS:        home.OPS - away.OPS,
		FeatureDiffWHIP:       home.LastStarterWHIP - away.LastStarterWHIP,
		FeatureDiffAVG:        home.AVG - away.AVG,
		FeatureDiffWinPct:     home.WinPct - away.WinPct,
		FeatureDiffWinsLast10: float64(home.WinsLast10 - away.WinsLast10),
		FeatureDiffWinsLast5:  float64(home.WinsLast5 - away.WinsLast5),
		FeatureDiffGamesLast7: float64(home.GamesLast7 - away.GamesLast7),
	}
}
