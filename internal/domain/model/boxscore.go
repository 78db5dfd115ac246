package model

// Environment defaults applied when the box score omits a field.
const (
	DefaultTemperature = 70
	DefaultCondition   = "Unknown"
)

// BattingLine holds a side's batting totals for one game.
type BattingLine struct {
	Hits       int `json:"hits"`
	AtBats     int `json:"atBats"`
	Walks      int `json:"baseOnBalls"`
	Doubles    int `json:"doubles"`
	Triples    int `json:"triples"`
	HomeRuns   int `json:"homeRuns"`
	Strikeouts int `json:"strikeOuts"`
}

// PitchingLine holds one pitcher's (or a side's) pitching line for one game.
// InningsPitched keeps the upstream "X.Y" notation where Y counts outs.
type PitchingLine struct {
	InningsPitched string `json:"inningsPitched"`
	EarnedRuns     int    `json:"earnedRuns"`
	Walks          int    `json:"baseOnBalls"`
	Hits           int    `json:"hits"`
	Strikeouts     int    `json:"strikeOuts"`
}

// PitcherLine pairs a pitcher id with the line he recorded.
type PitcherLine struct {
	ID   int          `json:"id"`
	Line PitchingLine `json:"line"`
}

// SideDetail is one team's half of a box score.
type SideDetail struct {
	Batting         BattingLine   `json:"batting"`
	Pitching        PitchingLine  `json:"pitching"`
	ProbablePitcher int           `json:"probable_pitcher"`
	Pitchers        []PitcherLine `json:"pitchers"` // order of appearance
}

// Starter resolves the starting pitcher's line. The probable pitcher wins
// when he appears in the box; otherwise the first pitcher with an innings
// value is used.
func (s SideDetail) Starter() (PitcherLine, bool) {
	if s.ProbablePitcher != 0 {
		for _, p := range s.Pitchers {
			if p.ID == s.ProbablePitcher {
				return p, true
			}
		}
	}
	for _, p := range s.Pitchers {
		if p.Line.InningsPitched != "" {
			return p, true
		}
	}
	return PitcherLine{}, false
}

// Environment describes game-day conditions.
type Environment struct {
	VenueID     int    `json:"venue_id"`
	Temperature int    `json:"temp"`
	WindSpeed   int    `json:"wind_speed"`
	Condition   string `json:"condition"`
}

// DefaultEnvironment returns the fallback environment for a venue.
func DefaultEnvironment(venueID int) Environment {
	return Environment{
		VenueID:     venueID,
		Temperature: DefaultTemperature,
		Condition:   DefaultCondition,
	}
}

// BoxScore is the optional per-game detail.
type BoxScore struct {
	GameID      int         `json:"game_id"`
	Home        SideDetail  `json:"home"`
	Away        SideDetail  `json:"away"`
	Environment Environment `json:"environment"`
}
