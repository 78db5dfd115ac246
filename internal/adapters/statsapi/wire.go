package statsapi

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/bullpen/internal/domain/model"
)

// flexInt decodes a JSON number or numeric string. Anything else, including
// null and "-.--", decodes to zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := strings.Trim(string(b), `"`)
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			v = int(fl)
		} else {
			v = 0
		}
	}
	*f = flexInt(v)
	return nil
}

// flexString decodes a JSON string or number as text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

type idRef struct {
	ID flexInt `json:"id"`
}

// Schedule endpoint.

type scheduleResponse struct {
	Dates []struct {
		Date  string          `json:"date"`
		Games []scheduleEntry `json:"games"`
	} `json:"dates"`
}

type scheduleEntry struct {
	GamePk       flexInt `json:"gamePk"`
	GameType     string  `json:"gameType"`
	Season       flexInt `json:"season"`
	OfficialDate string  `json:"officialDate"`
	GameDate     string  `json:"gameDate"`
	Status       struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Home scheduleSide `json:"home"`
		Away scheduleSide `json:"away"`
	} `json:"teams"`
	Venue idRef `json:"venue"`
}

type scheduleSide struct {
	Team  idRef   `json:"team"`
	Score flexInt `json:"score"`
}

func (e scheduleEntry) toGame(fallbackDate string) (model.Game, bool) {
	raw := e.OfficialDate
	if raw == "" && len(e.GameDate) >= len(model.DateLayout) {
		raw = e.GameDate[:len(model.DateLayout)]
	}
	if raw == "" {
		raw = fallbackDate
	}
	date, err := model.ParseDate(raw)
	if err != nil || e.GamePk <= 0 {
		return model.Game{}, false
	}
	return model.Game{
		ID:        int(e.GamePk),
		Date:      date,
		Season:    int(e.Season),
		Type:      e.GameType,
		Status:    e.Status.DetailedState,
		HomeTeam:  int(e.Teams.Home.Team.ID),
		AwayTeam:  int(e.Teams.Away.Team.ID),
		HomeScore: int(e.Teams.Home.Score),
		AwayScore: int(e.Teams.Away.Score),
		VenueID:   int(e.Venue.ID),
	}, true
}

// Live feed endpoint.

type feedResponse struct {
	GamePk   flexInt `json:"gamePk"`
	GameData struct {
		ProbablePitchers struct {
			Home idRef `json:"home"`
			Away idRef `json:"away"`
		} `json:"probablePitchers"`
		Venue   idRef `json:"venue"`
		Weather struct {
			Condition string     `json:"condition"`
			Temp      flexString `json:"temp"`
			Wind      string     `json:"wind"`
		} `json:"weather"`
	} `json:"gameData"`
	LiveData struct {
		Boxscore struct {
			Teams struct {
				Home feedSide `json:"home"`
				Away feedSide `json:"away"`
			} `json:"teams"`
		} `json:"boxscore"`
	} `json:"liveData"`
}

type feedSide struct {
	TeamStats struct {
		Batting  battingStats  `json:"batting"`
		Pitching pitchingStats `json:"pitching"`
	} `json:"teamStats"`
	Players  map[string]feedPlayer `json:"players"`
	Pitchers []flexInt             `json:"pitchers"`
}

type feedPlayer struct {
	Person idRef `json:"person"`
	Stats  struct {
		Pitching *pitchingStats `json:"pitching"`
	} `json:"stats"`
}

type battingStats struct {
	Hits       flexInt `json:"hits"`
	AtBats     flexInt `json:"atBats"`
	Walks      flexInt `json:"baseOnBalls"`
	Doubles    flexInt `json:"doubles"`
	Triples    flexInt `json:"triples"`
	HomeRuns   flexInt `json:"homeRuns"`
	Strikeouts flexInt `json:"strikeOuts"`
}

type pitchingStats struct {
	InningsPitched flexString `json:"inningsPitched"`
	EarnedRuns     flexInt    `json:"earnedRuns"`
	Walks          flexInt    `json:"baseOnBalls"`
	Hits           flexInt    `json:"hits"`
	Strikeouts     flexInt    `json:"strikeOuts"`
}

func (p pitchingStats) line() model.PitchingLine {
	return model.PitchingLine{
		InningsPitched: string(p.InningsPitched),
		EarnedRuns:     int(p.EarnedRuns),
		Walks:          int(p.Walks),
		Hits:           int(p.Hits),
		Strikeouts:     int(p.Strikeouts),
	}
}

func (f feedResponse) toBoxScore(gameID int) *model.BoxScore {
	gd := f.GameData
	env := model.Environment{
		VenueID:     int(gd.Venue.ID),
		Temperature: parseTemperature(string(gd.Weather.Temp)),
		WindSpeed:   parseWindSpeed(gd.Weather.Wind),
		Condition:   gd.Weather.Condition,
	}
	if env.Condition == "" {
		env.Condition = model.DefaultCondition
	}
	teams := f.LiveData.Boxscore.Teams
	return &model.BoxScore{
		GameID:      gameID,
		Home:        teams.Home.side(int(gd.ProbablePitchers.Home.ID)),
		Away:        teams.Away.side(int(gd.ProbablePitchers.Away.ID)),
		Environment: env,
	}
}

// side lists pitchers in order of appearance. Feeds without that order fall
// back to every player with a pitching line, by id.
func (s feedSide) side(probable int) model.SideDetail {
	b := s.TeamStats.Batting
	detail := model.SideDetail{
		Batting: model.BattingLine{
			Hits:       int(b.Hits),
			AtBats:     int(b.AtBats),
			Walks:      int(b.Walks),
			Doubles:    int(b.Doubles),
			Triples:    int(b.Triples),
			HomeRuns:   int(b.HomeRuns),
			Strikeouts: int(b.Strikeouts),
		},
		Pitching:        s.TeamStats.Pitching.line(),
		ProbablePitcher: probable,
	}

	ids := make([]int, 0, len(s.Pitchers))
	for _, id := range s.Pitchers {
		ids = append(ids, int(id))
	}
	if len(ids) == 0 {
		for _, p := range s.Players {
			if p.Stats.Pitching != nil {
				ids = append(ids, int(p.Person.ID))
			}
		}
		sort.Ints(ids)
	}
	for _, id := range ids {
		p, ok := s.Players["ID"+strconv.Itoa(id)]
		if !ok || p.Stats.Pitching == nil {
			continue
		}
		detail.Pitchers = append(detail.Pitchers, model.PitcherLine{ID: id, Line: p.Stats.Pitching.line()})
	}
	return detail
}

// parseTemperature reads degrees Fahrenheit, defaulting when absent or
// unreadable.
func parseTemperature(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v == 0 {
		return model.DefaultTemperature
	}
	return v
}

// parseWindSpeed reads the leading integer of values like "9 mph, Out To CF".
func parseWindSpeed(raw string) int {
	before, _, found := strings.Cut(raw, "mph")
	if !found {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(before))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
