// Package model contains domain models passed between layers.
package model

import "time"

// Game statuses. Only final games feed the feature engine.
const (
	StatusFinal     = "Final"
	StatusScheduled = "Scheduled"
)

// DateLayout is the civil-date layout used on every boundary.
const DateLayout = "2006-01-02"

// Game is one completed-or-scheduled contest from the upstream schedule.
type Game struct {
	ID        int       `json:"game_id"`
	Date      time.Time `json:"date"`   // civil date at UTC midnight
	Season    int       `json:"season"` // 0 means derive from Date
	Type      string    `json:"game_type"`
	Status    string    `json:"status"`
	HomeTeam  int       `json:"home_team"`
	AwayTeam  int       `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	VenueID   int       `json:"venue_id"`
}

// IsFinal reports whether the game is eligible for feature extraction.
func (g Game) IsFinal() bool { return g.Status == StatusFinal }

// HomeWon reports the realized outcome. Ties count as a home loss.
func (g Game) HomeWon() bool { return g.HomeScore > g.AwayScore }

// SeasonOf returns the explicit season or the calendar year of the game date.
func (g Game) SeasonOf() int {
	if g.Season != 0 {
		return g.Season
	}
	if g.Date.IsZero() {
		return 0
	}
	return g.Date.Year()
}

// CivilDate truncates t to midnight UTC of its calendar day.
func CivilDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into a civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
