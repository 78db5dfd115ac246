package simulation

import "errors"

var (
	ErrInvalidTrials      = errors.New("trial count must be positive")
	ErrInvalidProbability = errors.New("home-win probability outside [0, 1]")
	ErrInvalidMatchup     = errors.New("matchup needs two distinct team ids")
	ErrEmptySchedule      = errors.New("schedule has no games")
)
