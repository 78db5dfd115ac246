package league

// Game types that carry competitive signal: regular season, wild card,
// division series, league championship and world series.
const (
	GameTypeRegular      = "R"
	GameTypeWildCard     = "F"
	GameTypeDivision     = "D"
	GameTypeChampionship = "L"
	GameTypeWorldSeries  = "W"
)

// DefaultGameTypes lists the eligible game types.
func DefaultGameTypes() []string {
	return []string{GameTypeRegular, GameTypeWildCard, GameTypeDivision, GameTypeChampionship, GameTypeWorldSeries}
}

// GameTypeSet builds a lookup set; an empty list means the defaults.
func GameTypeSet(types []string) map[string]bool {
	if len(types) == 0 {
		types = DefaultGameTypes()
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
