// Package league holds static MLB reference data.
package league

import (
	"sort"
	"strconv"
)

// teamNames maps MLB team ids to club names.
var teamNames = map[int]string{ //nolint:gochecknoglobals // static reference table
	108: "Angels", 109: "D-backs", 110: "Orioles", 111: "Red Sox", 112: "Cubs",
	113: "Reds", 114: "Guardians", 115: "Rockies", 116: "Tigers", 117: "Astros",
	118: "Royals", 119: "Dodgers", 120: "Nationals", 121: "Mets", 133: "Athletics",
	134: "Pirates", 135: "Padres", 136: "Mariners", 137: "Giants", 138: "Cardinals",
	139: "Rays", 140: "Rangers", 141: "Blue Jays", 142: "Twins", 143: "Phillies",
	144: "Braves", 145: "White Sox", 146: "Marlins", 147: "Yankees", 158: "Brewers",
}

// TeamName returns the club name, or "Team <id>" for unknown ids.
func TeamName(id int) string {
	if name, ok := teamNames[id]; ok {
		return name
	}
	return "Team " + strconv.Itoa(id)
}

// TeamIDs returns every known team id in ascending order.
func TeamIDs() []int {
	ids := make([]int, 0, len(teamNames))
	for id := range teamNames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
