package league_test

import (
	"testing"

	"github.com/okian/bullpen/internal/domain/league"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLeague(t *testing.T) {
	Convey("Given the team table", t, func() {
		So(league.TeamName(147), ShouldEqual, "Yankees")
		So(league.TeamName(158), ShouldEqual, "Brewers")
		So(league.TeamName(999), ShouldEqual, "Team 999")

		ids := league.TeamIDs()
		So(len(ids), ShouldEqual, 30)
		So(ids[0], ShouldEqual, 108)
		So(ids[len(ids)-1], ShouldEqual, 158)
	})

	Convey("Given game types", t, func() {
		set := league.GameTypeSet(nil)
		So(set["R"], ShouldBeTrue)
		So(set["W"], ShouldBeTrue)
		So(set["S"], ShouldBeFalse) // spring training

		custom := league.GameTypeSet([]string{"R"})
		So(custom["D"], ShouldBeFalse)
	})
}
