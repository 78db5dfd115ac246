package statsapi

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseWindSpeed(t *testing.T) {
	Convey("Given wind descriptions", t, func() {
		cases := []struct {
			raw  string
			want int
		}{
			{"9 mph, Out To CF", 9},
			{"0 mph, None", 0},
			{" 14 mph, L To R", 14},
			{"Calm", 0},
			{"", 0},
			{"gusty mph", 0},
		}
		for _, tc := range cases {
			So(parseWindSpeed(tc.raw), ShouldEqual, tc.want)
		}
	})
}

func TestParseTemperature(t *testing.T) {
	Convey("Given temperature strings", t, func() {
		So(parseTemperature("64"), ShouldEqual, 64)
		So(parseTemperature(""), ShouldEqual, 70)
		So(parseTemperature("warm"), ShouldEqual, 70)
	})
}

func TestFlexDecoding(t *testing.T) {
	Convey("Given loosely typed JSON values", t, func() {
		var v struct {
			A flexInt    `json:"a"`
			B flexInt    `json:"b"`
			C flexInt    `json:"c"`
			D flexInt    `json:"d"`
			E flexString `json:"e"`
			F flexString `json:"f"`
		}
		err := json.Unmarshal([]byte(`{"a": 12, "b": "7", "c": "-.--", "d": null, "e": 81, "f": "6.1"}`), &v)

		Convey("Then numbers and numeric strings decode and the rest is zero", func() {
			So(err, ShouldBeNil)
			So(int(v.A), ShouldEqual, 12)
			So(int(v.B), ShouldEqual, 7)
			So(int(v.C), ShouldEqual, 0)
			So(int(v.D), ShouldEqual, 0)
			So(string(v.E), ShouldEqual, "81")
			So(string(v.F), ShouldEqual, "6.1")
		})
	})
}
