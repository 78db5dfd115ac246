package stream_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okian/bullpen/internal/adapters/mq/stream"
	"github.com/okian/bullpen/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPublisher(t *testing.T) {
	Convey("Given a publisher on a Redis stream", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		ctx := context.Background()
		p := stream.NewPublisher(client, stream.WithStream("test.projections"), stream.WithMaxLen(0))

		Convey("When a run is published", func() {
			projections := []model.Projection{
				{TeamID: 147, Name: "Yankees", MeanWins: 94.2, LowerWins: 88, UpperWins: 100},
				{TeamID: 111, Name: "Red Sox", MeanWins: 81.7, LowerWins: 75, UpperWins: 88},
			}
			So(p.Publish(ctx, "run-1", 2025, 1000, projections), ShouldBeNil)

			Convey("Then one entry per team is appended in order", func() {
				entries, err := client.XRange(ctx, "test.projections", "-", "+").Result()
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Values["run_id"], ShouldEqual, "run-1")
				So(entries[1].Values["team_id"], ShouldEqual, "111")

				var msg stream.Message
				So(json.Unmarshal([]byte(entries[0].Values["data"].(string)), &msg), ShouldBeNil)
				So(msg.Season, ShouldEqual, 2025)
				So(msg.Trials, ShouldEqual, 1000)
				So(msg.Projection.Name, ShouldEqual, "Yankees")
				So(msg.Projection.MeanWins, ShouldEqual, 94.2)
			})
		})

		Convey("When there is nothing to publish", func() {
			So(p.Publish(ctx, "run-2", 2025, 1000, nil), ShouldBeNil)
			So(mr.Exists("test.projections"), ShouldBeFalse)
		})

		Convey("When Redis is down", func() {
			mr.Close()
			err := p.Publish(ctx, "run-3", 2025, 10, []model.Projection{{TeamID: 1}})
			So(err, ShouldNotBeNil)
		})
	})
}
