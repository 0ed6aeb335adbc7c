package types_test

import (
	"testing"
	"time"

	"github.com/okian/discmatch/internal/domain/model"
	types "github.com/okian/discmatch/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewMatchResponse(t *testing.T) {
	Convey("Given a ranking over a target snapshot", t, func() {
		recs := []model.DiscRecord{
			{Name: "M3", Category: "Midrange", Speed: 5, Glide: 5, Turn: -1, Fade: 2},
			{Name: "M2", Category: "Midrange", Speed: 5, Glide: 5, Turn: 0, Fade: 2},
			{Name: "M1", Category: "Midrange", Speed: 5, Glide: 4, Turn: 0, Fade: 3},
		}
		snap := model.NewSnapshot(model.DatasetTarget, recs, time.Now(), model.ProvenanceRemote, 0)
		ranking := model.Ranking{
			Query: model.DiscRecord{Name: "Buzzz", Category: "Midrange"},
			Best:  &model.MatchResult{Disc: recs[0], Score: 0.95, Percentage: 95, Reasons: []string{"x"}},
			Alternates: []model.MatchResult{
				{Disc: recs[1], Score: 0.9, Percentage: 90},
				{Disc: recs[2], Score: 0.8, Percentage: 80},
			},
		}

		Convey("When it is flattened", func() {
			resp := types.NewMatchResponse(ranking, snap)

			Convey("Then ranks follow the ranking order", func() {
				So(resp.Best, ShouldNotBeNil)
				So(resp.Best.Rank, ShouldEqual, 1)
				So(resp.Best.Percentage, ShouldEqual, 95)
				So(len(resp.Alternates), ShouldEqual, 2)
				So(resp.Alternates[0].Rank, ShouldEqual, 2)
				So(resp.Alternates[1].Disc.Name, ShouldEqual, "M1")
			})

			Convey("Then the snapshot is described", func() {
				So(resp.Candidates, ShouldEqual, 3)
				So(resp.SnapshotID, ShouldEqual, snap.ID())
				So(resp.Provenance, ShouldEqual, model.ProvenanceRemote)
			})
		})

		Convey("When the ranking is empty", func() {
			empty := model.NewSnapshot(model.DatasetTarget, nil, time.Now(), model.ProvenanceStaticFallback, 0)
			resp := types.NewMatchResponse(model.Ranking{Query: ranking.Query}, empty)

			Convey("Then best is nil and alternates is an empty list", func() {
				So(resp.Best, ShouldBeNil)
				So(resp.Alternates, ShouldNotBeNil)
				So(len(resp.Alternates), ShouldEqual, 0)
			})
		})
	})
}
