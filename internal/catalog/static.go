package catalog

import (
	"time"

	"github.com/okian/discmatch/internal/domain/model"
)

const staticPrice = 18.99

// staticReference is a small, widely known subset of the reference catalog.
var staticReference = []model.DiscRecord{
	{Name: "Destroyer", Manufacturer: "Innova", Category: "Distance Driver", Speed: 12, Glide: 5, Turn: -1, Fade: 3},
	{Name: "Buzzz", Manufacturer: "Discraft", Category: "Midrange", Speed: 5, Glide: 4, Turn: -1, Fade: 1},
	{Name: "Teebird", Manufacturer: "Innova", Category: "Fairway Driver", Speed: 7, Glide: 5, Turn: 0, Fade: 2},
	{Name: "Aviar", Manufacturer: "Innova", Category: "Putter", Speed: 2, Glide: 3, Turn: 0, Fade: 1},
	{Name: "Wraith", Manufacturer: "Innova", Category: "Distance Driver", Speed: 11, Glide: 5, Turn: -1, Fade: 3},
	{Name: "Roc", Manufacturer: "Innova", Category: "Midrange", Speed: 4, Glide: 4, Turn: 0, Fade: 3},
	{Name: "Zeus", Manufacturer: "Discraft", Category: "Distance Driver", Speed: 12, Glide: 5, Turn: -1, Fade: 3},
	{Name: "Undertaker", Manufacturer: "Discraft", Category: "Fairway Driver", Speed: 9, Glide: 5, Turn: -1, Fade: 2},
	{Name: "King", Manufacturer: "Westside", Category: "Distance Driver", Speed: 14, Glide: 5, Turn: -1.5, Fade: 3},
	{Name: "Photon", Manufacturer: "MVP", Category: "Distance Driver", Speed: 11, Glide: 5, Turn: -1, Fade: 2.5},
}

type targetSeed struct {
	name, category           string
	speed, glide, turn, fade float64
	description              string
}

var targetSeeds = []targetSeed{
	{"D1", "Distance Driver", 13, 4, 0, 3, "Maximum distance overstable driver. Reliable in all conditions with strong fade."},
	{"D1 Max", "Distance Driver", 13, 5, -1, 3, "Extra glide version of the D1 for more carry with a dependable finish."},
	{"D2", "Distance Driver", 12, 6, -1, 2, "Versatile distance driver with glide and a moderate fade."},
	{"D2 Max", "Distance Driver", 12, 6, -2, 2, "More high speed turn than the D2 for easy distance."},
	{"D3", "Distance Driver", 12, 6, -2, 2, "Understable distance driver for long turnovers and rollers."},
	{"D3 Max", "Distance Driver", 12, 6, -3, 1, "Very understable distance driver for beginners and hyzer flips."},
	{"D4", "Distance Driver", 13, 6, -3, 2, "Fast, understable driver for maximum distance with less power."},
	{"D4 Max", "Distance Driver", 13, 6, -4, 1, "The most understable Prodigy distance driver."},
	{"F1", "Fairway Driver", 7, 3, 0, 4, "Overstable fairway driver for forehands and headwinds."},
	{"F2", "Fairway Driver", 9, 5, -1, 2, "Straight fairway driver with a reliable finish."},
	{"F3", "Fairway Driver", 9, 5, -2, 2, "Understable fairway driver for turnovers and controlled shots."},
	{"F5", "Fairway Driver", 7, 5, -2, 1, "Slow understable fairway driver for accuracy and easy glide."},
	{"F7", "Fairway Driver", 7, 5, -3, 1, "Very understable fairway driver for long turnovers."},
	{"M1", "Midrange", 5, 4, 0, 3, "Overstable midrange for fighting wind and predictable fades."},
	{"M2", "Midrange", 5, 5, 0, 2, "Straight flying midrange with a gentle finish."},
	{"M3", "Midrange", 5, 5, -1, 2, "Dead straight midrange for controlled approach and drives."},
	{"M4", "Midrange", 5, 5, -2, 1, "Understable midrange for turnovers and rollers."},
	{"MX-3", "Midrange", 5, 4, 0, 2.5, "Workhorse midrange with a slightly overstable finish."},
	{"A1", "Approach", 4, 3, 0, 3, "Overstable approach disc for spike hyzers and forehands."},
	{"A2", "Approach", 4, 4, 0, 3, "Reliable approach disc with a consistent fade."},
	{"A3", "Approach", 4, 4, -1, 2, "Neutral approach disc for touch shots."},
	{"A4", "Approach", 4, 4, -2, 1, "Understable approach disc for anhyzers."},
	{"PA-1", "Putter", 3, 3, -1, 1, "Straight throwing and putting putter."},
	{"PA-2", "Putter", 3, 3, 0, 2, "Stable putter for putting and approaching."},
	{"PA-3", "Putter", 3, 4, -1, 0.5, "Straight flying putter for putting and approach shots."},
	{"PA-4", "Putter", 3, 5, -2, 0.5, "Understable putter with a lot of glide."},
	{"PA-5", "Putter", 3, 5, -3, 1, "The most understable putter in the lineup."},
}

func staticTarget() []model.DiscRecord {
	out := make([]model.DiscRecord, len(targetSeeds))
	for i, s := range targetSeeds {
		handle := model.Handle(s.name)
		out[i] = model.DiscRecord{
			Name:         s.name,
			Category:     s.category,
			Speed:        s.speed,
			Glide:        s.glide,
			Turn:         s.turn,
			Fade:         s.fade,
			Description:  s.description,
			ExternalLink: "/products/prodigy-" + handle + "-disc",
			Handle:       handle,
			Price:        staticPrice,
			InStock:      true,
		}
	}
	return out
}

// StaticSnapshot returns the compiled-in snapshot of dataset. When enabled is
// false the snapshot is empty but still tagged static-fallback.
func StaticSnapshot(dataset model.DatasetID, enabled bool, at time.Time) *model.Snapshot {
	var records []model.DiscRecord
	if enabled {
		switch dataset {
		case model.DatasetReference:
			records = staticReference
		case model.DatasetTarget:
			records = staticTarget()
		}
	}
	return model.NewSnapshot(dataset, records, at, model.ProvenanceStaticFallback, 0)
}
