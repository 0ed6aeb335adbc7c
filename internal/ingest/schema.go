package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/discmatch/internal/domain/model"
)

// Column names used in row errors.
const (
	colCategory = "category"
	colSpeed    = "speed"
	colGlide    = "glide"
	colTurn     = "turn"
	colFade     = "fade"
)

var errEmptyCategory = errors.New("empty category")

// Schema maps row positions onto DiscRecord fields for one dataset.
type Schema struct {
	Dataset model.DatasetID
	// MinColumns is the shortest row that is considered at all.
	MinColumns int

	name, manufacturer, category int
	speed, glide, turn, fade     int
	description, link            int
	targetDefaults               bool
}

// ReferenceSchema: name, manufacturer, category, speed, glide, turn, fade.
var ReferenceSchema = Schema{
	Dataset:      model.DatasetReference,
	MinColumns:   7,
	name:         0,
	manufacturer: 1,
	category:     2,
	speed:        3,
	glide:        4,
	turn:         5,
	fade:         6,
	description:  -1,
	link:         -1,
}

// TargetSchema: name, category, speed, glide, turn, fade, description, externalLink.
var TargetSchema = Schema{
	Dataset:        model.DatasetTarget,
	MinColumns:     8,
	name:           0,
	manufacturer:   -1,
	category:       1,
	speed:          2,
	glide:          3,
	turn:           4,
	fade:           5,
	description:    6,
	link:           7,
	targetDefaults: true,
}

// SchemaFor returns the positional schema of a dataset.
func SchemaFor(id model.DatasetID) (Schema, error) {
	switch id {
	case model.DatasetReference:
		return ReferenceSchema, nil
	case model.DatasetTarget:
		return TargetSchema, nil
	}
	return Schema{}, fmt.Errorf("no schema for dataset %q", id)
}

// skip reports whether a row is silently ignored: too short or unnamed.
func (s Schema) skip(fields []string) bool {
	return len(fields) < s.MinColumns || strings.TrimSpace(fields[s.name]) == ""
}

// build converts one row into a record. row is the 1-based data row number.
func (s Schema) build(row int, fields []string, numbers NumberMode) (model.DiscRecord, error) {
	get := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := model.DiscRecord{
		Name:         get(s.name),
		Manufacturer: get(s.manufacturer),
		Category:     get(s.category),
		Description:  get(s.description),
		ExternalLink: get(s.link),
	}
	if rec.Category == "" {
		return model.DiscRecord{}, &RowError{Row: row, Column: colCategory, Err: errEmptyCategory}
	}

	for _, f := range []struct {
		col string
		idx int
		dst *float64
	}{
		{colSpeed, s.speed, &rec.Speed},
		{colGlide, s.glide, &rec.Glide},
		{colTurn, s.turn, &rec.Turn},
		{colFade, s.fade, &rec.Fade},
	} {
		raw := get(f.idx)
		v, err := numbers.parse(raw)
		if err != nil {
			return model.DiscRecord{}, &RowError{Row: row, Column: f.col, Value: raw, Err: err}
		}
		*f.dst = v
	}

	if s.targetDefaults {
		rec.Handle = model.Handle(rec.Name)
		rec.InStock = true
	}
	return rec, nil
}
