package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidLayout indicates a layout that cannot describe any row.
var ErrInvalidLayout = errors.New("invalid layout")

// Layout describes where the loader finds each row kind and its fields.
// All offsets are zero-based column indexes.
type Layout struct {
	// StationTable holds station and track rows.
	StationTable string `toml:"station_table"`
	// TrainTable holds traindef and timetable rows.
	TrainTable string `toml:"train_table"`

	Station   StationLayout   `toml:"station"`
	Track     TrackLayout     `toml:"track"`
	Train     TrainLayout     `toml:"traindef"`
	Timetable TimetableLayout `toml:"timetable"`
}

// RowKindLayout identifies a row kind by a marker value in a discriminator column.
type RowKindLayout struct {
	Marker        string `toml:"marker"`
	Discriminator int    `toml:"discriminator"`
	// MinFields is the minimum row length for a matching row to be usable.
	MinFields int `toml:"min_fields"`
}

// StationLayout locates station fields.
type StationLayout struct {
	RowKindLayout
	Name   int `toml:"name"`
	Remark int `toml:"remark"`
}

// TrackLayout locates track fields.
type TrackLayout struct {
	RowKindLayout
	Station int `toml:"station"`
	Name    int `toml:"name"`
	Owner   int `toml:"owner"`
}

// TrainLayout locates traindef fields.
type TrainLayout struct {
	RowKindLayout
	Number int `toml:"number"`
	Name   int `toml:"name"`
	Remark int `toml:"remark"`
}

// TimetableLayout locates timetable fields.
type TimetableLayout struct {
	RowKindLayout
	Train     int `toml:"train"`
	Station   int `toml:"station"`
	Track     int `toml:"track"`
	Arrival   int `toml:"arrival"`
	Departure int `toml:"departure"`
	Remark    int `toml:"remark"`
}

// DefaultLayout returns the layout of the StationTrack/Trains timetable sheets.
func DefaultLayout() Layout {
	return Layout{
		StationTable: "StationTrack",
		TrainTable:   "Trains",
		Station: StationLayout{
			RowKindLayout: RowKindLayout{Marker: "Station", Discriminator: 5, MinFields: 6},
			Name:          0,
			Remark:        4,
		},
		Track: TrackLayout{
			RowKindLayout: RowKindLayout{Marker: "Track", Discriminator: 5, MinFields: 7},
			Station:       0,
			Name:          6,
			Owner:         7,
		},
		Train: TrainLayout{
			RowKindLayout: RowKindLayout{Marker: "traindef", Discriminator: 8, MinFields: 10},
			Number:        0,
			Name:          9,
			Remark:        10,
		},
		Timetable: TimetableLayout{
			RowKindLayout: RowKindLayout{Marker: "timetable", Discriminator: 8, MinFields: 9},
			Train:         0,
			Station:       2,
			Track:         3,
			Arrival:       4,
			Departure:     5,
			Remark:        10,
		},
	}
}

// LoadLayout reads a TOML layout file. Keys missing from the file keep
// their DefaultLayout values; unknown keys are rejected.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()

	f, err := os.Open(path)
	if err != nil {
		return layout, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&layout); err != nil {
		return layout, fmt.Errorf("%w: %s: %v", ErrInvalidLayout, path, err)
	}
	if err := layout.Validate(); err != nil {
		return layout, err
	}
	return layout, nil
}

// Validate checks that every row kind can be recognized.
func (l Layout) Validate() error {
	if l.StationTable == "" || l.TrainTable == "" {
		return fmt.Errorf("%w: table names must not be empty", ErrInvalidLayout)
	}

	kinds := []struct {
		kind   RowKind
		layout RowKindLayout
		fields []int
	}{
		{KindStation, l.Station.RowKindLayout, []int{l.Station.Name, l.Station.Remark}},
		{KindTrack, l.Track.RowKindLayout, []int{l.Track.Station, l.Track.Name, l.Track.Owner}},
		{KindTrain, l.Train.RowKindLayout, []int{l.Train.Number, l.Train.Name, l.Train.Remark}},
		{KindTimetable, l.Timetable.RowKindLayout, []int{
			l.Timetable.Train, l.Timetable.Station, l.Timetable.Track,
			l.Timetable.Arrival, l.Timetable.Departure, l.Timetable.Remark,
		}},
	}
	for _, k := range kinds {
		if k.layout.Marker == "" {
			return fmt.Errorf("%w: %s marker must not be empty", ErrInvalidLayout, k.kind)
		}
		if k.layout.Discriminator < 0 || k.layout.MinFields <= k.layout.Discriminator {
			return fmt.Errorf("%w: %s discriminator %d must be below min_fields %d",
				ErrInvalidLayout, k.kind, k.layout.Discriminator, k.layout.MinFields)
		}
		for _, offset := range k.fields {
			if offset < 0 {
				return fmt.Errorf("%w: %s field offset %d is negative", ErrInvalidLayout, k.kind, offset)
			}
		}
	}
	return nil
}
