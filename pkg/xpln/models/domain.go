package models

import (
	"fmt"
	"sort"
)

// Station is a named stop that owns its tracks.
type Station struct {
	// Name is the unique station key.
	Name string `json:"name"`
	// Remark is free text attached to the station.
	Remark string `json:"remark,omitempty"`
	// Tracks lists the tracks in load order.
	Tracks []Track `json:"tracks,omitempty"`
}

// Track is a platform track belonging to exactly one station.
type Track struct {
	// Name is the track label.
	Name string `json:"name"`
	// Owner is the operator owning the track.
	Owner string `json:"owner,omitempty"`
	// Station is the name of the owning station.
	Station string `json:"station"`
}

// Train is a scheduled service that owns its timetable.
type Train struct {
	// Number is the unique train key.
	Number int `json:"number"`
	// Class is the leading token of the train's display name (e.g. "IC").
	Class string `json:"class"`
	// Remark is free text attached to the train.
	Remark string `json:"remark,omitempty"`
	// Timetable lists the entries in load order.
	Timetable []TimetableEntry `json:"timetable,omitempty"`
}

// Name returns the display name, class followed by number.
func (t *Train) Name() string {
	return fmt.Sprintf("%s %d", t.Class, t.Number)
}

// TimetableEntry is one stop of a train at a station.
type TimetableEntry struct {
	// Train is the number of the owning train.
	Train int `json:"train"`
	// Station is the station name. It is not required to exist.
	Station string `json:"station"`
	// Track is the track label.
	Track string `json:"track,omitempty"`
	// Arrival is the arrival time as written in the source (zero-padded).
	Arrival string `json:"arrival"`
	// Departure is the departure time as written in the source.
	Departure string `json:"departure"`
	// Remark is free text attached to the stop.
	Remark string `json:"remark,omitempty"`
}

// ScheduledStop is a timetable entry with its train's display name resolved.
type ScheduledStop struct {
	TimetableEntry
	// TrainName is the display name of the train.
	TrainName string `json:"train_name"`
}

// Domain is the cross-referenced station and train graph.
//
// Entities are keyed by station name and train number. A Domain is built by a
// single loader and must be treated as read-only once loading returns.
type Domain struct {
	stations map[string]*Station
	trains   map[int]*Train
}

// NewDomain returns an empty Domain.
func NewDomain() *Domain {
	return &Domain{
		stations: make(map[string]*Station),
		trains:   make(map[int]*Train),
	}
}

// PutStation inserts a station, replacing any station with the same name.
// It reports whether an existing station was replaced.
func (d *Domain) PutStation(s Station) bool {
	_, exists := d.stations[s.Name]
	d.stations[s.Name] = &s
	return exists
}

// AddTrack attaches a track to the station named by track.Station.
// It reports false when no such station exists.
func (d *Domain) AddTrack(track Track) bool {
	s, ok := d.stations[track.Station]
	if !ok {
		return false
	}
	s.Tracks = append(s.Tracks, track)
	return true
}

// PutTrain inserts a train, replacing any train with the same number.
// It reports whether an existing train was replaced.
func (d *Domain) PutTrain(t Train) bool {
	_, exists := d.trains[t.Number]
	d.trains[t.Number] = &t
	return exists
}

// AddEntry appends an entry to the timetable of the train it references.
// It reports false when no such train exists.
func (d *Domain) AddEntry(e TimetableEntry) bool {
	t, ok := d.trains[e.Train]
	if !ok {
		return false
	}
	t.Timetable = append(t.Timetable, e)
	return true
}

// Station looks up a station by name.
func (d *Domain) Station(name string) (*Station, bool) {
	s, ok := d.stations[name]
	return s, ok
}

// Train looks up a train by number.
func (d *Domain) Train(number int) (*Train, bool) {
	t, ok := d.trains[number]
	return t, ok
}

// Stations returns all stations sorted by name.
func (d *Domain) Stations() []*Station {
	result := make([]*Station, 0, len(d.stations))
	for _, s := range d.stations {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Trains returns all trains sorted by number.
func (d *Domain) Trains() []*Train {
	result := make([]*Train, 0, len(d.trains))
	for _, t := range d.trains {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result
}

// StationCount returns the number of stations.
func (d *Domain) StationCount() int {
	return len(d.stations)
}

// TrainCount returns the number of trains.
func (d *Domain) TrainCount() int {
	return len(d.trains)
}
