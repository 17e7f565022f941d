// Package summary computes per-station statistics over a loaded domain.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// DwellStats describes how long trains stand at a station, in minutes.
type DwellStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// StationSummary aggregates the timetable of one station.
type StationSummary struct {
	Station       string     `json:"station"`
	Stops         int        `json:"stops"`
	Trains        int        `json:"trains"`
	FirstArrival  string     `json:"first_arrival,omitempty"`
	LastDeparture string     `json:"last_departure,omitempty"`
	Dwell         DwellStats `json:"dwell"`
}

// Summarize returns one summary per station, ordered by station name.
// Entries whose times do not parse count as stops but not as dwell samples.
func Summarize(domain *models.Domain) ([]StationSummary, error) {
	byStation := make(map[string][]models.TimetableEntry)
	for _, train := range domain.Trains() {
		for _, entry := range train.Timetable {
			byStation[entry.Station] = append(byStation[entry.Station], entry)
		}
	}

	var result []StationSummary
	for _, station := range domain.Stations() {
		s, err := summarizeStation(station.Name, byStation[station.Name])
		if err != nil {
			return nil, fmt.Errorf("station %q: %w", station.Name, err)
		}
		result = append(result, s)
	}
	return result, nil
}

func summarizeStation(name string, entries []models.TimetableEntry) (StationSummary, error) {
	s := StationSummary{Station: name, Stops: len(entries)}

	trains := make(map[int]struct{})
	var dwell []float64
	first, last := -1, -1
	for _, e := range entries {
		trains[e.Train] = struct{}{}

		arr, arrOK := ParseClock(e.Arrival)
		dep, depOK := ParseClock(e.Departure)
		if arrOK && (first < 0 || arr < first) {
			first = arr
			s.FirstArrival = e.Arrival
		}
		if depOK && (last < 0 || dep > last) {
			last = dep
			s.LastDeparture = e.Departure
		}
		if arrOK && depOK {
			d := dep - arr
			if d < 0 {
				d += 24 * 3600
			}
			dwell = append(dwell, float64(d)/60)
		}
	}
	s.Trains = len(trains)

	if len(dwell) == 0 {
		return s, nil
	}
	var err error
	s.Dwell.Count = len(dwell)
	if s.Dwell.Mean, err = stats.Mean(dwell); err != nil {
		return s, err
	}
	if s.Dwell.Median, err = stats.Median(dwell); err != nil {
		return s, err
	}
	if s.Dwell.Max, err = stats.Max(dwell); err != nil {
		return s, err
	}
	return s, nil
}

// ParseClock converts "HH:MM" or "HH:MM:SS" to seconds since midnight.
func ParseClock(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	limits := []int{24, 60, 60}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, false
		}
		total = total*60 + n
	}
	if len(parts) == 2 {
		total *= 60
	}
	return total, true
}
