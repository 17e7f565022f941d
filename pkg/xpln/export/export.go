// Package export turns a loaded Domain into per-station schedules.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/xpln-go/internal/logger"
	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// ErrInconsistentDomain indicates a timetable entry whose train cannot be resolved.
var ErrInconsistentDomain = errors.New("inconsistent domain")

// Renderer writes one station's schedule.
type Renderer interface {
	Render(w io.Writer, station *models.Station, stops []models.ScheduledStop) error
	// Extension is the file extension including the dot, e.g. ".txt".
	Extension() string
}

// Sink creates one output per station.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
}

// Options configures Export.
type Options struct {
	// Concurrency limits the number of stations rendered at once.
	// Zero or less means no limit.
	Concurrency int
}

// Schedules groups every timetable entry by station name, each group sorted
// by arrival. Entries keep train-number then load order among equal arrivals.
func Schedules(domain *models.Domain) (map[string][]models.ScheduledStop, error) {
	result := make(map[string][]models.ScheduledStop)
	for _, train := range domain.Trains() {
		for _, entry := range train.Timetable {
			stop, err := resolve(domain, entry)
			if err != nil {
				return nil, err
			}
			result[entry.Station] = append(result[entry.Station], stop)
		}
	}
	for _, stops := range result {
		sortByArrival(stops)
	}
	return result, nil
}

// StationSchedule returns the stops at one station sorted by arrival.
func StationSchedule(domain *models.Domain, station string) ([]models.ScheduledStop, error) {
	var stops []models.ScheduledStop
	for _, train := range domain.Trains() {
		for _, entry := range train.Timetable {
			if entry.Station != station {
				continue
			}
			stop, err := resolve(domain, entry)
			if err != nil {
				return nil, err
			}
			stops = append(stops, stop)
		}
	}
	sortByArrival(stops)
	return stops, nil
}

func resolve(domain *models.Domain, entry models.TimetableEntry) (models.ScheduledStop, error) {
	train, ok := domain.Train(entry.Train)
	if !ok {
		return models.ScheduledStop{}, fmt.Errorf("%w: entry at %q references train %d",
			ErrInconsistentDomain, entry.Station, entry.Train)
	}
	return models.ScheduledStop{TimetableEntry: entry, TrainName: train.Name()}, nil
}

// sortByArrival orders stops by arrival string. Times are zero-padded in
// the source, so lexical order is chronological order.
func sortByArrival(stops []models.ScheduledStop) {
	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].Arrival < stops[j].Arrival
	})
}

// UnknownStations returns the station names referenced by timetable entries
// that have no Station in the domain, sorted. Such entries are never exported.
func UnknownStations(domain *models.Domain) []string {
	seen := make(map[string]bool)
	var names []string
	for _, train := range domain.Trains() {
		for _, entry := range train.Timetable {
			if _, ok := domain.Station(entry.Station); ok || seen[entry.Station] {
				continue
			}
			seen[entry.Station] = true
			names = append(names, entry.Station)
		}
	}
	sort.Strings(names)
	return names
}

// Export renders every station of domain into sink. The domain is only read,
// so stations are rendered concurrently.
func Export(ctx context.Context, domain *models.Domain, sink Sink, renderer Renderer, opts Options) error {
	schedules, err := Schedules(domain)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	names := fileNames(domain.Stations(), renderer.Extension())
	for _, station := range domain.Stations() {
		station := station
		name := names[station.Name]
		stops := schedules[station.Name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Debug("Writing %s (%d stops)", name, len(stops))
			return writeStation(sink, renderer, name, station, stops)
		})
	}

	return g.Wait()
}

func writeStation(sink Sink, renderer Renderer, name string, station *models.Station, stops []models.ScheduledStop) (err error) {
	w, err := sink.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", name, cerr)
		}
	}()

	if err := renderer.Render(w, station, stops); err != nil {
		return fmt.Errorf("rendering station %q: %w", station.Name, err)
	}
	return nil
}
