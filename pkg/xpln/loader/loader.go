// Package loader builds the station and train graph from spreadsheet tables.
//
// Loading runs four passes in a fixed order: stations, tracks, train
// definitions, timetable entries. Every kind is fully defined before any
// row that references it is read, so tracks only ever see stations from the
// first pass and timetable entries only ever see trains from the third.
package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/xpln-go/internal/logger"
	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// ErrMissingTable indicates a table required by the layout is absent.
var ErrMissingTable = errors.New("missing table")

type pass struct {
	kind  RowKind
	table *models.Table
	run   func(*models.Table, *models.Domain, Layout) []Diagnostic
}

// Load builds a Domain from the station and train tables named by layout.
// Rows that cannot be loaded are skipped and returned as diagnostics; only
// an invalid layout or a missing table fails the load.
func Load(sheet *models.Spreadsheet, layout Layout) (*models.Domain, []Diagnostic, error) {
	if err := layout.Validate(); err != nil {
		return nil, nil, err
	}

	stations, ok := sheet.Table(layout.StationTable)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingTable, layout.StationTable)
	}
	trains, ok := sheet.Table(layout.TrainTable)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingTable, layout.TrainTable)
	}

	domain := models.NewDomain()
	var diagnostics []Diagnostic

	for _, p := range []pass{
		{KindStation, stations, loadStations},
		{KindTrack, stations, loadTracks},
		{KindTrain, trains, loadTrains},
		{KindTimetable, trains, loadTimetables},
	} {
		logger.Debug("Loading %s objects from %q...", p.kind, p.table.Name)
		d := p.run(p.table, domain, layout)
		if len(d) > 0 {
			logger.Debug("%d %s rows skipped", len(d), p.kind)
		}
		diagnostics = append(diagnostics, d...)
	}

	logger.Info("Loaded %d stations and %d trains (%d rows skipped)",
		domain.StationCount(), domain.TrainCount(), len(diagnostics))

	return domain, diagnostics, nil
}

// matches reports whether row is of the kind described by k. A row too
// short to hold the discriminator is never a match.
func matches(row models.Row, k RowKindLayout) bool {
	return row.Len() > k.Discriminator && row.Values[k.Discriminator] == k.Marker
}

func shortRow(row models.Row, k RowKindLayout) error {
	return fmt.Errorf("%w: %d of %d fields", ErrShortRow, row.Len(), k.MinFields)
}

func loadStations(table *models.Table, domain *models.Domain, layout Layout) []Diagnostic {
	l := layout.Station
	var diagnostics []Diagnostic

	for _, row := range table.Rows {
		if !matches(row, l.RowKindLayout) {
			continue
		}
		if row.Len() < l.MinFields {
			diagnostics = append(diagnostics, newDiagnostic(KindStation, table, row, shortRow(row, l.RowKindLayout)))
			continue
		}

		station := models.Station{
			Name:   row.Field(l.Name),
			Remark: row.Field(l.Remark),
		}
		if domain.PutStation(station) {
			logger.Warn("station %q redefined in %s#%d", station.Name, table.Name, row.Number)
		}
	}

	return diagnostics
}

func loadTracks(table *models.Table, domain *models.Domain, layout Layout) []Diagnostic {
	l := layout.Track
	var diagnostics []Diagnostic

	for _, row := range table.Rows {
		if !matches(row, l.RowKindLayout) {
			continue
		}
		if row.Len() < l.MinFields {
			diagnostics = append(diagnostics, newDiagnostic(KindTrack, table, row, shortRow(row, l.RowKindLayout)))
			continue
		}

		track := models.Track{
			Station: row.Field(l.Station),
			Name:    row.Field(l.Name),
			Owner:   row.Field(l.Owner),
		}
		if !domain.AddTrack(track) {
			reason := fmt.Errorf("%w: %q", ErrUnknownStation, track.Station)
			diagnostics = append(diagnostics, newDiagnostic(KindTrack, table, row, reason))
		}
	}

	return diagnostics
}

func loadTrains(table *models.Table, domain *models.Domain, layout Layout) []Diagnostic {
	l := layout.Train
	var diagnostics []Diagnostic

	for _, row := range table.Rows {
		if !matches(row, l.RowKindLayout) {
			continue
		}
		if row.Len() < l.MinFields {
			diagnostics = append(diagnostics, newDiagnostic(KindTrain, table, row, shortRow(row, l.RowKindLayout)))
			continue
		}

		number, err := parseTrainNumber(row.Field(l.Number))
		if err != nil {
			diagnostics = append(diagnostics, newDiagnostic(KindTrain, table, row, err))
			continue
		}

		class, _, _ := strings.Cut(row.Field(l.Name), " ")
		train := models.Train{
			Number: number,
			Class:  class,
			Remark: row.Field(l.Remark),
		}
		if domain.PutTrain(train) {
			logger.Warn("train %d redefined in %s#%d", number, table.Name, row.Number)
		}
	}

	return diagnostics
}

func loadTimetables(table *models.Table, domain *models.Domain, layout Layout) []Diagnostic {
	l := layout.Timetable
	var diagnostics []Diagnostic

	for _, row := range table.Rows {
		if !matches(row, l.RowKindLayout) {
			continue
		}
		if row.Len() < l.MinFields {
			diagnostics = append(diagnostics, newDiagnostic(KindTimetable, table, row, shortRow(row, l.RowKindLayout)))
			continue
		}

		number, err := parseTrainNumber(row.Field(l.Train))
		if err != nil {
			diagnostics = append(diagnostics, newDiagnostic(KindTimetable, table, row, err))
			continue
		}

		entry := models.TimetableEntry{
			Train:     number,
			Station:   row.Field(l.Station),
			Track:     row.Field(l.Track),
			Arrival:   row.Field(l.Arrival),
			Departure: row.Field(l.Departure),
			Remark:    row.Field(l.Remark),
		}
		if !domain.AddEntry(entry) {
			reason := fmt.Errorf("%w: %d", ErrUnknownTrain, number)
			diagnostics = append(diagnostics, newDiagnostic(KindTimetable, table, row, reason))
		}
	}

	return diagnostics
}

// parseTrainNumber parses a non-negative decimal train number.
func parseTrainNumber(raw string) (int, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return int(n), nil
}
