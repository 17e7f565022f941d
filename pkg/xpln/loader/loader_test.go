package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

func newTable(name string, rows ...[]string) models.Table {
	tbl := models.Table{Name: name}
	for i, values := range rows {
		tbl.Rows = append(tbl.Rows, models.Row{Number: i, Values: models.TrimRow(values)})
	}
	return tbl
}

func newSheet(stations, trains models.Table) *models.Spreadsheet {
	return &models.Spreadsheet{Tables: []models.Table{stations, trains}}
}

func stationRow(name, remark string) []string {
	return []string{name, "", "", "", remark, "Station"}
}

func trackRow(station, track, owner string) []string {
	return []string{station, "", "", "", "", "Track", track, owner, "Track"}
}

func traindefRow(number, name, remark string) []string {
	return []string{number, "", "", "", "", "", "", "", "traindef", name, remark}
}

func timetableRow(number, station, track, arrival, departure, remark string) []string {
	return []string{number, "", station, track, arrival, departure, "", "", "timetable", "", remark}
}

func TestLoad_StationOwnsTrack(t *testing.T) {
	sheet := newSheet(
		newTable("StationTrack",
			[]string{"A", "", "", "", "Platform A", "Station"},
			[]string{"A", "", "", "", "", "Track", "T1", "Owner1", "Track"},
		),
		newTable("Trains"),
	)

	domain, diags, err := Load(sheet, DefaultLayout())
	require.NoError(t, err)
	assert.Empty(t, diags)

	station, ok := domain.Station("A")
	require.True(t, ok)
	assert.Equal(t, "Platform A", station.Remark)
	require.Len(t, station.Tracks, 1)
	assert.Equal(t, models.Track{Name: "T1", Owner: "Owner1", Station: "A"}, station.Tracks[0])
}

func TestLoad_TrainsAndTimetables(t *testing.T) {
	sheet := newSheet(
		newTable("StationTrack", stationRow("Berg", ""), stationRow("Tal", "")),
		newTable("Trains",
			// An entry may precede its traindef row; definitions load first.
			timetableRow("42", "Tal", "2", "08:10", "08:12", ""),
			traindefRow("42", "IC Express", "daily"),
			timetableRow("42", "Berg", "1", "08:00", "08:01", "first stop"),
			traindefRow("7", "RB", ""),
		),
	)

	domain, diags, err := Load(sheet, DefaultLayout())
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, 2, domain.TrainCount())

	train, ok := domain.Train(42)
	require.True(t, ok)
	assert.Equal(t, "IC", train.Class)
	assert.Equal(t, "daily", train.Remark)
	assert.Equal(t, "IC 42", train.Name())

	require.Len(t, train.Timetable, 2)
	assert.Equal(t, "Tal", train.Timetable[0].Station)
	assert.Equal(t, "", train.Timetable[0].Remark)
	assert.Equal(t, models.TimetableEntry{
		Train: 42, Station: "Berg", Track: "1", Arrival: "08:00", Departure: "08:01", Remark: "first stop",
	}, train.Timetable[1])

	rb, ok := domain.Train(7)
	require.True(t, ok)
	assert.Equal(t, "RB 7", rb.Name())
	assert.Empty(t, rb.Timetable)
}

func TestLoad_UnknownTrainDropped(t *testing.T) {
	sheet := newSheet(
		newTable("StationTrack", stationRow("A", "")),
		newTable("Trains",
			timetableRow("42", "A", "1", "08:00", "08:01", ""),
			traindefRow("1", "RE", ""),
		),
	)

	domain, diags, err := Load(sheet, DefaultLayout())
	require.NoError(t, err)

	_, ok := domain.Train(42)
	assert.False(t, ok, "train 42 must not be created implicitly")

	require.Len(t, diags, 1)
	assert.Equal(t, KindTimetable, diags[0].Kind)
	assert.Equal(t, "Trains", diags[0].Table)
	assert.Equal(t, 0, diags[0].Row)
	assert.Equal(t, "42", diags[0].Values[0])
	assert.ErrorIs(t, diags[0], ErrUnknownTrain)
}

func TestLoad_ReferentialIntegrity(t *testing.T) {
	sheet := newSheet(
		newTable("StationTrack", stationRow("A", "")),
		newTable("Trains",
			traindefRow("1", "RE 1", ""),
			traindefRow("2", "RB 2", ""),
			timetableRow("1", "A", "1", "07:00", "07:01", ""),
			timetableRow("2", "A", "1", "07:30", "07:31", ""),
			timetableRow("3", "A", "1", "08:00", "08:01", ""),
			timetableRow("2", "B", "1", "08:30", "08:31", ""),
		),
	)

	domain, diags, err := Load(sheet, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, diags, 1)

	count := 0
	for _, train := range domain.Trains() {
		for _, entry := range train.Timetable {
			assert.Equal(t, train.Number, entry.Train)
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestLoad_StationOrderIndependence(t *testing.T) {
	orders := [][][]string{
		{stationRow("North", "n"), stationRow("South", "s")},
		{stationRow("South", "s"), stationRow("North", "n")},
	}

	for _, rows := range orders {
		domain, _, err := Load(newSheet(newTable("StationTrack", rows...), newTable("Trains")), DefaultLayout())
		require.NoError(t, err)

		north, ok := domain.Station("North")
		require.True(t, ok)
		assert.Equal(t, "n", north.Remark)

		south, ok := domain.Station("South")
		require.True(t, ok)
		assert.Equal(t, "s", south.Remark)
	}
}

func TestLoad_RowDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		stations [][]string
		trains   [][]string
		kind     RowKind
		expected error
	}{
		{
			name:     "track with unknown station",
			stations: [][]string{stationRow("A", ""), trackRow("B", "T1", "")},
			kind:     KindTrack,
			expected: ErrUnknownStation,
		},
		{
			name:     "short track row",
			stations: [][]string{stationRow("A", ""), {"A", "", "", "", "", "Track"}},
			kind:     KindTrack,
			expected: ErrShortRow,
		},
		{
			name:     "non-numeric traindef",
			trains:   [][]string{traindefRow("IC42", "IC", "")},
			kind:     KindTrain,
			expected: ErrInvalidNumber,
		},
		{
			name:     "negative traindef",
			trains:   [][]string{traindefRow("-1", "IC", "")},
			kind:     KindTrain,
			expected: ErrInvalidNumber,
		},
		{
			name:     "traindef without name",
			trains:   [][]string{{"1", "", "", "", "", "", "", "", "traindef"}},
			kind:     KindTrain,
			expected: ErrShortRow,
		},
		{
			name:     "non-numeric timetable",
			trains:   [][]string{timetableRow("x", "A", "1", "08:00", "08:01", "")},
			kind:     KindTimetable,
			expected: ErrInvalidNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := newSheet(newTable("StationTrack", tt.stations...), newTable("Trains", tt.trains...))

			_, diags, err := Load(sheet, DefaultLayout())
			require.NoError(t, err)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.kind, diags[0].Kind)
			assert.True(t, errors.Is(diags[0].Reason, tt.expected), "reason %v", diags[0].Reason)
		})
	}
}

func TestLoad_UnrelatedRowsIgnored(t *testing.T) {
	sheet := newSheet(
		newTable("StationTrack",
			[]string{"Name", "", "", "", "Remark", "Type"},
			[]string{""},
			[]string{"Station"},
			stationRow("A", ""),
		),
		newTable("Trains",
			[]string{"Number", "", "", "", "", "", "", "", "Kind", "Name"},
			[]string{"1", "traindef"},
		),
	)

	domain, diags, err := Load(sheet, DefaultLayout())
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, 1, domain.StationCount())
	assert.Equal(t, 0, domain.TrainCount())
}

func TestLoad_DuplicateKeysOverwrite(t *testing.T) {
	sheet := newSheet(
		newTable("StationTrack",
			stationRow("A", "old"),
			stationRow("A", "new"),
			trackRow("A", "T1", ""),
		),
		newTable("Trains",
			traindefRow("5", "RE old", ""),
			traindefRow("5", "IC new", ""),
		),
	)

	domain, _, err := Load(sheet, DefaultLayout())
	require.NoError(t, err)

	station, _ := domain.Station("A")
	assert.Equal(t, "new", station.Remark)
	assert.Len(t, station.Tracks, 1)

	train, _ := domain.Train(5)
	assert.Equal(t, "IC", train.Class)
}

func TestLoad_MissingTable(t *testing.T) {
	tests := []struct {
		name   string
		tables []models.Table
	}{
		{"no station table", []models.Table{newTable("Trains")}},
		{"no train table", []models.Table{newTable("StationTrack")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, diags, err := Load(&models.Spreadsheet{Tables: tt.tables}, DefaultLayout())
			assert.ErrorIs(t, err, ErrMissingTable)
			assert.Nil(t, domain)
			assert.Nil(t, diags)
		})
	}
}

func TestLoad_InvalidLayout(t *testing.T) {
	layout := DefaultLayout()
	layout.Track.Marker = ""

	_, _, err := Load(newSheet(newTable("StationTrack"), newTable("Trains")), layout)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestPasses_DefinitionsBeforeReferences(t *testing.T) {
	layout := DefaultLayout()
	stations := newTable("StationTrack", stationRow("A", ""), trackRow("A", "T1", ""))
	trains := newTable("Trains", traindefRow("1", "RE", ""), timetableRow("1", "A", "1", "08:00", "08:01", ""))

	// Running reference passes first drops every reference.
	domain := models.NewDomain()
	assert.Len(t, loadTracks(&stations, domain, layout), 1)
	assert.Len(t, loadTimetables(&trains, domain, layout), 1)

	// In load order the same rows resolve.
	domain = models.NewDomain()
	assert.Empty(t, loadStations(&stations, domain, layout))
	assert.Empty(t, loadTracks(&stations, domain, layout))
	assert.Empty(t, loadTrains(&trains, domain, layout))
	assert.Empty(t, loadTimetables(&trains, domain, layout))

	train, _ := domain.Train(1)
	assert.Len(t, train.Timetable, 1)
}

func TestDiagnostic_Error(t *testing.T) {
	d := Diagnostic{
		Kind:   KindTrack,
		Table:  "StationTrack",
		Row:    3,
		Values: []string{"B", "T1"},
		Reason: ErrUnknownStation,
	}
	assert.Equal(t, "track StationTrack#3: unknown station [B | T1]", d.Error())
}
