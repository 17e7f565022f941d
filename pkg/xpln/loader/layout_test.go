package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultLayout_Valid(t *testing.T) {
	layout := DefaultLayout()
	require.NoError(t, layout.Validate())

	assert.Equal(t, "StationTrack", layout.StationTable)
	assert.Equal(t, "Trains", layout.TrainTable)
	assert.Equal(t, "Station", layout.Station.Marker)
	assert.Equal(t, 5, layout.Track.Discriminator)
	assert.Equal(t, 8, layout.Train.Discriminator)
	assert.Equal(t, 10, layout.Timetable.Remark)
}

func TestLoadLayout_PartialOverride(t *testing.T) {
	path := writeLayout(t, `
train_table = "Fahrplan"

[timetable]
marker = "halt"
arrival = 6
departure = 7
`)

	layout, err := LoadLayout(path)
	require.NoError(t, err)

	assert.Equal(t, "Fahrplan", layout.TrainTable)
	assert.Equal(t, "halt", layout.Timetable.Marker)
	assert.Equal(t, 6, layout.Timetable.Arrival)
	assert.Equal(t, 7, layout.Timetable.Departure)

	// Untouched keys keep their defaults
	assert.Equal(t, "StationTrack", layout.StationTable)
	assert.Equal(t, 8, layout.Timetable.Discriminator)
	assert.Equal(t, DefaultLayout().Station, layout.Station)
}

func TestLoadLayout_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "stations_table = \"X\"\n"},
		{"malformed", "train_table = \n"},
		{"empty marker", "[station]\nmarker = \"\"\n"},
		{"discriminator beyond min fields", "[track]\ndiscriminator = 9\n"},
		{"negative offset", "[traindef]\nname = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLayout(writeLayout(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestLoadLayout_MissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
