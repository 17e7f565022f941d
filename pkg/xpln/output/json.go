package output

import (
	"encoding/json"
	"io"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// ToJSON serializes v as JSON.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// StationView is the JSON document written per station.
type StationView struct {
	Station *models.Station        `json:"station"`
	Stops   []models.ScheduledStop `json:"stops"`
}

// JSONRenderer writes one JSON document per station.
type JSONRenderer struct {
	Pretty bool
}

// Extension returns ".json".
func (JSONRenderer) Extension() string {
	return ".json"
}

// Render writes the station with its sorted stops.
func (r JSONRenderer) Render(w io.Writer, station *models.Station, stops []models.ScheduledStop) error {
	if stops == nil {
		stops = []models.ScheduledStop{}
	}
	data, err := ToJSON(StationView{Station: station, Stops: stops}, r.Pretty)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
