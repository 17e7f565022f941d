// Package output renders schedules, tables and reports.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// Column widths of the station text format.
const (
	TrainWidth = 10
	TrackWidth = 4
)

// TextRenderer writes one tab-delimited line per stop:
// arrival, departure, padded train name, padded track, remark.
type TextRenderer struct{}

// Extension returns ".txt".
func (TextRenderer) Extension() string {
	return ".txt"
}

// Render writes the stops of a station.
func (TextRenderer) Render(w io.Writer, _ *models.Station, stops []models.ScheduledStop) error {
	bw := bufio.NewWriter(w)
	for _, stop := range stops {
		line := fmt.Sprintf("%s\t%s\t%-*s\t%-*s\t%s",
			stop.Arrival, stop.Departure,
			TrainWidth, stop.TrainName,
			TrackWidth, stop.Track,
			stop.Remark)
		if _, err := fmt.Fprintln(bw, strings.TrimRight(line, " \t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}
