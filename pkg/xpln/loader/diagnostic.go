package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// Row-level reasons. A row failing with one of these is skipped and the
// pass continues.
var (
	// ErrShortRow indicates a row carrying a kind marker but too few fields.
	ErrShortRow = errors.New("row too short")
	// ErrInvalidNumber indicates a train number that is not a decimal integer.
	ErrInvalidNumber = errors.New("invalid train number")
	// ErrUnknownStation indicates a track referencing an undefined station.
	ErrUnknownStation = errors.New("unknown station")
	// ErrUnknownTrain indicates a timetable entry referencing an undefined train.
	ErrUnknownTrain = errors.New("unknown train")
)

// RowKind names the entity kind a row was presumed to describe.
type RowKind string

const (
	KindStation   RowKind = "station"
	KindTrack     RowKind = "track"
	KindTrain     RowKind = "traindef"
	KindTimetable RowKind = "timetable"
)

// Diagnostic records a row that was skipped during loading.
type Diagnostic struct {
	Kind   RowKind  `json:"kind"`
	Table  string   `json:"table"`
	Row    int      `json:"row"`
	Values []string `json:"values"`
	Reason error    `json:"-"`
}

func newDiagnostic(kind RowKind, table *models.Table, row models.Row, reason error) Diagnostic {
	return Diagnostic{
		Kind:   kind,
		Table:  table.Name,
		Row:    row.Number,
		Values: append([]string(nil), row.Values...),
		Reason: reason,
	}
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s %s#%d: %v [%s]", d.Kind, d.Table, d.Row, d.Reason, strings.Join(d.Values, " | "))
}

func (d Diagnostic) Unwrap() error {
	return d.Reason
}
