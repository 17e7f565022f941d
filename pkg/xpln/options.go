// Package xpln reads railway timetable spreadsheets and exports
// per-station schedules.
package xpln

import "github.com/ukaji3/xpln-go/pkg/xpln/loader"

// Format selects the input container.
type Format string

const (
	// FormatAuto picks the format from the file extension.
	FormatAuto Format = "auto"
	// FormatODS reads an OpenDocument spreadsheet.
	FormatODS Format = "ods"
	// FormatXLSX reads an Office Open XML workbook.
	FormatXLSX Format = "xlsx"
)

// Options configures extraction behavior.
type Options struct {
	// Format specifies the input format (auto, ods, xlsx).
	Format Format
	// Layout describes where the loader finds its fields.
	// If nil, loader.DefaultLayout is used.
	Layout *loader.Layout
	// Concurrency limits how many stations are exported at once.
	// Zero or less means no limit.
	Concurrency int
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Format:      FormatAuto,
		Concurrency: 4,
	}
}

// layout returns the configured layout or the default one.
func (o Options) layout() loader.Layout {
	if o.Layout != nil {
		return *o.Layout
	}
	return loader.DefaultLayout()
}
