package xpln

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ukaji3/xpln-go/internal/logger"
	"github.com/ukaji3/xpln-go/pkg/xpln/export"
	"github.com/ukaji3/xpln-go/pkg/xpln/loader"
	"github.com/ukaji3/xpln-go/pkg/xpln/models"
	"github.com/ukaji3/xpln-go/pkg/xpln/parser"
)

// Result holds everything read from one input file.
type Result struct {
	Path        string
	Spreadsheet *models.Spreadsheet
	Domain      *models.Domain
	Diagnostics []loader.Diagnostic

	concurrency int
}

// Extract opens, parses and loads the timetable at path.
// Row-level problems are reported in Result.Diagnostics, not as an error.
func Extract(path string, opts Options) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, NewStageError(path, StageOpen, err)
	}

	format, err := DetectFormat(path, opts.Format)
	if err != nil {
		return nil, NewStageError(path, StageOpen, err)
	}

	logger.Section("Parsing")
	logger.Debug("reading %s as %s", path, format)
	var sheet *models.Spreadsheet
	switch format {
	case FormatXLSX:
		sheet, err = parser.ParseWorkbook(path)
	default:
		sheet, err = parser.ParseFile(path)
	}
	if err != nil {
		return nil, NewStageError(path, StageParse, err)
	}
	logger.Info("Parsed %d tables", len(sheet.Tables))

	logger.Section("Loading")
	domain, diagnostics, err := loader.Load(sheet, opts.layout())
	if err != nil {
		return nil, NewStageError(path, StageLoad, err)
	}

	return &Result{
		Path:        path,
		Spreadsheet: sheet,
		Domain:      domain,
		Diagnostics: diagnostics,
		concurrency: opts.Concurrency,
	}, nil
}

// DetectFormat resolves FormatAuto from the file extension.
func DetectFormat(path string, format Format) (Format, error) {
	switch format {
	case FormatODS, FormatXLSX:
		return format, nil
	case FormatAuto, "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ods":
		return FormatODS, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Export writes one schedule per station into sink.
func (r *Result) Export(ctx context.Context, sink export.Sink, renderer export.Renderer) error {
	logger.Section("Exporting")
	for _, name := range export.UnknownStations(r.Domain) {
		logger.Warn("timetable references unknown station %q", name)
	}
	err := export.Export(ctx, r.Domain, sink, renderer, export.Options{Concurrency: r.concurrency})
	if err != nil {
		return NewStageError(r.Path, StageExport, err)
	}
	return nil
}
