package xpln

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnsupportedFormat indicates the input is neither ods nor xlsx.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Stage names the pipeline step that failed.
type Stage string

const (
	StageOpen   Stage = "open"
	StageParse  Stage = "parse"
	StageLoad   Stage = "load"
	StageExport Stage = "export"
)

// StageError represents a fatal error in one pipeline step.
type StageError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(path string, stage Stage, err error) *StageError {
	return &StageError{
		Path:  path,
		Stage: stage,
		Err:   err,
	}
}
