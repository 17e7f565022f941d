package parser

import (
	"errors"
	"fmt"
)

// ErrInvalidMimetype indicates the container is not an OpenDocument spreadsheet.
var ErrInvalidMimetype = errors.New("invalid mimetype")

// ErrMissingEntry indicates a required container entry does not exist.
var ErrMissingEntry = errors.New("missing entry")

// ErrMissingTableName indicates a table element without a name attribute.
var ErrMissingTableName = errors.New("table without name attribute")

// ErrInvalidRepeatCount indicates a non-numeric number-columns-repeated attribute.
var ErrInvalidRepeatCount = errors.New("number-columns-repeated is not a valid number")

// ErrUnexpectedElement indicates a start element where the nesting forbids it.
var ErrUnexpectedElement = errors.New("unexpected element")

// ErrUnbalancedElement indicates an end element that does not close the current state.
var ErrUnbalancedElement = errors.New("unbalanced end element")

// ParseError represents a structural error while parsing spreadsheet content.
type ParseError struct {
	Table   string // table being parsed, if any
	Row     int    // 0-based row within Table, or -1
	Element string // local name of the offending element, if any
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Table == "" && e.Element == "":
		return fmt.Sprintf("parse error: %v", e.Err)
	case e.Table == "":
		return fmt.Sprintf("parse error at <%s>: %v", e.Element, e.Err)
	case e.Row < 0:
		return fmt.Sprintf("parse error in table %q at <%s>: %v", e.Table, e.Element, e.Err)
	default:
		return fmt.Sprintf("parse error in table %q row %d at <%s>: %v", e.Table, e.Row, e.Element, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// XMLError wraps a failure reported by the XML event source.
type XMLError struct {
	Err error
}

func (e *XMLError) Error() string {
	return fmt.Sprintf("xml error: %v", e.Err)
}

func (e *XMLError) Unwrap() error {
	return e.Err
}
