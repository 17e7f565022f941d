// Package parser reads OpenDocument and xlsx spreadsheets into tables.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// OpenDocument container entries and identifiers.
const (
	MimetypeEntry   = "mimetype"
	ContentEntry    = "content.xml"
	SpreadsheetMime = "application/vnd.oasis.opendocument.spreadsheet"
)

// Element and attribute local names of the table structure.
const (
	elemTable       = "table"
	elemRow         = "table-row"
	elemCell        = "table-cell"
	attrName        = "name"
	attrRepeatCells = "number-columns-repeated"
)

// ParseFile parses the OpenDocument spreadsheet at path.
func ParseFile(path string) (*models.Spreadsheet, error) {
	archive, err := OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	return Parse(archive)
}

// Parse validates the mimetype entry of src and parses its content entry.
func Parse(src Source) (*models.Spreadsheet, error) {
	mime, err := readEntry(src, MimetypeEntry)
	if err != nil {
		return nil, err
	}
	if string(mime) != SpreadsheetMime {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMimetype, string(mime))
	}

	content, err := src.Open(ContentEntry)
	if err != nil {
		return nil, err
	}
	defer content.Close()

	return ParseEvents(NewXMLEvents(content))
}

type stateKind int

const (
	stateBottom stateKind = iota
	stateTable
	stateRow
	stateCell
)

func (k stateKind) String() string {
	switch k {
	case stateTable:
		return elemTable
	case stateRow:
		return elemRow
	case stateCell:
		return elemCell
	default:
		return "document"
	}
}

// state is one frame of the nesting stack. repeat is only set for cells.
type state struct {
	kind   stateKind
	repeat int
}

// tableParser accumulates tables while events are fed through it.
type tableParser struct {
	stack []state

	sheet     models.Spreadsheet
	tableName string
	rows      []models.Row
	values    []string
	// empties counts empty cells not yet appended to values; they are
	// dropped if no non-empty cell follows them in the row.
	empties int
	text    strings.Builder
}

// ParseEvents builds a Spreadsheet from a stream of structural events.
// Unbalanced elements at end of stream are tolerated; the tables completed
// so far are returned.
func ParseEvents(events EventSource) (*models.Spreadsheet, error) {
	p := &tableParser{stack: []state{{kind: stateBottom}}}

	for {
		ev := events.Next()
		switch ev.Kind {
		case EventStart:
			if err := p.start(ev); err != nil {
				return nil, err
			}
		case EventEnd:
			if err := p.end(ev.Name); err != nil {
				return nil, err
			}
		case EventText:
			if p.top().kind == stateCell {
				p.text.WriteString(ev.Text)
			}
		case EventError:
			return nil, &XMLError{Err: ev.Err}
		case EventEOF:
			return &p.sheet, nil
		}
	}
}

func (p *tableParser) top() state {
	return p.stack[len(p.stack)-1]
}

func (p *tableParser) push(s state) {
	p.stack = append(p.stack, s)
}

func (p *tableParser) pop(kind stateKind, name string) (state, error) {
	top := p.top()
	if top.kind != kind {
		return top, p.errorAt(name, fmt.Errorf("%w: </%s> inside %s", ErrUnbalancedElement, name, top.kind))
	}
	p.stack = p.stack[:len(p.stack)-1]
	return top, nil
}

func (p *tableParser) require(kind stateKind, name string) error {
	if top := p.top(); top.kind != kind {
		return p.errorAt(name, fmt.Errorf("%w: <%s> inside %s", ErrUnexpectedElement, name, top.kind))
	}
	return nil
}

func (p *tableParser) errorAt(element string, err error) error {
	row := -1
	if p.top().kind == stateRow || p.top().kind == stateCell {
		row = len(p.rows)
	}
	return &ParseError{Table: p.tableName, Row: row, Element: element, Err: err}
}

func (p *tableParser) start(ev Event) error {
	switch ev.Name {
	case elemTable:
		if err := p.require(stateBottom, ev.Name); err != nil {
			return err
		}
		name, ok := ev.Attr(attrName)
		if !ok {
			return p.errorAt(ev.Name, ErrMissingTableName)
		}
		p.tableName = name
		p.rows = nil
		p.push(state{kind: stateTable})
	case elemRow:
		if err := p.require(stateTable, ev.Name); err != nil {
			return err
		}
		p.values = nil
		p.empties = 0
		p.push(state{kind: stateRow})
	case elemCell:
		if err := p.require(stateRow, ev.Name); err != nil {
			return err
		}
		repeat := 1
		if raw, ok := ev.Attr(attrRepeatCells); ok {
			n, err := strconv.ParseUint(raw, 10, 31)
			if err != nil {
				return p.errorAt(ev.Name, fmt.Errorf("%w: %q", ErrInvalidRepeatCount, raw))
			}
			repeat = int(n)
		}
		p.text.Reset()
		p.push(state{kind: stateCell, repeat: repeat})
	}
	return nil
}

func (p *tableParser) end(name string) error {
	switch name {
	case elemCell:
		cell, err := p.pop(stateCell, name)
		if err != nil {
			return err
		}
		p.appendCell(p.text.String(), cell.repeat)
		p.text.Reset()
	case elemRow:
		if _, err := p.pop(stateRow, name); err != nil {
			return err
		}
		p.rows = append(p.rows, models.Row{
			Number: len(p.rows),
			Values: models.TrimRow(p.values),
		})
		p.values = nil
		p.empties = 0
	case elemTable:
		if _, err := p.pop(stateTable, name); err != nil {
			return err
		}
		p.sheet.Tables = append(p.sheet.Tables, models.Table{Name: p.tableName, Rows: p.rows})
		p.tableName = ""
		p.rows = nil
	}
	return nil
}

func (p *tableParser) appendCell(value string, repeat int) {
	if value == "" {
		p.empties += repeat
		return
	}
	if repeat == 0 {
		return
	}
	for ; p.empties > 0; p.empties-- {
		p.values = append(p.values, "")
	}
	for i := 0; i < repeat; i++ {
		p.values = append(p.values, value)
	}
}
