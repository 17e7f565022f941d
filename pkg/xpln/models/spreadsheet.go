// Package models defines data structures for timetable extraction.
package models

// Row represents a single spreadsheet row.
type Row struct {
	// Number is the row position within its table (0-based).
	Number int `json:"number"`
	// Values holds the cell values with the trailing run of empty cells removed.
	// It always contains at least one value.
	Values []string `json:"values"`
}

// Field returns the value at index i, or "" when the row is shorter than i+1.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// Len returns the number of values in the row.
func (r Row) Len() int {
	return len(r.Values)
}

// Table represents a named sheet of rows.
type Table struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Rows contains the rows in document order.
	Rows []Row `json:"rows"`
}

// Columns returns the length of the longest row.
func (t *Table) Columns() int {
	n := 0
	for _, row := range t.Rows {
		if len(row.Values) > n {
			n = len(row.Values)
		}
	}
	return n
}

// Spreadsheet is the parsed tabular content of a document.
type Spreadsheet struct {
	// Tables contains the tables in document order.
	Tables []Table `json:"tables"`
}

// Table returns the first table with the given name.
func (s *Spreadsheet) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// TableNames returns the table names in document order.
func (s *Spreadsheet) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// TrimRow removes the trailing run of empty values. A row without any
// non-empty value is reduced to a single empty value.
func TrimRow(values []string) []string {
	last := 0
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != "" {
			last = i
			break
		}
	}
	if len(values) == 0 {
		return []string{""}
	}
	return values[:last+1]
}
