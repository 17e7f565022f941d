package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// WriteTable dumps a table as a framed grid:
//
//	===== Trains (2:3) =====
//	| 1 | a  |   |
//	| 2 | bc | d |
//	========================
func WriteTable(w io.Writer, table *models.Table) error {
	numCols := table.Columns()
	widths := columnWidths(table.Rows, numCols)

	width := 1
	for _, l := range widths {
		width += l + 3
	}
	headline := fmt.Sprintf(" %s (%d:%d) ", table.Name, len(table.Rows), numCols)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, center(headline, '=', width))
	for _, row := range table.Rows {
		bw.WriteString("|")
		for col := 0; col < numCols; col++ {
			value := row.Field(col)
			fmt.Fprintf(bw, " %s%s |", value, strings.Repeat(" ", widths[col]-utf8.RuneCountInString(value)))
		}
		bw.WriteString("\n")
	}
	fmt.Fprintln(bw, strings.Repeat("=", width))
	return bw.Flush()
}

// columnWidths returns the widest value per column, in runes.
func columnWidths(rows []models.Row, numCols int) []int {
	widths := make([]int, numCols)
	for _, row := range rows {
		for col, value := range row.Values {
			if n := utf8.RuneCountInString(value); n > widths[col] {
				widths[col] = n
			}
		}
	}
	return widths
}

// center pads s with fill to width, putting the odd fill rune on the right.
func center(s string, fill rune, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), pad-left)
}

// WriteDomain lists stations by name and trains by number.
func WriteDomain(w io.Writer, domain *models.Domain) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Stations:")
	for _, s := range domain.Stations() {
		fmt.Fprintf(bw, "  %3s : %s\n", s.Name, s.Remark)
		for _, t := range s.Tracks {
			fmt.Fprintf(bw, "        track %s %s\n", t.Name, t.Owner)
		}
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Trains:")
	for _, t := range domain.Trains() {
		fmt.Fprintf(bw, "  %3s %4d : %s (%d stops)\n", t.Class, t.Number, t.Remark, len(t.Timetable))
	}
	return bw.Flush()
}
