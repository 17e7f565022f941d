// Package odstest writes small OpenDocument spreadsheets for tests.
package odstest

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Table is a fixture table. Cells are written one table-cell each.
type Table struct {
	Name string
	Rows [][]string
}

// Content renders tables as an OpenDocument content.xml document.
func Content(tables ...Table) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<office:document-content ` +
		`xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
		`xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" ` +
		`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">`)
	b.WriteString(`<office:body><office:spreadsheet>`)
	for _, t := range tables {
		b.WriteString(`<table:table table:name="`)
		xml.EscapeText(&b, []byte(t.Name))
		b.WriteString(`">`)
		for _, row := range t.Rows {
			b.WriteString(`<table:table-row>`)
			for _, v := range row {
				if v == "" {
					b.WriteString(`<table:table-cell/>`)
					continue
				}
				b.WriteString(`<table:table-cell><text:p>`)
				xml.EscapeText(&b, []byte(v))
				b.WriteString(`</text:p></table:table-cell>`)
			}
			b.WriteString(`</table:table-row>`)
		}
		b.WriteString(`</table:table>`)
	}
	b.WriteString(`</office:spreadsheet></office:body></office:document-content>`)
	return b.String()
}

// Write creates dir/name as an .ods archive holding tables.
func Write(t testing.TB, dir, name string, tables ...Table) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	entries := []struct{ name, data string }{
		{"mimetype", "application/vnd.oasis.opendocument.spreadsheet"},
		{"content.xml", Content(tables...)},
	}
	for _, e := range entries {
		ew, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("creating entry %s: %v", e.name, err)
		}
		if _, err := ew.Write([]byte(e.data)); err != nil {
			t.Fatalf("writing entry %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return path
}

// StationRow builds a station row for the default layout.
func StationRow(name, remark string) []string {
	return []string{name, "", "", "", remark, "Station"}
}

// TrackRow builds a track row for the default layout.
func TrackRow(station, name, owner string) []string {
	return []string{station, "", "", "", "", "Track", name, owner}
}

// TrainRow builds a traindef row for the default layout.
func TrainRow(number, name, remark string) []string {
	return []string{number, "", "", "", "", "", "", "", "traindef", name, remark}
}

// EntryRow builds a timetable row for the default layout.
func EntryRow(train, station, track, arrival, departure, remark string) []string {
	return []string{train, "", station, track, arrival, departure, "", "", "timetable", "", remark}
}

// Plan returns a two-station plan with three trains, one of them
// stopping at an unknown station, plus one timetable row for an
// undefined train.
func Plan() []Table {
	return []Table{
		{Name: "StationTrack", Rows: [][]string{
			{"Name", "", "", "", "Remark", "Kind"},
			StationRow("Tal", "junction"),
			TrackRow("Tal", "1", "DB"),
			TrackRow("Tal", "2", "DB"),
			StationRow("Berg", ""),
			TrackRow("Berg", "1", "SBB"),
		}},
		{Name: "Trains", Rows: [][]string{
			TrainRow("1", "RE 1", "daily"),
			TrainRow("2", "IC 2", ""),
			TrainRow("3", "RB 3", ""),
			EntryRow("1", "Tal", "1", "08:00", "08:02", ""),
			EntryRow("1", "Berg", "1", "08:30", "08:31", "end"),
			EntryRow("2", "Tal", "2", "07:30", "07:32", ""),
			EntryRow("3", "Tal", "1", "09:15", "09:16", ""),
			EntryRow("3", "Nowhere", "", "10:00", "10:01", ""),
			EntryRow("9", "Tal", "1", "11:00", "11:01", ""),
		}},
	}
}
