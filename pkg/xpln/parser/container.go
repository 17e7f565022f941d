package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
)

// Source is a container exposing named entries.
type Source interface {
	// Open returns a reader for the named entry. It fails with
	// ErrMissingEntry when the entry does not exist.
	Open(name string) (io.ReadCloser, error)
}

// Archive is a Source backed by a zip archive.
type Archive struct {
	files  map[string]*zip.File
	closer io.Closer
}

// OpenArchive opens the zip archive at path.
func OpenArchive(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	a := newArchive(&r.Reader)
	a.closer = r
	return a, nil
}

// NewArchive reads a zip archive of the given size from r.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return newArchive(zr), nil
}

func newArchive(zr *zip.Reader) *Archive {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return &Archive{files: files}
}

// Open returns a reader for the named entry.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntry, name)
	}
	return f.Open()
}

// Names returns the entry names in lexical order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func readEntry(src Source, name string) ([]byte, error) {
	rc, err := src.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
