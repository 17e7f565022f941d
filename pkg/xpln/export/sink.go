package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// DirSink writes each output as a file in Dir. Dir must exist.
type DirSink struct {
	Dir string
}

// Create creates or truncates the named file in the sink directory.
func (s DirSink) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(s.Dir, name))
}

// FileName turns a station name into a portable file name stem.
func FileName(station string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(station))

	if name == "" || name == "." || name == ".." {
		return "_" + name
	}
	return name
}

// fileNames assigns every station a distinct file name, numbering
// stations whose names collide after sanitizing.
func fileNames(stations []*models.Station, ext string) map[string]string {
	result := make(map[string]string, len(stations))
	used := make(map[string]bool, len(stations))
	for _, s := range stations {
		stem := FileName(s.Name)
		name := stem + ext
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}
		used[strings.ToLower(name)] = true
		result[s.Name] = name
	}
	return result
}
