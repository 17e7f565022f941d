package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/xpln-go/internal/odstest"
	"github.com/ukaji3/xpln-go/pkg/xpln/output"
	"github.com/ukaji3/xpln-go/pkg/xpln/store"
)

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XPLN_DB", "")
	t.Setenv("XPLN_LAYOUT", "")

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_TextOutput(t *testing.T) {
	dir := t.TempDir()
	input := odstest.Write(t, dir, "plan.ods", odstest.Plan()...)
	outDir := filepath.Join(dir, "out")

	stdout, stderr, err := execute(t, input, "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 2 station files to "+outDir)
	assert.Contains(t, stderr, "1 rows skipped")

	tal, err := os.ReadFile(filepath.Join(outDir, "Tal.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(tal)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "07:30\t07:32\tIC 2"))
	assert.True(t, strings.HasPrefix(lines[2], "09:15\t09:16\tRB 3"))

	_, err = os.Stat(filepath.Join(outDir, "Nowhere.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	input := odstest.Write(t, dir, "plan.ods", odstest.Plan()...)
	outDir := filepath.Join(dir, "out")

	_, _, err := execute(t, input, "-o", outDir, "--format", "json", "--pretty")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "Berg.json"))
	require.NoError(t, err)
	var view output.StationView
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "Berg", view.Station.Name)
	require.Len(t, view.Stops, 1)
	assert.Equal(t, "RE 1", view.Stops[0].TrainName)
}

func TestRun_Report(t *testing.T) {
	dir := t.TempDir()
	input := odstest.Write(t, dir, "plan.ods", odstest.Plan()...)
	reportFile := filepath.Join(dir, "reports", "skipped.txt")

	_, stderr, err := execute(t, input, "-o", filepath.Join(dir, "out"), "--report", reportFile)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "rows skipped")

	report, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	assert.Contains(t, string(report), "timetable Trains#8")
	assert.Contains(t, string(report), "1 rows skipped")

	stdout, _, err := execute(t, input, "-o", filepath.Join(dir, "out"), "--report", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unknown train")
}

func TestRun_Dumps(t *testing.T) {
	dir := t.TempDir()
	input := odstest.Write(t, dir, "plan.ods", odstest.Plan()...)

	stdout, _, err := execute(t, input, "-o", filepath.Join(dir, "out"),
		"--dump-tables", "--dump-domain", "--summary")
	require.NoError(t, err)

	assert.Contains(t, stdout, " StationTrack (6:8) ")
	assert.Contains(t, stdout, " Trains (9:11) ")
	assert.Contains(t, stdout, "Trains:\n")
	assert.Contains(t, stdout, "STATION")
}

func TestRun_Database(t *testing.T) {
	dir := t.TempDir()
	input := odstest.Write(t, dir, "plan.ods", odstest.Plan()...)
	dbPath := filepath.Join(dir, "runs.db")

	stdout, _, err := execute(t, input, "-o", filepath.Join(dir, "out"), "--db", "sqlite:"+dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved run ")

	s, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, filepath.IsAbs(runs[0].Source))

	domain, err := s.LoadDomain(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, domain.TrainCount())
}

func TestRun_Layout(t *testing.T) {
	dir := t.TempDir()
	tables := odstest.Plan()
	tables[0].Name = "Bahnhoefe"
	input := odstest.Write(t, dir, "plan.ods", tables...)

	layoutFile := filepath.Join(dir, "layout.toml")
	require.NoError(t, os.WriteFile(layoutFile, []byte("station_table = \"Bahnhoefe\"\n"), 0644))

	stdout, _, err := execute(t, input, "-o", filepath.Join(dir, "out"), "--layout", layoutFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 2 station files")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	input := odstest.Write(t, dir, "plan.ods", odstest.Plan()...)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"missing file", []string{filepath.Join(dir, "none.ods")}, "file not found"},
		{"bad format", []string{input, "--format", "xml"}, "invalid format"},
		{"bad layout", []string{input, "--layout", filepath.Join(dir, "none.toml")}, "loading layout"},
		{"no args", []string{}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append(tt.args, "-o", filepath.Join(dir, "out"))...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestIsInputChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "plan.ods")

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: target, Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(dir, "other.ods"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isInputChange(tt.event, target))
		})
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.ods")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() error {
			calls.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchFile did not stop after cancel")
	}
}
