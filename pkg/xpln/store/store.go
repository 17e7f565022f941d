// Package store persists loaded domains and their diagnostics per run.
//
// A DSN starting with postgres:// or postgresql:// selects PostgreSQL.
// Anything else is a SQLite file path, optionally prefixed with "sqlite:".
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ukaji3/xpln-go/internal/logger"
	"github.com/ukaji3/xpln-go/pkg/xpln/loader"
	"github.com/ukaji3/xpln-go/pkg/xpln/models"
	"github.com/ukaji3/xpln-go/pkg/xpln/store/migrations"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// ErrRunNotFound is returned when a run ID has no stored run.
var ErrRunNotFound = errors.New("run not found")

// Store is a SQL-backed run store.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Run identifies one stored load.
type Run struct {
	ID        uuid.UUID
	Source    string
	CreatedAt time.Time
}

// NewRun creates a run for the given source file with a fresh ID.
func NewRun(source string) Run {
	return Run{ID: uuid.New(), Source: source, CreatedAt: time.Now().UTC()}
}

// DiagnosticRecord is a stored diagnostic. The reason is kept as text.
type DiagnosticRecord struct {
	Kind   string   `json:"kind"`
	Table  string   `json:"table"`
	Row    int      `json:"row"`
	Reason string   `json:"reason"`
	Values []string `json:"values"`
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, source := driverFor(dsn)
	db, err := sqlx.ConnectContext(ctx, driver, source)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func driverFor(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	default:
		path := strings.TrimPrefix(dsn, "sqlite:")
		if !strings.Contains(path, "?") {
			path += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
		return "sqlite", path
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, s.db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		logger.Debug("applied migration %s", name)
	}
	return nil
}

type runRow struct {
	ID        string `db:"id"`
	Source    string `db:"source"`
	CreatedAt string `db:"created_at"`
}

type stationRow struct {
	RunID  string `db:"run_id"`
	Name   string `db:"name"`
	Remark string `db:"remark"`
}

type trackRow struct {
	RunID   string `db:"run_id"`
	Station string `db:"station"`
	Name    string `db:"name"`
	Owner   string `db:"owner"`
	Seq     int    `db:"seq"`
}

type trainRow struct {
	RunID  string `db:"run_id"`
	Number int    `db:"number"`
	Class  string `db:"class"`
	Remark string `db:"remark"`
}

type entryRow struct {
	RunID     string `db:"run_id"`
	Train     int    `db:"train"`
	Seq       int    `db:"seq"`
	Station   string `db:"station"`
	Track     string `db:"track"`
	Arrival   string `db:"arrival"`
	Departure string `db:"departure"`
	Remark    string `db:"remark"`
}

type diagnosticRow struct {
	RunID     string `db:"run_id"`
	Seq       int    `db:"seq"`
	Kind      string `db:"kind"`
	TableName string `db:"table_name"`
	RowIndex  int    `db:"row_index"`
	Reason    string `db:"reason"`
	RowValues string `db:"row_values"`
}

// Save writes a run with its domain and diagnostics in one transaction.
func (s *Store) Save(ctx context.Context, run Run, domain *models.Domain, diagnostics []loader.Diagnostic) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	runID := run.ID.String()
	insert := func(query string, arg any) error {
		_, err := tx.NamedExecContext(ctx, query, arg)
		return err
	}

	if err = insert(`INSERT INTO runs (id, source, created_at) VALUES (:id, :source, :created_at)`,
		runRow{ID: runID, Source: run.Source, CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339Nano)}); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, station := range domain.Stations() {
		if err = insert(`INSERT INTO stations (run_id, name, remark) VALUES (:run_id, :name, :remark)`,
			stationRow{RunID: runID, Name: station.Name, Remark: station.Remark}); err != nil {
			return fmt.Errorf("saving station %q: %w", station.Name, err)
		}
		for i, track := range station.Tracks {
			if err = insert(`INSERT INTO tracks (run_id, station, name, owner, seq) VALUES (:run_id, :station, :name, :owner, :seq)`,
				trackRow{RunID: runID, Station: station.Name, Name: track.Name, Owner: track.Owner, Seq: i}); err != nil {
				return fmt.Errorf("saving track %q at %q: %w", track.Name, station.Name, err)
			}
		}
	}

	for _, train := range domain.Trains() {
		if err = insert(`INSERT INTO trains (run_id, number, class, remark) VALUES (:run_id, :number, :class, :remark)`,
			trainRow{RunID: runID, Number: train.Number, Class: train.Class, Remark: train.Remark}); err != nil {
			return fmt.Errorf("saving train %d: %w", train.Number, err)
		}
		for i, e := range train.Timetable {
			row := entryRow{
				RunID: runID, Train: train.Number, Seq: i,
				Station: e.Station, Track: e.Track,
				Arrival: e.Arrival, Departure: e.Departure, Remark: e.Remark,
			}
			if err = insert(`INSERT INTO timetable_entries (run_id, train, seq, station, track, arrival, departure, remark)
				VALUES (:run_id, :train, :seq, :station, :track, :arrival, :departure, :remark)`, row); err != nil {
				return fmt.Errorf("saving timetable entry %d of train %d: %w", i, train.Number, err)
			}
		}
	}

	for i, d := range diagnostics {
		values, jerr := json.Marshal(d.Values)
		if jerr != nil {
			err = jerr
			return fmt.Errorf("encoding diagnostic values: %w", err)
		}
		reason := ""
		if d.Reason != nil {
			reason = d.Reason.Error()
		}
		row := diagnosticRow{
			RunID: runID, Seq: i, Kind: string(d.Kind), TableName: d.Table,
			RowIndex: d.Row, Reason: reason, RowValues: string(values),
		}
		if err = insert(`INSERT INTO diagnostics (run_id, seq, kind, table_name, row_index, reason, row_values)
			VALUES (:run_id, :seq, :kind, :table_name, :row_index, :reason, :row_values)`, row); err != nil {
			return fmt.Errorf("saving diagnostic %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	logger.Debug("saved run %s: %d stations, %d trains, %d diagnostics",
		runID, domain.StationCount(), domain.TrainCount(), len(diagnostics))
	return nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, source, created_at FROM runs ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT id, source, created_at FROM runs WHERE id = ?"), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("getting run: %w", err)
	}
	return row.toRun()
}

func (r runRow) toRun() (Run, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run id %q: %w", r.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing run time %q: %w", r.CreatedAt, err)
	}
	return Run{ID: id, Source: r.Source, CreatedAt: created}, nil
}

// LoadDomain rebuilds the domain stored for a run.
func (s *Store) LoadDomain(ctx context.Context, id uuid.UUID) (*models.Domain, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	runID := id.String()
	domain := models.NewDomain()

	var stations []stationRow
	if err := s.db.SelectContext(ctx, &stations, s.db.Rebind(
		"SELECT run_id, name, remark FROM stations WHERE run_id = ?"), runID); err != nil {
		return nil, fmt.Errorf("loading stations: %w", err)
	}
	for _, r := range stations {
		domain.PutStation(models.Station{Name: r.Name, Remark: r.Remark})
	}

	var tracks []trackRow
	if err := s.db.SelectContext(ctx, &tracks, s.db.Rebind(
		"SELECT run_id, station, name, owner, seq FROM tracks WHERE run_id = ? ORDER BY station, seq"), runID); err != nil {
		return nil, fmt.Errorf("loading tracks: %w", err)
	}
	for _, r := range tracks {
		domain.AddTrack(models.Track{Station: r.Station, Name: r.Name, Owner: r.Owner})
	}

	var trains []trainRow
	if err := s.db.SelectContext(ctx, &trains, s.db.Rebind(
		"SELECT run_id, number, class, remark FROM trains WHERE run_id = ?"), runID); err != nil {
		return nil, fmt.Errorf("loading trains: %w", err)
	}
	for _, r := range trains {
		domain.PutTrain(models.Train{Number: r.Number, Class: r.Class, Remark: r.Remark})
	}

	var entries []entryRow
	if err := s.db.SelectContext(ctx, &entries, s.db.Rebind(
		`SELECT run_id, train, seq, station, track, arrival, departure, remark
		FROM timetable_entries WHERE run_id = ? ORDER BY train, seq`), runID); err != nil {
		return nil, fmt.Errorf("loading timetable entries: %w", err)
	}
	for _, r := range entries {
		domain.AddEntry(models.TimetableEntry{
			Train: r.Train, Station: r.Station, Track: r.Track,
			Arrival: r.Arrival, Departure: r.Departure, Remark: r.Remark,
		})
	}
	return domain, nil
}

// Diagnostics returns the diagnostics stored for a run in load order.
func (s *Store) Diagnostics(ctx context.Context, id uuid.UUID) ([]DiagnosticRecord, error) {
	var rows []diagnosticRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT run_id, seq, kind, table_name, row_index, reason, row_values
		FROM diagnostics WHERE run_id = ? ORDER BY seq`), id.String()); err != nil {
		return nil, fmt.Errorf("loading diagnostics: %w", err)
	}
	records := make([]DiagnosticRecord, 0, len(rows))
	for _, r := range rows {
		rec := DiagnosticRecord{Kind: r.Kind, Table: r.TableName, Row: r.RowIndex, Reason: r.Reason}
		if err := json.Unmarshal([]byte(r.RowValues), &rec.Values); err != nil {
			return nil, fmt.Errorf("decoding diagnostic %d: %w", r.Seq, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
