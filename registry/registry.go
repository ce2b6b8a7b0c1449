// Package registry persists the satellite catalog and notifies
// subscribers of changes.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/groundsegment/sattrack/model"
	"github.com/groundsegment/sattrack/orbit"
)

var (
	// ErrSatelliteExists indicates the NORAD number is already cataloged.
	ErrSatelliteExists = errors.New("satellite already exists")
	// ErrSatelliteNotFound indicates the requested record is missing.
	ErrSatelliteNotFound = errors.New("satellite not found")
	// ErrCatalogNumberMismatch indicates a TLE whose embedded catalog
	// number disagrees with the record it is being attached to.
	ErrCatalogNumberMismatch = errors.New("TLE catalog number does not match satellite")
)

// EventType indicates what kind of catalog change happened.
type EventType int

const (
	EventCreated EventType = iota
	EventTLEUpdated
	EventDeleted
)

// Event is delivered to subscribers after a change commits.
type Event struct {
	Type      EventType
	Satellite model.Satellite
}

const schema = `
CREATE TABLE IF NOT EXISTS satellites (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT    NOT NULL,
	norad_id       INTEGER NOT NULL UNIQUE,
	tle_line1      TEXT    NOT NULL,
	tle_line2      TEXT    NOT NULL,
	tle_updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_satellites_norad_id ON satellites(norad_id);
`

// Store is the SQLite-backed satellite catalog. Writes are serialized
// by an internal lock; reads go straight to the database.
type Store struct {
	db *sql.DB

	mu   sync.Mutex
	subs []func(Event)

	now func() time.Time
}

// Open opens (creating if needed) the catalog database at path. WAL
// journaling keeps readers unblocked during writes; the busy timeout
// covers brief writer contention from other processes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe registers a callback for catalog events and returns an
// unsubscribe function. Callbacks run after the change has committed,
// outside the store's lock.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < 0 || idx >= len(s.subs) {
			return
		}
		s.subs = append(s.subs[:idx], s.subs[idx+1:]...)
		idx = -1
	}
}

// Create validates the TLE and inserts a new catalog record. The
// satellite's NORAD number must be unused and must match the catalog
// number embedded in the element set.
func (s *Store) Create(ctx context.Context, sat model.Satellite) (model.Satellite, error) {
	tle, err := orbit.ParseTLE(sat.TLELine1, sat.TLELine2)
	if err != nil {
		return model.Satellite{}, err
	}
	if sat.NoradID == 0 {
		sat.NoradID = tle.CatalogNumber
	}
	if tle.CatalogNumber != sat.NoradID {
		return model.Satellite{}, fmt.Errorf("%w: TLE carries %d, record says %d",
			ErrCatalogNumberMismatch, tle.CatalogNumber, sat.NoradID)
	}
	if sat.TLEUpdatedAt.IsZero() {
		sat.TLEUpdatedAt = s.now().UTC()
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO satellites (name, norad_id, tle_line1, tle_line2, tle_updated_at)
		 SELECT ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM satellites WHERE norad_id = ?)`,
		sat.Name, sat.NoradID, sat.TLELine1, sat.TLELine2, sat.TLEUpdatedAt, sat.NoradID)
	if err != nil {
		s.mu.Unlock()
		return model.Satellite{}, fmt.Errorf("inserting satellite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.mu.Unlock()
		return model.Satellite{}, fmt.Errorf("inserting satellite: %w", err)
	}
	if n == 0 {
		s.mu.Unlock()
		return model.Satellite{}, fmt.Errorf("%w: NORAD %d", ErrSatelliteExists, sat.NoradID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.mu.Unlock()
		return model.Satellite{}, fmt.Errorf("inserting satellite: %w", err)
	}
	sat.ID = id
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Event{Type: EventCreated, Satellite: sat})
	return sat, nil
}

// GetByID fetches one record by its storage key.
func (s *Store) GetByID(ctx context.Context, id int64) (model.Satellite, error) {
	return s.getWhere(ctx, "id = ?", id)
}

// GetByNorad fetches one record by NORAD catalog number.
func (s *Store) GetByNorad(ctx context.Context, noradID int) (model.Satellite, error) {
	return s.getWhere(ctx, "norad_id = ?", noradID)
}

func (s *Store) getWhere(ctx context.Context, where string, arg any) (model.Satellite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, norad_id, tle_line1, tle_line2, tle_updated_at
		 FROM satellites WHERE `+where, arg)
	sat, err := scanSatellite(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Satellite{}, ErrSatelliteNotFound
	}
	if err != nil {
		return model.Satellite{}, fmt.Errorf("querying satellite: %w", err)
	}
	return sat, nil
}

// List returns the whole catalog ordered by storage ID, so batch
// position responses have a stable record order.
func (s *Store) List(ctx context.Context) ([]model.Satellite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, norad_id, tle_line1, tle_line2, tle_updated_at
		 FROM satellites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing satellites: %w", err)
	}
	defer rows.Close()

	var sats []model.Satellite
	for rows.Next() {
		sat, err := scanSatellite(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning satellite: %w", err)
		}
		sats = append(sats, sat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing satellites: %w", err)
	}
	return sats, nil
}

// UpdateTLE validates and stores a fresh element set for the record,
// bumping its update timestamp.
func (s *Store) UpdateTLE(ctx context.Context, id int64, line1, line2 string) (model.Satellite, error) {
	tle, err := orbit.ParseTLE(line1, line2)
	if err != nil {
		return model.Satellite{}, err
	}

	s.mu.Lock()
	current, err := s.getWhere(ctx, "id = ?", id)
	if err != nil {
		s.mu.Unlock()
		return model.Satellite{}, err
	}
	if tle.CatalogNumber != current.NoradID {
		s.mu.Unlock()
		return model.Satellite{}, fmt.Errorf("%w: TLE carries %d, record says %d",
			ErrCatalogNumberMismatch, tle.CatalogNumber, current.NoradID)
	}

	updatedAt := s.now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE satellites SET tle_line1 = ?, tle_line2 = ?, tle_updated_at = ? WHERE id = ?`,
		line1, line2, updatedAt, id); err != nil {
		s.mu.Unlock()
		return model.Satellite{}, fmt.Errorf("updating TLE: %w", err)
	}

	current.TLELine1 = line1
	current.TLELine2 = line2
	current.TLEUpdatedAt = updatedAt
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Event{Type: EventTLEUpdated, Satellite: current})
	return current, nil
}

// Delete removes a record by storage ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	sat, err := s.getWhere(ctx, "id = ?", id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM satellites WHERE id = ?`, id); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("deleting satellite: %w", err)
	}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Event{Type: EventDeleted, Satellite: sat})
	return nil
}

// Count returns the number of cataloged satellites.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM satellites`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting satellites: %w", err)
	}
	return n, nil
}

func (s *Store) snapshotSubs() []func(Event) {
	return append([]func(Event){}, s.subs...)
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

func scanSatellite(scan func(dest ...any) error) (model.Satellite, error) {
	var sat model.Satellite
	var updated time.Time
	if err := scan(&sat.ID, &sat.Name, &sat.NoradID, &sat.TLELine1, &sat.TLELine2, &updated); err != nil {
		return model.Satellite{}, err
	}
	sat.TLEUpdatedAt = updated.UTC()
	return sat, nil
}
