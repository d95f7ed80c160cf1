package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
)

// SQLiteStore persists events in a single SQLite table.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("sqlite: create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One writer keeps bulk creates from interleaving.
	conn.SetMaxOpenConns(1)

	if err := initTables(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: initialize tables: %w", err)
	}

	appLog.Info("sqlite store opened", "path", path)
	return &SQLiteStore{conn: conn}, nil
}

func initTables(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			repeat_type TEXT NOT NULL DEFAULT 'none',
			repeat_interval INTEGER NOT NULL DEFAULT 0,
			repeat_end_date TEXT,
			notification_time INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
	`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

const selectColumns = `id, title, date, start_time, end_time, description, location,
	category, repeat_type, repeat_interval, repeat_end_date, notification_time`

// List returns all events in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Event, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+selectColumns+` FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list events query: %w", err)
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("list events scan: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events rows: %w", err)
	}
	return out, nil
}

// Create inserts one event with a fresh id.
func (s *SQLiteStore) Create(ctx context.Context, f model.EventForm) (model.Event, error) {
	ev := model.Event{ID: uuid.NewString(), EventForm: f}
	if _, err := s.conn.ExecContext(ctx, insertQuery, insertArgs(ev)...); err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// BulkCreate inserts every form in one transaction; on any failure nothing
// is stored.
func (s *SQLiteStore) BulkCreate(ctx context.Context, forms []model.EventForm) ([]model.Event, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("bulk insert begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return nil, fmt.Errorf("bulk insert prepare: %w", err)
	}
	defer stmt.Close()

	out := make([]model.Event, 0, len(forms))
	for i, f := range forms {
		ev := model.Event{ID: uuid.NewString(), EventForm: f}
		if _, err := stmt.ExecContext(ctx, insertArgs(ev)...); err != nil {
			return nil, fmt.Errorf("bulk insert event %d of %d: %w", i+1, len(forms), err)
		}
		out = append(out, ev)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bulk insert commit: %w", err)
	}
	return out, nil
}

// Update replaces every field of the event with the given id.
func (s *SQLiteStore) Update(ctx context.Context, id string, ev model.Event) (model.Event, error) {
	ev.ID = id
	res, err := s.conn.ExecContext(ctx, `
		UPDATE events SET
			title = ?, date = ?, start_time = ?, end_time = ?, description = ?,
			location = ?, category = ?, repeat_type = ?, repeat_interval = ?,
			repeat_end_date = ?, notification_time = ?
		WHERE id = ?
	`, append(insertArgs(ev)[1:], id)...)
	if err != nil {
		return model.Event{}, fmt.Errorf("update event %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Event{}, model.ErrEventNotFound
	}
	return ev, nil
}

// Delete removes the event with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

const insertQuery = `
	INSERT INTO events (
		id, title, date, start_time, end_time, description, location,
		category, repeat_type, repeat_interval, repeat_end_date, notification_time
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func insertArgs(ev model.Event) []any {
	var endDate sql.NullString
	if ev.Repeat.EndDate != nil {
		endDate = sql.NullString{String: ev.Repeat.EndDate.String(), Valid: true}
	}
	repeatType := ev.Repeat.Type
	if repeatType == "" {
		repeatType = model.RepeatNone
	}
	return []any{
		ev.ID,
		ev.Title,
		ev.Date.String(),
		ev.StartTime.String(),
		ev.EndTime.String(),
		ev.Description,
		ev.Location,
		string(ev.Category),
		string(repeatType),
		ev.Repeat.Interval,
		endDate,
		ev.NotificationTime,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (model.Event, error) {
	var (
		ev                           model.Event
		date, start, end, cat, rtype string
		endDate                      sql.NullString
	)
	if err := row.Scan(&ev.ID, &ev.Title, &date, &start, &end, &ev.Description, &ev.Location,
		&cat, &rtype, &ev.Repeat.Interval, &endDate, &ev.NotificationTime); err != nil {
		return model.Event{}, err
	}

	var err error
	if ev.Date, err = model.ParseDate(date); err != nil {
		return model.Event{}, fmt.Errorf("event %s date: %w", ev.ID, err)
	}
	if ev.StartTime, err = model.ParseTimeOfDay(start); err != nil {
		return model.Event{}, fmt.Errorf("event %s start time: %w", ev.ID, err)
	}
	if ev.EndTime, err = model.ParseTimeOfDay(end); err != nil {
		return model.Event{}, fmt.Errorf("event %s end time: %w", ev.ID, err)
	}
	ev.Category = model.Category(cat)
	ev.Repeat.Type = model.RepeatType(rtype)
	if endDate.Valid {
		d, err := model.ParseDate(endDate.String)
		if err != nil {
			return model.Event{}, fmt.Errorf("event %s repeat end date: %w", ev.ID, err)
		}
		ev.Repeat.EndDate = &d
	}
	return ev, nil
}
