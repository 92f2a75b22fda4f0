package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

// eventSelect resolves the organizer through events_organizer_id_fkey and
// counts RSVPs with a correlated subquery.
const eventSelect = `
	SELECT e.id, e.organizer_id, e.title, e.event_date, e.location, e.description,
	       e.event_type, e.created_at, p.full_name, p.avatar_url,
	       (SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
	FROM events e
	LEFT JOIN profiles p ON p.id = e.organizer_id`

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e                   model.Event
		fullName, avatarURL sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.EventDate, &e.Location, &e.Description,
		&e.EventType, &e.CreatedAt, &fullName, &avatarURL, &e.AttendeeCount,
	)
	if err != nil {
		return nil, err
	}
	e.Organizer = personRef(fullName, avatarURL)
	return &e, nil
}

// ListEvents returns all events, soonest first.
func (db *DB) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx, eventSelect+` ORDER BY e.event_date ASC, e.rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating event rows: %w", err)
	}
	return events, nil
}

// GetEvent retrieves one event with its organizer.
func (db *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(db.conn.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}
	return e, nil
}

// CreateEvent inserts a new event. ID and CreatedAt are generated here.
func (db *DB) CreateEvent(ctx context.Context, e *model.Event) error {
	e.ID = xid.New().String()
	e.CreatedAt = now()
	e.EventDate = e.EventDate.UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (id, organizer_id, title, event_date, location, description, event_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrganizerID, e.Title, e.EventDate, e.Location, e.Description, e.EventType, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}
	return nil
}

// CreateAttendance records an RSVP.
//
// UNIQUE(event_id, user_id) makes the second insert for the same pair fail;
// that failure is reported as apperror.AlreadyJoined and no row is added.
func (db *DB) CreateAttendance(ctx context.Context, a *model.Attendance) error {
	a.ID = xid.New().String()
	a.CreatedAt = now()
	if a.Status == "" {
		a.Status = model.AttendanceGoing
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_attendees (id, event_id, user_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.EventID, a.UserID, a.Status, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyJoined()
		}
		return fmt.Errorf("sqlite: creating attendance (event=%s): %w", a.EventID, err)
	}
	return nil
}

// ListAttendees returns an event's RSVPs in the order they were made.
func (db *DB) ListAttendees(ctx context.Context, eventID string) ([]model.Attendance, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.event_id, a.user_id, a.status, a.created_at, p.full_name, p.avatar_url
		 FROM event_attendees a
		 LEFT JOIN profiles p ON p.id = a.user_id
		 WHERE a.event_id = ?
		 ORDER BY a.created_at ASC, a.rowid ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attendees of %s: %w", eventID, err)
	}
	defer rows.Close()

	attendees := []model.Attendance{}
	for rows.Next() {
		var (
			a                   model.Attendance
			fullName, avatarURL sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.Status, &a.CreatedAt, &fullName, &avatarURL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attendee row: %w", err)
		}
		a.User = personRef(fullName, avatarURL)
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attendee rows: %w", err)
	}
	return attendees, nil
}
