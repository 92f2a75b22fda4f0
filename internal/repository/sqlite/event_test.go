package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
)

func createTestEvent(t *testing.T, db *DB, organizerID, title string, date time.Time) *model.Event {
	t.Helper()
	e := &model.Event{
		OrganizerID: organizerID,
		Title:       title,
		EventDate:   date,
		Location:    "Hatirjheel",
		EventType:   model.DefaultEventType,
	}
	if err := db.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

func TestListEvents_SoonestFirstWithOrganizer(t *testing.T) {
	db := newTestDB(t)
	org := createTestRunner(t, db, "1", "Organizer One")

	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	createTestEvent(t, db, org.ID, "Later", base.Add(48*time.Hour))
	createTestEvent(t, db, org.ID, "Sooner", base)
	createTestEvent(t, db, org.ID, "Middle", base.Add(24*time.Hour))

	events, err := db.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	want := []string{"Sooner", "Middle", "Later"}
	for i, title := range want {
		if events[i].Title != title {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Title, title)
		}
	}
	if events[0].Organizer == nil || events[0].Organizer.FullName != "Organizer One" {
		t.Errorf("organizer not joined: %+v", events[0].Organizer)
	}
}

func TestListEvents_Empty(t *testing.T) {
	db := newTestDB(t)

	events, err := db.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("ListEvents() = %#v, want empty non-nil slice", events)
	}
}

// =========================================================================
// ATTENDANCE TESTS
// =========================================================================

func TestCreateAttendance_FirstSucceeds(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	runner := createTestRunner(t, db, "1", "Runner")
	e := createTestEvent(t, db, runner.ID, "Sunday long run", time.Now().Add(time.Hour))

	a := &model.Attendance{EventID: e.ID, UserID: runner.ID}
	if err := db.CreateAttendance(ctx, a); err != nil {
		t.Fatalf("CreateAttendance() error = %v", err)
	}
	if a.Status != model.AttendanceGoing {
		t.Errorf("Status = %q, want %q", a.Status, model.AttendanceGoing)
	}

	got, err := db.GetEvent(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if got.AttendeeCount != 1 {
		t.Errorf("AttendeeCount = %d, want 1", got.AttendeeCount)
	}
}

func TestCreateAttendance_DuplicateIsAlreadyJoined(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	runner := createTestRunner(t, db, "1", "Runner")
	e := createTestEvent(t, db, runner.ID, "Tempo Tuesday", time.Now().Add(time.Hour))

	if err := db.CreateAttendance(ctx, &model.Attendance{EventID: e.ID, UserID: runner.ID}); err != nil {
		t.Fatalf("first CreateAttendance() error = %v", err)
	}

	err := db.CreateAttendance(ctx, &model.Attendance{EventID: e.ID, UserID: runner.ID})
	if !errors.Is(err, apperror.ErrAlreadyJoined) {
		t.Fatalf("second CreateAttendance() error = %v, want ErrAlreadyJoined", err)
	}

	attendees, err := db.ListAttendees(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListAttendees() error = %v", err)
	}
	if len(attendees) != 1 {
		t.Errorf("got %d attendance rows, want exactly 1", len(attendees))
	}
}

func TestListAttendees_WithProfiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestRunner(t, db, "1", "Alpha")
	b := createTestRunner(t, db, "2", "Bravo")
	e := createTestEvent(t, db, a.ID, "Track night", time.Now().Add(time.Hour))

	for _, id := range []string{a.ID, b.ID} {
		if err := db.CreateAttendance(ctx, &model.Attendance{EventID: e.ID, UserID: id}); err != nil {
			t.Fatalf("CreateAttendance(%s) error = %v", id, err)
		}
	}

	attendees, err := db.ListAttendees(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListAttendees() error = %v", err)
	}
	if len(attendees) != 2 {
		t.Fatalf("got %d attendees, want 2", len(attendees))
	}
	if attendees[0].User == nil || attendees[0].User.FullName != "Alpha" {
		t.Errorf("attendees[0].User = %+v, want Alpha", attendees[0].User)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetEvent(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetEvent() error = %v, want ErrNotFound", err)
	}
}
