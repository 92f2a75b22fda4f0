package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/protanvir/runners-bd/internal/apperror"
	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/repository"
)

// EventService backs the events page: listing, creating and RSVPs.
type EventService struct {
	events repository.EventRepository
	logger *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{events: events, logger: logger}
}

// List returns every event, soonest first.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/event: listing: %w", err)
	}
	return events, nil
}

// Create adds an event organized by the caller. Gated on can_create_event.
func (s *EventService) Create(ctx context.Context, sess model.Session, in model.NewEvent) (*model.Event, error) {
	if err := requireCapability(sess, model.CanCreateEvent); err != nil {
		return nil, err
	}

	title, err := requireText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	if in.EventDate.IsZero() {
		return nil, apperror.ValidationFailed("event_date", "event_date is required")
	}
	location, err := limitText("location", in.Location, MaxLocationLength)
	if err != nil {
		return nil, err
	}
	description, err := limitText("description", in.Description, MaxBodyLength)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		eventType = model.DefaultEventType
	}
	if !model.ValidEventType(eventType) {
		return nil, apperror.ValidationFailed("event_type",
			"event_type must be one of "+strings.Join(model.EventTypes, ", "))
	}

	event := &model.Event{
		OrganizerID: sess.UserID(),
		Title:       title,
		EventDate:   in.EventDate,
		Location:    location,
		Description: description,
		EventType:   eventType,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("service/event: creating: %w", err)
	}

	s.logger.Info("event created",
		slog.String("eventID", event.ID),
		slog.String("organizerID", event.OrganizerID),
	)
	return event, nil
}

// RSVP records the caller as going. A second RSVP for the same event returns
// apperror.ErrAlreadyJoined and leaves the existing row alone.
func (s *EventService) RSVP(ctx context.Context, sess model.Session, eventID string) (*model.Attendance, error) {
	if err := requireSignedIn(sess); err != nil {
		return nil, err
	}
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("service/event: rsvp: %w", err)
	}

	a := &model.Attendance{EventID: eventID, UserID: sess.UserID(), Status: model.AttendanceGoing}
	if err := s.events.CreateAttendance(ctx, a); err != nil {
		return nil, fmt.Errorf("service/event: rsvp: %w", err)
	}

	s.logger.Info("rsvp recorded", slog.String("eventID", eventID), slog.String("userID", a.UserID))
	return a, nil
}

// Attendees lists who is going, in RSVP order.
func (s *EventService) Attendees(ctx context.Context, eventID string) ([]model.Attendance, error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("service/event: attendees: %w", err)
	}
	attendees, err := s.events.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("service/event: attendees: %w", err)
	}
	return attendees, nil
}
