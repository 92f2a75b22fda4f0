package model

import "time"

// Event types offered by the create form.
var EventTypes = []string{"group_run", "race", "virtual", "training"}

const DefaultEventType = "group_run"

// ValidEventType reports whether t is one of EventTypes.
func ValidEventType(t string) bool {
	for _, known := range EventTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Event is a scheduled run, race or session.
// OrganizerID is a weak reference; Organizer is resolved by join for display.
type Event struct {
	ID            string     `json:"id"`
	OrganizerID   string     `json:"organizer_id"`
	Title         string     `json:"title"`
	EventDate     time.Time  `json:"event_date"`
	Location      string     `json:"location"`
	Description   string     `json:"description"`
	EventType     string     `json:"event_type"`
	CreatedAt     time.Time  `json:"created_at"`
	Organizer     *PersonRef `json:"organizer,omitempty"`
	AttendeeCount int        `json:"attendee_count"`
}

// NewEvent is the create form payload.
type NewEvent struct {
	Title       string    `json:"title"`
	EventDate   time.Time `json:"event_date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	EventType   string    `json:"event_type"`
}

// AttendanceGoing is the status recorded by an RSVP.
const AttendanceGoing = "going"

// Attendance is an RSVP. (EventID, UserID) is unique.
type Attendance struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	User      *PersonRef `json:"user,omitempty"`
}
