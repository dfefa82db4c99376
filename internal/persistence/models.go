package persistence

import "time"

// EventStatus enumerates the lifecycle states of a class event.
type EventStatus string

const (
	// EventScheduled is the initial state of every event.
	EventScheduled EventStatus = "scheduled"
	// EventCompleted marks an event whose end time has passed.
	EventCompleted EventStatus = "completed"
	// EventCancelled marks an event called off explicitly. Terminal.
	EventCancelled EventStatus = "cancelled"
)

// Role enumerates the access levels of studio staff accounts.
type Role string

const (
	// RoleAdmin grants full management access including substitutions and
	// series mutations.
	RoleAdmin Role = "admin"
	// RoleTrainer grants access to the trainer's own schedule.
	RoleTrainer Role = "trainer"
)

// Event represents a single concrete class occurrence.
//
// Date is a studio-local calendar day ("2006-01-02"); StartTime and EndTime
// are wall-clock "HH:MM" strings with StartTime < EndTime. IsSubstitution is
// set together with OriginalTrainerID and SubstitutedAt, never independently.
type Event struct {
	ID                string
	Date              string
	StartTime         string
	EndTime           string
	Status            EventStatus
	GroupID           string
	TrainerID         string
	RoomID            *string
	SeriesID          *string
	IsSubstitution    bool
	OriginalTrainerID *string
	SubstitutedAt     *time.Time
	Description       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EventDetail joins an event with the display names of its related records
// for confirmation views. Name fields are nil when the reference is unset.
type EventDetail struct {
	Event
	GroupName           string
	TrainerName         string
	RoomName            *string
	OriginalTrainerName *string
}

// Series represents a recurring-schedule template that generates events.
type Series struct {
	ID          string
	GroupID     string
	TrainerID   string
	RoomID      *string
	Weekdays    []time.Weekday
	StartTime   string
	EndTime     string
	StartDate   string
	EndDate     *string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Group represents a class group (a set of students taking the same classes).
type Group struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Room represents a studio room available for classes.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User represents a staff account (administrator or trainer).
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
