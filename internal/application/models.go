package application

import (
	"github.com/example/studio-scheduler/internal/persistence"
)

// Principal identifies the authenticated caller of a service operation.
type Principal struct {
	UserID string
	Role   persistence.Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == persistence.RoleAdmin
}

// AuthenticateParams carries login credentials.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult is returned from a successful login.
type AuthenticateResult struct {
	User    persistence.User
	Session persistence.Session
}

// EventInput carries the caller supplied fields for creating or updating an event.
type EventInput struct {
	Date        string
	StartTime   string
	EndTime     string
	GroupID     string
	TrainerID   string
	RoomID      *string
	Description *string
}

// ListEventsParams narrows an event listing.
type ListEventsParams struct {
	GroupID   *string
	TrainerID *string
	RoomID    *string
	SeriesID  *string
	DateFrom  *string
	DateTo    *string
	Statuses  []persistence.EventStatus
}

// ConflictWarning flags two events sharing a room and overlapping in time.
// Listings report warnings without blocking; writes reject conflicts outright.
type ConflictWarning struct {
	EventID      string
	OtherEventID string
	RoomID       string
	Date         string
}

// ListEventsResult bundles the events with any room overlap warnings among them.
type ListEventsResult struct {
	Events   []persistence.EventDetail
	Warnings []ConflictWarning
}

// SubstitutionInput describes a trainer absence to cover.
type SubstitutionInput struct {
	AbsentTrainerID     string
	SubstituteTrainerID string
	DateFrom            string
	DateTo              string
}

// SubstitutionResult summarizes an executed substitution.
type SubstitutionResult struct {
	UpdatedCount          int64
	AbsentTrainerName     string
	SubstituteTrainerName string
	// UpdatedEvents carries the reassigned events joined with display names
	// so callers can confirm exactly what changed.
	UpdatedEvents []persistence.EventDetail
}

// SeriesInput carries the caller supplied fields for creating a series.
type SeriesInput struct {
	GroupID     string
	TrainerID   string
	RoomID      *string
	Weekdays    []int
	StartTime   string
	EndTime     string
	StartDate   string
	EndDate     *string
	Description *string
}

// SeriesUpdateInput carries the editable fields of an existing series. Nil
// fields are left unchanged. Weekday pattern and start date are fixed at
// creation.
type SeriesUpdateInput struct {
	TrainerID   *string
	RoomID      *string
	ClearRoom   bool
	StartTime   *string
	EndTime     *string
	Description *string
}

// CreateSeriesResult reports the persisted template and the number of events
// generated from it.
type CreateSeriesResult struct {
	Series         persistence.Series
	GeneratedCount int
}

// UpdateSeriesResult reports the updated template and how many future events
// received the change.
type UpdateSeriesResult struct {
	Series          persistence.Series
	PropagatedCount int64
}

// DeleteSeriesResult reports how many future events were removed with the
// template.
type DeleteSeriesResult struct {
	RemovedCount int64
}

// GroupInput carries the caller supplied fields for a class group.
type GroupInput struct {
	Name        string
	Description *string
}

// RoomInput carries the caller supplied fields for a studio room.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
}

// UserInput carries the caller supplied fields for a staff account.
type UserInput struct {
	Email       string
	DisplayName string
	Role        persistence.Role
	Password    string
}
