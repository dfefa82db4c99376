package persistence

import (
	"context"
	"time"
)

// EventFilter narrows event queries. Date bounds are inclusive calendar-day
// strings; nil fields are not applied.
type EventFilter struct {
	GroupID   *string
	TrainerID *string
	RoomID    *string
	SeriesID  *string
	DateFrom  *string
	DateTo    *string
	Statuses  []EventStatus
}

// SubstitutionMark records the substitution metadata applied to an event.
type SubstitutionMark struct {
	OriginalTrainerID string
	At                time.Time
}

// EventMutation describes a partial update applied to one or more events.
// Nil pointer fields are left unchanged; the Clear flags reset their nullable
// counterparts.
type EventMutation struct {
	TrainerID         *string
	RoomID            *string
	ClearRoom         bool
	StartTime         *string
	EndTime           *string
	Description       *string
	Status            *EventStatus
	Substitution      *SubstitutionMark
	ClearSubstitution bool
}

// EventRepository stores class events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	// UpdateEvents applies the mutation to every listed event and returns the
	// number of rows changed.
	UpdateEvents(ctx context.Context, ids []string, mutation EventMutation) (int64, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	// ListEventDetails returns filtered events joined with group, room, and
	// trainer display names.
	ListEventDetails(ctx context.Context, filter EventFilter) ([]EventDetail, error)
	DeleteEvent(ctx context.Context, id string) error
	// DeleteEvents removes every event matching the filter and returns the
	// number of rows removed.
	DeleteEvents(ctx context.Context, filter EventFilter) (int64, error)
	// CompleteElapsed transitions scheduled events whose day has passed, or
	// whose end time on the given day lies before timeOfDay, to completed.
	CompleteElapsed(ctx context.Context, day string, timeOfDay string, now time.Time) (int64, error)
}

// SeriesRepository stores recurring-schedule templates.
type SeriesRepository interface {
	CreateSeries(ctx context.Context, series Series) error
	GetSeries(ctx context.Context, id string) (Series, error)
	UpdateSeries(ctx context.Context, series Series) error
	DeleteSeries(ctx context.Context, id string) error
	ListSeriesForGroup(ctx context.Context, groupID string) ([]Series, error)
	// DeleteSeriesForGroup removes every series template belonging to the group.
	DeleteSeriesForGroup(ctx context.Context, groupID string) (int64, error)
}

// GroupRepository stores class groups.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group Group) error
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	DeleteGroup(ctx context.Context, id string) error
}

// RoomRepository stores studio rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) error
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// UserRepository stores staff accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Store aggregates the repositories behind a single transactional boundary.
//
// InTransaction runs fn against a store whose repositories share one
// transaction; fn returning an error (or panicking) rolls every step back.
// Multi-step mutations such as substitution, series propagation, the group
// cascade, and conflict-gated event writes must go through it.
type Store interface {
	Events() EventRepository
	Series() SeriesRepository
	Groups() GroupRepository
	Rooms() RoomRepository
	Users() UserRepository
	Sessions() SessionRepository

	InTransaction(ctx context.Context, fn func(Store) error) error
}
