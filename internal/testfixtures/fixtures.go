package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

var (
	userCounter   uint64
	groupCounter  uint64
	roomCounter   uint64
	eventCounter  uint64
	seriesCounter uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday so weekday oriented tests read naturally.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns ReferenceTime's calendar day as a date string.
func ReferenceDate() string {
	return referenceTime.Format("2006-01-02")
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a deterministic trainer account with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("Trainer %03d", idx),
		Role:         persistence.RoleTrainer,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID and aligns the email with it.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
		u.Email = fmt.Sprintf("%s@example.com", id)
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserRole overrides the generated role.
func WithUserRole(role persistence.Role) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// AsAdmin marks the account as an administrator.
func AsAdmin() UserOption {
	return func(u *persistence.User) { u.Role = persistence.RoleAdmin }
}

// WithUserDisabled marks the account disabled.
func WithUserDisabled() UserOption {
	return func(u *persistence.User) { u.Disabled = true }
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// GroupOption configures a generated group fixture.
type GroupOption func(*persistence.Group)

// NewGroup returns a deterministic class group with optional overrides.
func NewGroup(opts ...GroupOption) persistence.Group {
	idx := atomic.AddUint64(&groupCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	group := persistence.Group{
		ID:        fmt.Sprintf("group-%03d", idx),
		Name:      fmt.Sprintf("Group %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&group)
	}
	return group
}

// WithGroupID overrides the generated group ID.
func WithGroupID(id string) GroupOption {
	return func(g *persistence.Group) { g.ID = id }
}

// WithGroupName overrides the generated name.
func WithGroupName(name string) GroupOption {
	return func(g *persistence.Group) { g.Name = name }
}

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoom returns a deterministic studio room with optional overrides.
func NewRoom(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Studio %03d", idx),
		Location:  fmt.Sprintf("Floor %d", idx),
		Capacity:  20,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) { r.ID = id }
}

// EventOption configures a generated event fixture.
type EventOption func(*persistence.Event)

// NewEvent returns a deterministic scheduled event with optional overrides.
// Callers usually pin GroupID, TrainerID, and RoomID to other fixtures.
func NewEvent(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	event := persistence.Event{
		ID:        fmt.Sprintf("event-%03d", idx),
		Date:      ReferenceDate(),
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    persistence.EventScheduled,
		GroupID:   "group-001",
		TrainerID: "user-001",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(e *persistence.Event) { e.ID = id }
}

// OnDate sets the event date.
func OnDate(date string) EventOption {
	return func(e *persistence.Event) { e.Date = date }
}

// Between sets the event start and end times.
func Between(start, end string) EventOption {
	return func(e *persistence.Event) {
		e.StartTime = start
		e.EndTime = end
	}
}

// InRoom assigns the event to a room.
func InRoom(roomID string) EventOption {
	return func(e *persistence.Event) { e.RoomID = &roomID }
}

// ForGroup assigns the event to a group.
func ForGroup(groupID string) EventOption {
	return func(e *persistence.Event) { e.GroupID = groupID }
}

// WithTrainer assigns the event's trainer.
func WithTrainer(trainerID string) EventOption {
	return func(e *persistence.Event) { e.TrainerID = trainerID }
}

// WithStatus overrides the event status.
func WithStatus(status persistence.EventStatus) EventOption {
	return func(e *persistence.Event) { e.Status = status }
}

// FromSeries links the event to a series template.
func FromSeries(seriesID string) EventOption {
	return func(e *persistence.Event) { e.SeriesID = &seriesID }
}

// Substituted marks the event as covered by a substitute for the original
// trainer.
func Substituted(originalTrainerID string, at time.Time) EventOption {
	return func(e *persistence.Event) {
		e.IsSubstitution = true
		e.OriginalTrainerID = &originalTrainerID
		e.SubstitutedAt = &at
	}
}

// SeriesOption configures a generated series fixture.
type SeriesOption func(*persistence.Series)

// NewSeries returns a deterministic weekly template with optional overrides.
func NewSeries(opts ...SeriesOption) persistence.Series {
	idx := atomic.AddUint64(&seriesCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	series := persistence.Series{
		ID:        fmt.Sprintf("series-%03d", idx),
		GroupID:   "group-001",
		TrainerID: "user-001",
		Weekdays:  []time.Weekday{time.Monday},
		StartTime: "10:00",
		EndTime:   "11:00",
		StartDate: ReferenceDate(),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&series)
	}
	return series
}

// WithSeriesID overrides the generated series ID.
func WithSeriesID(id string) SeriesOption {
	return func(s *persistence.Series) { s.ID = id }
}

// OnWeekdays sets the template's weekday pattern.
func OnWeekdays(days ...time.Weekday) SeriesOption {
	return func(s *persistence.Series) { s.Weekdays = days }
}

// SeriesBetween sets the template's daily time window.
func SeriesBetween(start, end string) SeriesOption {
	return func(s *persistence.Series) {
		s.StartTime = start
		s.EndTime = end
	}
}

// SeriesDates sets the template's active date range. Pass an empty end for an
// open ended template.
func SeriesDates(startDate, endDate string) SeriesOption {
	return func(s *persistence.Series) {
		s.StartDate = startDate
		if endDate == "" {
			s.EndDate = nil
		} else {
			s.EndDate = &endDate
		}
	}
}

// SeriesForGroup assigns the template to a group.
func SeriesForGroup(groupID string) SeriesOption {
	return func(s *persistence.Series) { s.GroupID = groupID }
}

// SeriesWithTrainer assigns the template's trainer.
func SeriesWithTrainer(trainerID string) SeriesOption {
	return func(s *persistence.Series) { s.TrainerID = trainerID }
}

// SeriesInRoom assigns the template to a room.
func SeriesInRoom(roomID string) SeriesOption {
	return func(s *persistence.Series) { s.RoomID = &roomID }
}
