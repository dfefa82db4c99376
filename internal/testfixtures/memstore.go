package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// MemStore is an in-memory persistence.Store for service and handler tests.
// InTransaction clones the dataset, runs the function against the clone, and
// swaps it in only on success, so rollback semantics match the SQL store.
type MemStore struct {
	mu   *sync.Mutex
	data *memData
}

type memData struct {
	events   map[string]persistence.Event
	series   map[string]persistence.Series
	groups   map[string]persistence.Group
	rooms    map[string]persistence.Room
	users    map[string]persistence.User
	sessions map[string]persistence.Session
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		mu:   &sync.Mutex{},
		data: newMemData(),
	}
}

func newMemData() *memData {
	return &memData{
		events:   make(map[string]persistence.Event),
		series:   make(map[string]persistence.Series),
		groups:   make(map[string]persistence.Group),
		rooms:    make(map[string]persistence.Room),
		users:    make(map[string]persistence.User),
		sessions: make(map[string]persistence.Session),
	}
}

func (d *memData) clone() *memData {
	cloned := newMemData()
	for k, v := range d.events {
		cloned.events[k] = v
	}
	for k, v := range d.series {
		cloned.series[k] = v
	}
	for k, v := range d.groups {
		cloned.groups[k] = v
	}
	for k, v := range d.rooms {
		cloned.rooms[k] = v
	}
	for k, v := range d.users {
		cloned.users[k] = v
	}
	for k, v := range d.sessions {
		cloned.sessions[k] = v
	}
	return cloned
}

func (s *MemStore) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Seed inserts fixtures directly, bypassing validation. Accepts values of the
// persistence record types.
func (s *MemStore) Seed(records ...any) {
	defer s.lock()()
	for _, record := range records {
		switch v := record.(type) {
		case persistence.Event:
			s.data.events[v.ID] = v
		case persistence.Series:
			s.data.series[v.ID] = v
		case persistence.Group:
			s.data.groups[v.ID] = v
		case persistence.Room:
			s.data.rooms[v.ID] = v
		case persistence.User:
			s.data.users[v.ID] = v
		case persistence.Session:
			s.data.sessions[v.Token] = v
		}
	}
}

func (s *MemStore) Events() persistence.EventRepository     { return s }
func (s *MemStore) Series() persistence.SeriesRepository    { return s }
func (s *MemStore) Groups() persistence.GroupRepository     { return s }
func (s *MemStore) Rooms() persistence.RoomRepository       { return s }
func (s *MemStore) Users() persistence.UserRepository       { return s }
func (s *MemStore) Sessions() persistence.SessionRepository { return s }

// InTransaction runs fn against a cloned dataset, committing on success.
func (s *MemStore) InTransaction(ctx context.Context, fn func(persistence.Store) error) error {
	if s.mu == nil {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemStore{data: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// ----------------------------- events -----------------------------

func (s *MemStore) CreateEvent(ctx context.Context, event persistence.Event) error {
	defer s.lock()()
	if _, exists := s.data.events[event.ID]; exists {
		return persistence.ErrDuplicate
	}
	s.data.events[event.ID] = event
	return nil
}

func (s *MemStore) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	defer s.lock()()
	event, ok := s.data.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return event, nil
}

func (s *MemStore) UpdateEvent(ctx context.Context, event persistence.Event) error {
	defer s.lock()()
	if _, ok := s.data.events[event.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.data.events[event.ID] = event
	return nil
}

func (s *MemStore) UpdateEvents(ctx context.Context, ids []string, mutation persistence.EventMutation) (int64, error) {
	defer s.lock()()
	var changed int64
	for _, id := range ids {
		event, ok := s.data.events[id]
		if !ok {
			continue
		}
		if mutation.TrainerID != nil {
			event.TrainerID = *mutation.TrainerID
		}
		if mutation.ClearRoom {
			event.RoomID = nil
		} else if mutation.RoomID != nil {
			event.RoomID = mutation.RoomID
		}
		if mutation.StartTime != nil {
			event.StartTime = *mutation.StartTime
		}
		if mutation.EndTime != nil {
			event.EndTime = *mutation.EndTime
		}
		if mutation.Description != nil {
			event.Description = mutation.Description
		}
		if mutation.Status != nil {
			event.Status = *mutation.Status
		}
		if mutation.Substitution != nil {
			original := mutation.Substitution.OriginalTrainerID
			at := mutation.Substitution.At
			event.IsSubstitution = true
			event.OriginalTrainerID = &original
			event.SubstitutedAt = &at
		} else if mutation.ClearSubstitution {
			event.IsSubstitution = false
			event.OriginalTrainerID = nil
			event.SubstitutedAt = nil
		}
		s.data.events[id] = event
		changed++
	}
	return changed, nil
}

func (s *MemStore) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	defer s.lock()()
	var events []persistence.Event
	for _, event := range s.data.events {
		if matchesFilter(event, filter) {
			events = append(events, event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (s *MemStore) ListEventDetails(ctx context.Context, filter persistence.EventFilter) ([]persistence.EventDetail, error) {
	events, err := s.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer s.lock()()
	details := make([]persistence.EventDetail, len(events))
	for i, event := range events {
		detail := persistence.EventDetail{Event: event}
		if group, ok := s.data.groups[event.GroupID]; ok {
			detail.GroupName = group.Name
		}
		if trainer, ok := s.data.users[event.TrainerID]; ok {
			detail.TrainerName = trainer.DisplayName
		}
		if event.RoomID != nil {
			if room, ok := s.data.rooms[*event.RoomID]; ok {
				name := room.Name
				detail.RoomName = &name
			}
		}
		if event.OriginalTrainerID != nil {
			if original, ok := s.data.users[*event.OriginalTrainerID]; ok {
				name := original.DisplayName
				detail.OriginalTrainerName = &name
			}
		}
		details[i] = detail
	}
	return details, nil
}

func (s *MemStore) DeleteEvent(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.data.events, id)
	return nil
}

func (s *MemStore) DeleteEvents(ctx context.Context, filter persistence.EventFilter) (int64, error) {
	defer s.lock()()
	var removed int64
	for id, event := range s.data.events {
		if matchesFilter(event, filter) {
			delete(s.data.events, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemStore) CompleteElapsed(ctx context.Context, day string, timeOfDay string, now time.Time) (int64, error) {
	defer s.lock()()
	var changed int64
	for id, event := range s.data.events {
		if event.Status != persistence.EventScheduled {
			continue
		}
		if event.Date < day || (event.Date == day && event.EndTime <= timeOfDay) {
			event.Status = persistence.EventCompleted
			event.UpdatedAt = now
			s.data.events[id] = event
			changed++
		}
	}
	return changed, nil
}

func matchesFilter(event persistence.Event, filter persistence.EventFilter) bool {
	if filter.GroupID != nil && event.GroupID != *filter.GroupID {
		return false
	}
	if filter.TrainerID != nil && event.TrainerID != *filter.TrainerID {
		return false
	}
	if filter.RoomID != nil && (event.RoomID == nil || *event.RoomID != *filter.RoomID) {
		return false
	}
	if filter.SeriesID != nil && (event.SeriesID == nil || *event.SeriesID != *filter.SeriesID) {
		return false
	}
	if filter.DateFrom != nil && event.Date < *filter.DateFrom {
		return false
	}
	if filter.DateTo != nil && event.Date > *filter.DateTo {
		return false
	}
	if len(filter.Statuses) > 0 {
		match := false
		for _, status := range filter.Statuses {
			if event.Status == status {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func sortEvents(events []persistence.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].StartTime != events[j].StartTime {
			return events[i].StartTime < events[j].StartTime
		}
		return events[i].ID < events[j].ID
	})
}

// ----------------------------- series -----------------------------

func (s *MemStore) CreateSeries(ctx context.Context, series persistence.Series) error {
	defer s.lock()()
	if _, exists := s.data.series[series.ID]; exists {
		return persistence.ErrDuplicate
	}
	s.data.series[series.ID] = series
	return nil
}

func (s *MemStore) GetSeries(ctx context.Context, id string) (persistence.Series, error) {
	defer s.lock()()
	series, ok := s.data.series[id]
	if !ok {
		return persistence.Series{}, persistence.ErrNotFound
	}
	return series, nil
}

func (s *MemStore) UpdateSeries(ctx context.Context, series persistence.Series) error {
	defer s.lock()()
	if _, ok := s.data.series[series.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.data.series[series.ID] = series
	return nil
}

func (s *MemStore) DeleteSeries(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.series[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.data.series, id)
	for eventID, event := range s.data.events {
		if event.SeriesID != nil && *event.SeriesID == id {
			event.SeriesID = nil
			s.data.events[eventID] = event
		}
	}
	return nil
}

func (s *MemStore) ListSeriesForGroup(ctx context.Context, groupID string) ([]persistence.Series, error) {
	defer s.lock()()
	var list []persistence.Series
	for _, series := range s.data.series {
		if series.GroupID == groupID {
			list = append(list, series)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartDate != list[j].StartDate {
			return list[i].StartDate < list[j].StartDate
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemStore) DeleteSeriesForGroup(ctx context.Context, groupID string) (int64, error) {
	defer s.lock()()
	var removed int64
	for id, series := range s.data.series {
		if series.GroupID == groupID {
			delete(s.data.series, id)
			removed++
		}
	}
	return removed, nil
}

// ----------------------------- groups -----------------------------

func (s *MemStore) CreateGroup(ctx context.Context, group persistence.Group) error {
	defer s.lock()()
	for _, existing := range s.data.groups {
		if strings.EqualFold(existing.Name, group.Name) {
			return persistence.ErrDuplicate
		}
	}
	s.data.groups[group.ID] = group
	return nil
}

func (s *MemStore) GetGroup(ctx context.Context, id string) (persistence.Group, error) {
	defer s.lock()()
	group, ok := s.data.groups[id]
	if !ok {
		return persistence.Group{}, persistence.ErrNotFound
	}
	return group, nil
}

func (s *MemStore) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	defer s.lock()()
	groups := make([]persistence.Group, 0, len(s.data.groups))
	for _, group := range s.data.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (s *MemStore) DeleteGroup(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.groups[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.data.groups, id)
	return nil
}

// ----------------------------- rooms -----------------------------

func (s *MemStore) CreateRoom(ctx context.Context, room persistence.Room) error {
	defer s.lock()()
	for _, existing := range s.data.rooms {
		if strings.EqualFold(existing.Name, room.Name) {
			return persistence.ErrDuplicate
		}
	}
	s.data.rooms[room.ID] = room
	return nil
}

func (s *MemStore) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	defer s.lock()()
	room, ok := s.data.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *MemStore) UpdateRoom(ctx context.Context, room persistence.Room) error {
	defer s.lock()()
	if _, ok := s.data.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.data.rooms[room.ID] = room
	return nil
}

func (s *MemStore) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	defer s.lock()()
	rooms := make([]persistence.Room, 0, len(s.data.rooms))
	for _, room := range s.data.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (s *MemStore) DeleteRoom(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.data.rooms, id)
	for eventID, event := range s.data.events {
		if event.RoomID != nil && *event.RoomID == id {
			event.RoomID = nil
			s.data.events[eventID] = event
		}
	}
	return nil
}

// ----------------------------- users -----------------------------

func (s *MemStore) CreateUser(ctx context.Context, user persistence.User) error {
	defer s.lock()()
	for _, existing := range s.data.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	s.data.users[user.ID] = user
	return nil
}

func (s *MemStore) GetUser(ctx context.Context, id string) (persistence.User, error) {
	defer s.lock()()
	user, ok := s.data.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	defer s.lock()()
	for _, user := range s.data.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *MemStore) UpdateUser(ctx context.Context, user persistence.User) error {
	defer s.lock()()
	if _, ok := s.data.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.data.users[user.ID] = user
	return nil
}

func (s *MemStore) ListUsers(ctx context.Context) ([]persistence.User, error) {
	defer s.lock()()
	users := make([]persistence.User, 0, len(s.data.users))
	for _, user := range s.data.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (s *MemStore) DeleteUser(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.data.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.data.users, id)
	return nil
}

// ----------------------------- sessions -----------------------------

func (s *MemStore) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	defer s.lock()()
	if _, exists := s.data.sessions[session.Token]; exists {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.data.sessions[session.Token] = session
	return session, nil
}

func (s *MemStore) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	defer s.lock()()
	session, ok := s.data.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *MemStore) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	defer s.lock()()
	if _, ok := s.data.sessions[session.Token]; !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	s.data.sessions[session.Token] = session
	return session, nil
}

func (s *MemStore) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	defer s.lock()()
	session, ok := s.data.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	s.data.sessions[token] = session
	return session, nil
}

func (s *MemStore) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	defer s.lock()()
	for token, session := range s.data.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.data.sessions, token)
		}
	}
	return nil
}

var _ persistence.Store = (*MemStore)(nil)
