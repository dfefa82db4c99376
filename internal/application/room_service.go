package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// RoomService manages studio rooms.
type RoomService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService wires dependencies for room operations.
func NewRoomService(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

func validateRoomInput(input RoomInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}
}

// CreateRoom persists a new room.
func (s *RoomService) CreateRoom(ctx context.Context, principal Principal, input RoomInput) (persistence.Room, error) {
	if s == nil || s.store == nil {
		return persistence.Room{}, fmt.Errorf("room service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.Room{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateRoomInput(input, vErr)
	if vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	createdAt := s.now()
	room := persistence.Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Location:  strings.TrimSpace(input.Location),
		Capacity:  input.Capacity,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	logger := s.loggerWith(ctx, "CreateRoom", "room_id", room.ID)

	if err := s.store.Rooms().CreateRoom(ctx, room); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "room creation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Room{}, err
	}

	logger.InfoContext(ctx, "room created")
	return room, nil
}

// UpdateRoom applies new name, location, and capacity values.
func (s *RoomService) UpdateRoom(ctx context.Context, principal Principal, roomID string, input RoomInput) (persistence.Room, error) {
	if s == nil || s.store == nil {
		return persistence.Room{}, fmt.Errorf("room service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.Room{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateRoomInput(input, vErr)
	if vErr.HasErrors() {
		return persistence.Room{}, vErr
	}

	room, err := s.store.Rooms().GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	room.Name = strings.TrimSpace(input.Name)
	room.Location = strings.TrimSpace(input.Location)
	room.Capacity = input.Capacity
	room.UpdatedAt = s.now()

	if err := s.store.Rooms().UpdateRoom(ctx, room); err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return room, nil
}

// GetRoom returns a single room.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (persistence.Room, error) {
	if s == nil || s.store == nil {
		return persistence.Room{}, fmt.Errorf("room service not configured")
	}
	room, err := s.store.Rooms().GetRoom(ctx, roomID)
	if err != nil {
		return persistence.Room{}, mapRepoError(err)
	}
	return room, nil
}

// ListRooms returns every room ordered by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal) ([]persistence.Room, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("room service not configured")
	}
	return s.store.Rooms().ListRooms(ctx)
}

// DeleteRoom removes a room. Events referencing it keep running with their
// room link cleared by the schema.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("room service not configured")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteRoom", "room_id", roomID)

	if err := s.store.Rooms().DeleteRoom(ctx, roomID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "room deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}
