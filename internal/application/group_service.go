package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// GroupService manages class groups.
type GroupService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewGroupService wires dependencies for group operations.
func NewGroupService(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *GroupService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GroupService{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *GroupService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "GroupService", operation, attrs...)
}

// CreateGroup persists a new class group.
func (s *GroupService) CreateGroup(ctx context.Context, principal Principal, input GroupInput) (persistence.Group, error) {
	if s == nil || s.store == nil {
		return persistence.Group{}, fmt.Errorf("group service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.Group{}, ErrUnauthorized
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		return persistence.Group{}, vErr
	}

	createdAt := s.now()
	group := persistence.Group{
		ID:          s.idGenerator(),
		Name:        name,
		Description: input.Description,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	logger := s.loggerWith(ctx, "CreateGroup", "group_id", group.ID)

	if err := s.store.Groups().CreateGroup(ctx, group); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "group creation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Group{}, err
	}

	logger.InfoContext(ctx, "group created")
	return group, nil
}

// GetGroup returns a single group.
func (s *GroupService) GetGroup(ctx context.Context, principal Principal, groupID string) (persistence.Group, error) {
	if s == nil || s.store == nil {
		return persistence.Group{}, fmt.Errorf("group service not configured")
	}
	group, err := s.store.Groups().GetGroup(ctx, groupID)
	if err != nil {
		return persistence.Group{}, mapRepoError(err)
	}
	return group, nil
}

// ListGroups returns every group ordered by name.
func (s *GroupService) ListGroups(ctx context.Context, principal Principal) ([]persistence.Group, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("group service not configured")
	}
	return s.store.Groups().ListGroups(ctx)
}

// DeleteGroup removes a group together with all of its events and series
// templates. The cascade deletes events first, then series, then the group
// itself, so no step ever violates a foreign key.
func (s *GroupService) DeleteGroup(ctx context.Context, principal Principal, groupID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("group service not configured")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteGroup", "group_id", groupID)

	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		if _, err := tx.Groups().GetGroup(ctx, groupID); err != nil {
			return mapRepoError(err)
		}
		if _, err := tx.Events().DeleteEvents(ctx, persistence.EventFilter{GroupID: &groupID}); err != nil {
			return err
		}
		if _, err := tx.Series().DeleteSeriesForGroup(ctx, groupID); err != nil {
			return err
		}
		return tx.Groups().DeleteGroup(ctx, groupID)
	})
	if err != nil {
		logger.ErrorContext(ctx, "group deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "group deleted")
	return nil
}
