package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/scheduler"
)

// EventService orchestrates validation, conflict gating, and persistence for
// single class events.
type EventService struct {
	store       persistence.Store
	reconciler  *StatusReconciler
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	warnings    *warningCache
}

// NewEventService wires dependencies for event operations.
func NewEventService(store persistence.Store, reconciler *StatusReconciler, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		store:       store,
		reconciler:  reconciler,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		warnings:    newWarningCache(30*time.Second, 128, now),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates the request, checks for room conflicts, and persists
// the event. The conflict check and the insert share one transaction so a
// concurrent booking cannot slip between them.
func (s *EventService) CreateEvent(ctx context.Context, principal Principal, input EventInput) (persistence.Event, error) {
	if s == nil || s.store == nil {
		return persistence.Event{}, fmt.Errorf("event service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.Event{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateEventInput(input, vErr)
	if vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	createdAt := s.now()
	event := persistence.Event{
		ID:          s.idGenerator(),
		Date:        input.Date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Status:      persistence.EventScheduled,
		GroupID:     input.GroupID,
		TrainerID:   input.TrainerID,
		RoomID:      input.RoomID,
		Description: input.Description,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	logger := s.loggerWith(ctx, "CreateEvent", "event_id", event.ID, "date", event.Date)

	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		if err := ensureEventReferences(ctx, tx, event.GroupID, event.TrainerID, event.RoomID); err != nil {
			return err
		}
		if err := ensureNoRoomConflict(ctx, tx, event); err != nil {
			return err
		}
		return tx.Events().CreateEvent(ctx, event)
	})
	if err != nil {
		logger.ErrorContext(ctx, "event creation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Event{}, err
	}

	s.warnings.Invalidate()
	logger.InfoContext(ctx, "event created")
	return event, nil
}

// UpdateEvent applies new date, time, room, trainer, or description values to
// a scheduled event, re-running the conflict check inside the write
// transaction.
func (s *EventService) UpdateEvent(ctx context.Context, principal Principal, eventID string, input EventInput) (persistence.Event, error) {
	if s == nil || s.store == nil {
		return persistence.Event{}, fmt.Errorf("event service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.Event{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateEventInput(input, vErr)
	if vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	logger := s.loggerWith(ctx, "UpdateEvent", "event_id", eventID)

	var updated persistence.Event
	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		existing, err := tx.Events().GetEvent(ctx, eventID)
		if err != nil {
			return mapRepoError(err)
		}
		if existing.Status != persistence.EventScheduled {
			inner := &ValidationError{}
			inner.add("status", "only scheduled events can be edited")
			return inner
		}

		if err := ensureEventReferences(ctx, tx, input.GroupID, input.TrainerID, input.RoomID); err != nil {
			return err
		}

		updated = existing
		updated.Date = input.Date
		updated.StartTime = input.StartTime
		updated.EndTime = input.EndTime
		updated.GroupID = input.GroupID
		updated.RoomID = input.RoomID
		updated.Description = input.Description
		if input.TrainerID != existing.TrainerID {
			updated.TrainerID = input.TrainerID
			updated.IsSubstitution = false
			updated.OriginalTrainerID = nil
			updated.SubstitutedAt = nil
		}
		updated.UpdatedAt = s.now()

		if err := ensureNoRoomConflict(ctx, tx, updated); err != nil {
			return err
		}
		return tx.Events().UpdateEvent(ctx, updated)
	})
	if err != nil {
		logger.ErrorContext(ctx, "event update failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Event{}, err
	}

	s.warnings.Invalidate()
	logger.InfoContext(ctx, "event updated")
	return updated, nil
}

// CancelEvent marks a scheduled event cancelled. Cancelling an already
// cancelled event succeeds without change; completed events cannot be
// cancelled.
func (s *EventService) CancelEvent(ctx context.Context, principal Principal, eventID string) (persistence.Event, error) {
	if s == nil || s.store == nil {
		return persistence.Event{}, fmt.Errorf("event service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.Event{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "CancelEvent", "event_id", eventID)

	var cancelled persistence.Event
	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		existing, err := tx.Events().GetEvent(ctx, eventID)
		if err != nil {
			return mapRepoError(err)
		}
		switch existing.Status {
		case persistence.EventCancelled:
			cancelled = existing
			return nil
		case persistence.EventCompleted:
			inner := &ValidationError{}
			inner.add("status", "completed events cannot be cancelled")
			return inner
		}

		cancelled = existing
		cancelled.Status = persistence.EventCancelled
		cancelled.UpdatedAt = s.now()
		return tx.Events().UpdateEvent(ctx, cancelled)
	})
	if err != nil {
		logger.ErrorContext(ctx, "event cancellation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Event{}, err
	}

	s.warnings.Invalidate()
	logger.InfoContext(ctx, "event cancelled")
	return cancelled, nil
}

// DeleteEvent removes an event permanently.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("event service not configured")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteEvent", "event_id", eventID)

	if err := s.store.Events().DeleteEvent(ctx, eventID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "event deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.warnings.Invalidate()
	logger.InfoContext(ctx, "event deleted")
	return nil
}

// GetEvent returns a single event with joined display names.
func (s *EventService) GetEvent(ctx context.Context, principal Principal, eventID string) (persistence.EventDetail, error) {
	if s == nil || s.store == nil {
		return persistence.EventDetail{}, fmt.Errorf("event service not configured")
	}

	if _, err := s.reconciler.Reconcile(ctx); err != nil {
		return persistence.EventDetail{}, err
	}

	event, err := s.store.Events().GetEvent(ctx, eventID)
	if err != nil {
		return persistence.EventDetail{}, mapRepoError(err)
	}

	details, err := s.store.Events().ListEventDetails(ctx, persistence.EventFilter{
		DateFrom: &event.Date,
		DateTo:   &event.Date,
	})
	if err != nil {
		return persistence.EventDetail{}, err
	}
	for _, d := range details {
		if d.ID == eventID {
			return d, nil
		}
	}
	return persistence.EventDetail{}, ErrNotFound
}

// ListEvents reconciles statuses, returns filtered events with joined names,
// and reports room overlap warnings among the returned events.
func (s *EventService) ListEvents(ctx context.Context, principal Principal, params ListEventsParams) (ListEventsResult, error) {
	if s == nil || s.store == nil {
		return ListEventsResult{}, fmt.Errorf("event service not configured")
	}

	if _, err := s.reconciler.Reconcile(ctx); err != nil {
		return ListEventsResult{}, err
	}

	filter := persistence.EventFilter{
		GroupID:   params.GroupID,
		TrainerID: params.TrainerID,
		RoomID:    params.RoomID,
		SeriesID:  params.SeriesID,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		Statuses:  params.Statuses,
	}

	details, err := s.store.Events().ListEventDetails(ctx, filter)
	if err != nil {
		return ListEventsResult{}, err
	}

	key := buildWarningCacheKey(principal, params)
	warnings, ok := s.warnings.Get(key)
	if !ok {
		warnings, err = detectOverlapWarnings(details)
		if err != nil {
			return ListEventsResult{}, err
		}
		s.warnings.Store(key, warnings)
	}

	return ListEventsResult{Events: details, Warnings: warnings}, nil
}

// detectOverlapWarnings reports each pair of non-cancelled events sharing a
// room and overlapping in time. Pairs are reported once, ordered by the
// first event's position in the listing.
func detectOverlapWarnings(details []persistence.EventDetail) ([]ConflictWarning, error) {
	candidates := make([]scheduler.Event, len(details))
	for i, d := range details {
		candidates[i] = toSchedulerEvent(d.Event)
	}

	var warnings []ConflictWarning
	for i := range candidates {
		if candidates[i].RoomID == nil || candidates[i].Cancelled {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			conflict, err := scheduler.FindConflict(candidates[j:j+1], candidates[i])
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				warnings = append(warnings, ConflictWarning{
					EventID:      candidates[i].ID,
					OtherEventID: conflict.ID,
					RoomID:       *candidates[i].RoomID,
					Date:         candidates[i].Date,
				})
			}
		}
	}
	return warnings, nil
}

// ensureNoRoomConflict rejects the candidate when another live event occupies
// the same room at an overlapping time. Events without a room never conflict.
func ensureNoRoomConflict(ctx context.Context, tx persistence.Store, event persistence.Event) error {
	if event.RoomID == nil {
		return nil
	}

	neighbors, err := tx.Events().ListEvents(ctx, persistence.EventFilter{
		RoomID:   event.RoomID,
		DateFrom: &event.Date,
		DateTo:   &event.Date,
	})
	if err != nil {
		return err
	}

	existing := make([]scheduler.Event, len(neighbors))
	for i, n := range neighbors {
		existing[i] = toSchedulerEvent(n)
	}

	conflict, err := scheduler.FindConflict(existing, toSchedulerEvent(event))
	if err != nil {
		return err
	}
	if conflict != nil {
		cErr := &ConflictError{
			RoomID:        *event.RoomID,
			Date:          event.Date,
			BlockingID:    conflict.ID,
			BlockingStart: conflict.StartTime,
			BlockingEnd:   conflict.EndTime,
		}
		for _, n := range neighbors {
			if n.ID == conflict.ID {
				cErr.BlockingStatus = string(n.Status)
				break
			}
		}
		return cErr
	}
	return nil
}

// ensureEventReferences verifies the group, trainer, and optional room exist.
func ensureEventReferences(ctx context.Context, tx persistence.Store, groupID, trainerID string, roomID *string) error {
	vErr := &ValidationError{}

	if _, err := tx.Groups().GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr.add("group_id", "group does not exist")
		} else {
			return err
		}
	}
	if _, err := tx.Users().GetUser(ctx, trainerID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr.add("trainer_id", "trainer does not exist")
		} else {
			return err
		}
	}
	if roomID != nil {
		if _, err := tx.Rooms().GetRoom(ctx, *roomID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("room_id", "room does not exist")
			} else {
				return err
			}
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func validateEventInput(input EventInput, vErr *ValidationError) {
	if _, err := scheduler.ParseDate(input.Date); err != nil {
		vErr.add("date", "date must use the YYYY-MM-DD format")
	}
	start, startErr := scheduler.ToMinutes(input.StartTime)
	if startErr != nil {
		vErr.add("start_time", "start time must use the HH:MM format")
	}
	end, endErr := scheduler.ToMinutes(input.EndTime)
	if endErr != nil {
		vErr.add("end_time", "end time must use the HH:MM format")
	}
	if startErr == nil && endErr == nil && start >= end {
		vErr.add("end_time", "end time must come after start time")
	}
	if input.GroupID == "" {
		vErr.add("group_id", "group is required")
	}
	if input.TrainerID == "" {
		vErr.add("trainer_id", "trainer is required")
	}
}

func toSchedulerEvent(e persistence.Event) scheduler.Event {
	return scheduler.Event{
		ID:        e.ID,
		RoomID:    e.RoomID,
		Date:      e.Date,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Cancelled: e.Status == persistence.EventCancelled,
	}
}

// mapRepoError lifts persistence sentinels into application sentinels.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	default:
		return err
	}
}
