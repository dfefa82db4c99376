package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/recurrence"
	"github.com/example/studio-scheduler/internal/scheduler"
)

// SeriesService manages recurring-schedule templates and the events they
// generate.
type SeriesService struct {
	store        persistence.Store
	idGenerator  func() string
	now          func() time.Time
	horizonWeeks int
	logger       *slog.Logger
}

// NewSeriesService wires dependencies for series operations. horizonWeeks
// bounds how far ahead events are generated from a template without an end
// date.
func NewSeriesService(store persistence.Store, idGenerator func() string, now func() time.Time, horizonWeeks int, logger *slog.Logger) *SeriesService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if horizonWeeks <= 0 {
		horizonWeeks = 12
	}
	return &SeriesService{
		store:        store,
		idGenerator:  idGenerator,
		now:          now,
		horizonWeeks: horizonWeeks,
		logger:       defaultLogger(logger),
	}
}

func (s *SeriesService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SeriesService", operation, attrs...)
}

// CreateSeries persists the template and generates its events up to the
// configured horizon in one transaction. Generation is deliberately not
// conflict gated; overlapping generated events surface as listing warnings
// for staff to resolve.
func (s *SeriesService) CreateSeries(ctx context.Context, principal Principal, input SeriesInput) (CreateSeriesResult, error) {
	if s == nil || s.store == nil {
		return CreateSeriesResult{}, fmt.Errorf("series service not configured")
	}
	if !principal.IsAdmin() {
		return CreateSeriesResult{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	weekdays := validateSeriesInput(input, vErr)
	if vErr.HasErrors() {
		return CreateSeriesResult{}, vErr
	}

	createdAt := s.now()
	series := persistence.Series{
		ID:          s.idGenerator(),
		GroupID:     input.GroupID,
		TrainerID:   input.TrainerID,
		RoomID:      input.RoomID,
		Weekdays:    weekdays,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Description: input.Description,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	horizon, err := recurrence.HorizonEnd(series.StartDate, s.horizonWeeks)
	if err != nil {
		return CreateSeriesResult{}, err
	}
	dates, err := recurrence.Expand(
		recurrence.Rule{Weekdays: weekdays, StartDate: series.StartDate, EndDate: series.EndDate},
		recurrence.Window{From: series.StartDate, Until: horizon},
	)
	if err != nil {
		return CreateSeriesResult{}, err
	}

	logger := s.loggerWith(ctx, "CreateSeries", "series_id", series.ID, "group_id", series.GroupID)

	err = s.store.InTransaction(ctx, func(tx persistence.Store) error {
		if err := ensureEventReferences(ctx, tx, series.GroupID, series.TrainerID, series.RoomID); err != nil {
			return err
		}
		if err := tx.Series().CreateSeries(ctx, series); err != nil {
			return mapRepoError(err)
		}
		for _, date := range dates {
			event := persistence.Event{
				ID:          s.idGenerator(),
				Date:        date,
				StartTime:   series.StartTime,
				EndTime:     series.EndTime,
				Status:      persistence.EventScheduled,
				GroupID:     series.GroupID,
				TrainerID:   series.TrainerID,
				RoomID:      series.RoomID,
				SeriesID:    &series.ID,
				Description: series.Description,
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			}
			if err := tx.Events().CreateEvent(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "series creation failed", "error", err, "error_kind", ErrorKind(err))
		return CreateSeriesResult{}, err
	}

	logger.InfoContext(ctx, "series created", "generated_count", len(dates))
	return CreateSeriesResult{Series: series, GeneratedCount: len(dates)}, nil
}

// UpdateSeries applies the editable template fields and propagates them to
// the series' scheduled events on or after asOf, all in one transaction.
// Past and already cancelled events keep their recorded values. A trainer
// change clears any substitution marks on the affected events.
func (s *SeriesService) UpdateSeries(ctx context.Context, principal Principal, seriesID string, input SeriesUpdateInput, asOf string) (UpdateSeriesResult, error) {
	if s == nil || s.store == nil {
		return UpdateSeriesResult{}, fmt.Errorf("series service not configured")
	}
	if !principal.IsAdmin() {
		return UpdateSeriesResult{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if _, err := scheduler.ParseDate(asOf); err != nil {
		vErr.add("as_of", "date must use the YYYY-MM-DD format")
	}
	if input.StartTime != nil {
		if _, err := scheduler.ToMinutes(*input.StartTime); err != nil {
			vErr.add("start_time", "start time must use the HH:MM format")
		}
	}
	if input.EndTime != nil {
		if _, err := scheduler.ToMinutes(*input.EndTime); err != nil {
			vErr.add("end_time", "end time must use the HH:MM format")
		}
	}
	if vErr.HasErrors() {
		return UpdateSeriesResult{}, vErr
	}

	logger := s.loggerWith(ctx, "UpdateSeries", "series_id", seriesID, "as_of", asOf)

	var result UpdateSeriesResult
	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		series, err := tx.Series().GetSeries(ctx, seriesID)
		if err != nil {
			return mapRepoError(err)
		}

		trainerChanged := false
		if input.TrainerID != nil && *input.TrainerID != series.TrainerID {
			if _, err := tx.Users().GetUser(ctx, *input.TrainerID); err != nil {
				return substitutionUserError(err, "trainer_id")
			}
			series.TrainerID = *input.TrainerID
			trainerChanged = true
		}
		if input.ClearRoom {
			series.RoomID = nil
		} else if input.RoomID != nil {
			if _, err := tx.Rooms().GetRoom(ctx, *input.RoomID); err != nil {
				if errors.Is(err, persistence.ErrNotFound) {
					inner := &ValidationError{}
					inner.add("room_id", "room does not exist")
					return inner
				}
				return err
			}
			series.RoomID = input.RoomID
		}
		if input.StartTime != nil {
			series.StartTime = *input.StartTime
		}
		if input.EndTime != nil {
			series.EndTime = *input.EndTime
		}
		start, err := scheduler.ToMinutes(series.StartTime)
		if err != nil {
			return err
		}
		end, err := scheduler.ToMinutes(series.EndTime)
		if err != nil {
			return err
		}
		if start >= end {
			inner := &ValidationError{}
			inner.add("end_time", "end time must come after start time")
			return inner
		}
		if input.Description != nil {
			series.Description = input.Description
		}
		series.UpdatedAt = s.now()

		if err := tx.Series().UpdateSeries(ctx, series); err != nil {
			return mapRepoError(err)
		}

		future, err := tx.Events().ListEvents(ctx, persistence.EventFilter{
			SeriesID: &seriesID,
			DateFrom: &asOf,
			Statuses: []persistence.EventStatus{persistence.EventScheduled},
		})
		if err != nil {
			return err
		}

		ids := make([]string, len(future))
		for i, event := range future {
			ids[i] = event.ID
		}

		mutation := persistence.EventMutation{
			TrainerID:   input.TrainerID,
			RoomID:      input.RoomID,
			ClearRoom:   input.ClearRoom,
			StartTime:   input.StartTime,
			EndTime:     input.EndTime,
			Description: input.Description,
		}
		if trainerChanged {
			mutation.ClearSubstitution = true
		}

		updated, err := tx.Events().UpdateEvents(ctx, ids, mutation)
		if err != nil {
			return err
		}
		result = UpdateSeriesResult{Series: series, PropagatedCount: updated}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "series update failed", "error", err, "error_kind", ErrorKind(err))
		return UpdateSeriesResult{}, err
	}

	logger.InfoContext(ctx, "series updated", "propagated_count", result.PropagatedCount)
	return result, nil
}

// DeleteSeries removes the template together with its scheduled events on or
// after asOf. Earlier events survive with their series link cleared so past
// attendance history stays intact.
func (s *SeriesService) DeleteSeries(ctx context.Context, principal Principal, seriesID string, asOf string) (DeleteSeriesResult, error) {
	if s == nil || s.store == nil {
		return DeleteSeriesResult{}, fmt.Errorf("series service not configured")
	}
	if !principal.IsAdmin() {
		return DeleteSeriesResult{}, ErrUnauthorized
	}
	if _, err := scheduler.ParseDate(asOf); err != nil {
		vErr := &ValidationError{}
		vErr.add("as_of", "date must use the YYYY-MM-DD format")
		return DeleteSeriesResult{}, vErr
	}

	logger := s.loggerWith(ctx, "DeleteSeries", "series_id", seriesID, "as_of", asOf)

	var result DeleteSeriesResult
	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		if _, err := tx.Series().GetSeries(ctx, seriesID); err != nil {
			return mapRepoError(err)
		}
		removed, err := tx.Events().DeleteEvents(ctx, persistence.EventFilter{
			SeriesID: &seriesID,
			DateFrom: &asOf,
			Statuses: []persistence.EventStatus{persistence.EventScheduled},
		})
		if err != nil {
			return err
		}
		if err := tx.Series().DeleteSeries(ctx, seriesID); err != nil {
			return mapRepoError(err)
		}
		result = DeleteSeriesResult{RemovedCount: removed}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "series deletion failed", "error", err, "error_kind", ErrorKind(err))
		return DeleteSeriesResult{}, err
	}

	logger.InfoContext(ctx, "series deleted", "removed_count", result.RemovedCount)
	return result, nil
}

// GetSeries returns a single template.
func (s *SeriesService) GetSeries(ctx context.Context, principal Principal, seriesID string) (persistence.Series, error) {
	if s == nil || s.store == nil {
		return persistence.Series{}, fmt.Errorf("series service not configured")
	}
	series, err := s.store.Series().GetSeries(ctx, seriesID)
	if err != nil {
		return persistence.Series{}, mapRepoError(err)
	}
	return series, nil
}

// ListSeriesForGroup returns the templates belonging to a group.
func (s *SeriesService) ListSeriesForGroup(ctx context.Context, principal Principal, groupID string) ([]persistence.Series, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("series service not configured")
	}
	return s.store.Series().ListSeriesForGroup(ctx, groupID)
}

func validateSeriesInput(input SeriesInput, vErr *ValidationError) []time.Weekday {
	weekdays := make([]time.Weekday, 0, len(input.Weekdays))
	seen := make(map[int]bool)
	for _, day := range input.Weekdays {
		if day < 0 || day > 6 {
			vErr.add("weekdays", "weekdays must be between 0 (Sunday) and 6 (Saturday)")
			break
		}
		if !seen[day] {
			seen[day] = true
			weekdays = append(weekdays, time.Weekday(day))
		}
	}
	if len(weekdays) == 0 {
		vErr.add("weekdays", "at least one weekday is required")
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

	if _, err := scheduler.ParseDate(input.StartDate); err != nil {
		vErr.add("start_date", "date must use the YYYY-MM-DD format")
	}
	if input.EndDate != nil {
		if _, err := scheduler.ParseDate(*input.EndDate); err != nil {
			vErr.add("end_date", "date must use the YYYY-MM-DD format")
		} else if *input.EndDate < input.StartDate {
			vErr.add("end_date", "end date must not precede the start date")
		}
	}

	if input.GroupID == "" {
		vErr.add("group_id", "group is required")
	}
	if input.TrainerID == "" {
		vErr.add("trainer_id", "trainer is required")
	}
	return weekdays
}
