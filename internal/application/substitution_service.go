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

// SubstitutionService reassigns a trainer's scheduled classes to a substitute
// over an absence window.
type SubstitutionService struct {
	store  persistence.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewSubstitutionService wires dependencies for substitution operations.
func NewSubstitutionService(store persistence.Store, now func() time.Time, logger *slog.Logger) *SubstitutionService {
	if now == nil {
		now = time.Now
	}
	return &SubstitutionService{
		store:  store,
		now:    now,
		logger: defaultLogger(logger),
	}
}

func (s *SubstitutionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SubstitutionService", operation, attrs...)
}

// EligibleForSubstitution reports whether an event should be handed to a
// substitute. Cancelled classes are skipped, completed ones still get the
// reassignment on record, and an event already covered by a substitute is
// never reassigned again.
func EligibleForSubstitution(event persistence.Event, absentTrainerID string) bool {
	if event.Status == persistence.EventCancelled {
		return false
	}
	if event.TrainerID != absentTrainerID {
		return false
	}
	return !event.IsSubstitution
}

// Substitute reassigns every eligible event of the absent trainer within the
// inclusive date window to the substitute, marking each event with the
// original trainer and the reassignment time. The whole reassignment runs in
// one transaction. A window with no eligible events succeeds with a zero
// count.
func (s *SubstitutionService) Substitute(ctx context.Context, principal Principal, input SubstitutionInput) (SubstitutionResult, error) {
	if s == nil || s.store == nil {
		return SubstitutionResult{}, fmt.Errorf("substitution service not configured")
	}
	if !principal.IsAdmin() {
		return SubstitutionResult{}, ErrUnauthorized
	}

	// An absence of a single day may omit the window end.
	if input.DateTo == "" {
		input.DateTo = input.DateFrom
	}

	vErr := &ValidationError{}
	if input.AbsentTrainerID == "" {
		vErr.add("absent_trainer_id", "absent trainer is required")
	}
	if input.SubstituteTrainerID == "" {
		vErr.add("substitute_trainer_id", "substitute trainer is required")
	}
	if input.AbsentTrainerID != "" && input.AbsentTrainerID == input.SubstituteTrainerID {
		vErr.add("substitute_trainer_id", "substitute must differ from the absent trainer")
	}
	if _, err := scheduler.ParseDate(input.DateFrom); err != nil {
		vErr.add("date_from", "date must use the YYYY-MM-DD format")
	}
	if _, err := scheduler.ParseDate(input.DateTo); err != nil {
		vErr.add("date_to", "date must use the YYYY-MM-DD format")
	}
	if !vErr.HasErrors() && input.DateFrom > input.DateTo {
		vErr.add("date_to", "window end must not precede its start")
	}
	if vErr.HasErrors() {
		return SubstitutionResult{}, vErr
	}

	logger := s.loggerWith(ctx, "Substitute",
		"absent_trainer_id", input.AbsentTrainerID,
		"substitute_trainer_id", input.SubstituteTrainerID,
		"date_from", input.DateFrom,
		"date_to", input.DateTo,
	)

	var result SubstitutionResult
	err := s.store.InTransaction(ctx, func(tx persistence.Store) error {
		absent, err := tx.Users().GetUser(ctx, input.AbsentTrainerID)
		if err != nil {
			return substitutionUserError(err, "absent_trainer_id")
		}
		substitute, err := tx.Users().GetUser(ctx, input.SubstituteTrainerID)
		if err != nil {
			return substitutionUserError(err, "substitute_trainer_id")
		}
		if substitute.Disabled {
			inner := &ValidationError{}
			inner.add("substitute_trainer_id", "substitute account is disabled")
			return inner
		}

		events, err := tx.Events().ListEvents(ctx, persistence.EventFilter{
			TrainerID: &input.AbsentTrainerID,
			DateFrom:  &input.DateFrom,
			DateTo:    &input.DateTo,
			Statuses:  []persistence.EventStatus{persistence.EventScheduled, persistence.EventCompleted},
		})
		if err != nil {
			return err
		}

		var ids []string
		for _, event := range events {
			if EligibleForSubstitution(event, input.AbsentTrainerID) {
				ids = append(ids, event.ID)
			}
		}

		result = SubstitutionResult{
			AbsentTrainerName:     absent.DisplayName,
			SubstituteTrainerName: substitute.DisplayName,
		}
		if len(ids) == 0 {
			return nil
		}

		updated, err := tx.Events().UpdateEvents(ctx, ids, persistence.EventMutation{
			TrainerID: &input.SubstituteTrainerID,
			Substitution: &persistence.SubstitutionMark{
				OriginalTrainerID: input.AbsentTrainerID,
				At:                s.now(),
			},
		})
		if err != nil {
			return err
		}
		result.UpdatedCount = updated

		details, err := tx.Events().ListEventDetails(ctx, persistence.EventFilter{
			TrainerID: &input.SubstituteTrainerID,
			DateFrom:  &input.DateFrom,
			DateTo:    &input.DateTo,
		})
		if err != nil {
			return err
		}
		reassigned := make(map[string]bool, len(ids))
		for _, id := range ids {
			reassigned[id] = true
		}
		for _, detail := range details {
			if reassigned[detail.ID] {
				result.UpdatedEvents = append(result.UpdatedEvents, detail)
			}
		}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "substitution failed", "error", err, "error_kind", ErrorKind(err))
		return SubstitutionResult{}, err
	}

	logger.InfoContext(ctx, "substitution applied", "updated_count", result.UpdatedCount)
	return result, nil
}

func substitutionUserError(err error, field string) error {
	if errors.Is(err, persistence.ErrNotFound) {
		inner := &ValidationError{}
		inner.add(field, "trainer does not exist")
		return inner
	}
	return err
}
