package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/scheduler"
)

// StatusReconciler transitions scheduled events whose end time has passed to
// completed. Reconciliation runs lazily before schedule reads, so a correct
// status never depends on a background job having fired.
type StatusReconciler struct {
	store  persistence.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewStatusReconciler wires dependencies for status reconciliation.
func NewStatusReconciler(store persistence.Store, now func() time.Time, logger *slog.Logger) *StatusReconciler {
	if now == nil {
		now = time.Now
	}
	return &StatusReconciler{
		store:  store,
		now:    now,
		logger: defaultLogger(logger),
	}
}

// IsElapsed reports whether an event at date/endTime lies in the past
// relative to the reference instant. The event's day counts as elapsed in
// full once the reference date passes it; on the reference date itself the
// event is elapsed once its end time is reached.
func IsElapsed(date, endTime string, reference time.Time) (bool, error) {
	if _, err := scheduler.ParseDate(date); err != nil {
		return false, err
	}
	end, err := scheduler.ToMinutes(endTime)
	if err != nil {
		return false, err
	}

	today := scheduler.FormatDate(reference)
	switch {
	case date < today:
		return true, nil
	case date > today:
		return false, nil
	default:
		return end <= scheduler.MinuteOfDay(reference), nil
	}
}

// Reconcile completes every elapsed scheduled event and reports how many
// rows changed. Running it twice in a row is a no-op the second time.
func (r *StatusReconciler) Reconcile(ctx context.Context) (int64, error) {
	if r == nil || r.store == nil {
		return 0, fmt.Errorf("status reconciler not configured")
	}

	now := r.now()
	day := scheduler.FormatDate(now)
	timeOfDay := now.Format("15:04")

	changed, err := r.store.Events().CompleteElapsed(ctx, day, timeOfDay, now)
	if err != nil {
		serviceLogger(ctx, r.logger, "StatusReconciler", "Reconcile").
			ErrorContext(ctx, "reconciliation failed", "error", err)
		return 0, err
	}

	if changed > 0 {
		serviceLogger(ctx, r.logger, "StatusReconciler", "Reconcile").
			InfoContext(ctx, "completed elapsed events", "count", changed)
	}
	return changed, nil
}
