package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

type eventRepository struct {
	exec   executor
	mapper *ErrorMapper
}

const eventColumns = `id, date, start_time, end_time, status, group_id, trainer_id,
	room_id, series_id, is_substitution, original_trainer_id, substituted_at,
	description, created_at, updated_at`

func (r *eventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	_, err := r.exec.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Date, event.StartTime, event.EndTime, string(event.Status),
		event.GroupID, event.TrainerID, nullString(event.RoomID), nullString(event.SeriesID),
		boolToInt(event.IsSubstitution), nullString(event.OriginalTrainerID),
		formatTimePtr(event.SubstitutedAt), nullString(event.Description),
		formatTime(event.CreatedAt), formatTime(event.UpdatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *eventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.Event{}, r.mapper.MapError(err)
	}
	return event, nil
}

func (r *eventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	result, err := r.exec.ExecContext(ctx, `
		UPDATE events SET
			date = ?, start_time = ?, end_time = ?, status = ?,
			group_id = ?, trainer_id = ?, room_id = ?, series_id = ?,
			is_substitution = ?, original_trainer_id = ?, substituted_at = ?,
			description = ?, updated_at = ?
		WHERE id = ?`,
		event.Date, event.StartTime, event.EndTime, string(event.Status),
		event.GroupID, event.TrainerID, nullString(event.RoomID), nullString(event.SeriesID),
		boolToInt(event.IsSubstitution), nullString(event.OriginalTrainerID),
		formatTimePtr(event.SubstitutedAt), nullString(event.Description),
		formatTime(event.UpdatedAt), event.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func (r *eventRepository) UpdateEvents(ctx context.Context, ids []string, mutation persistence.EventMutation) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var sets []string
	var args []any
	if mutation.TrainerID != nil {
		sets = append(sets, "trainer_id = ?")
		args = append(args, *mutation.TrainerID)
	}
	if mutation.ClearRoom {
		sets = append(sets, "room_id = NULL")
	} else if mutation.RoomID != nil {
		sets = append(sets, "room_id = ?")
		args = append(args, *mutation.RoomID)
	}
	if mutation.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, *mutation.StartTime)
	}
	if mutation.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, *mutation.EndTime)
	}
	if mutation.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *mutation.Description)
	}
	if mutation.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*mutation.Status))
	}
	if mutation.Substitution != nil {
		sets = append(sets, "is_substitution = 1", "original_trainer_id = ?", "substituted_at = ?")
		args = append(args, mutation.Substitution.OriginalTrainerID, formatTime(mutation.Substitution.At))
	} else if mutation.ClearSubstitution {
		sets = append(sets, "is_substitution = 0", "original_trainer_id = NULL", "substituted_at = NULL")
	}
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()))

	query := fmt.Sprintf(`UPDATE events SET %s WHERE id IN (%s)`,
		strings.Join(sets, ", "), placeholders(len(ids)))
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return result.RowsAffected()
}

func (r *eventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	where, args := buildEventFilter(filter, "")
	rows, err := r.exec.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events`+where+` ORDER BY date, start_time, id`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListEventDetails(ctx context.Context, filter persistence.EventFilter) ([]persistence.EventDetail, error) {
	where, args := buildEventFilter(filter, "e.")
	rows, err := r.exec.QueryContext(ctx, `
		SELECT e.id, e.date, e.start_time, e.end_time, e.status, e.group_id,
			e.trainer_id, e.room_id, e.series_id, e.is_substitution,
			e.original_trainer_id, e.substituted_at, e.description,
			e.created_at, e.updated_at,
			g.name, t.display_name, rm.name, ot.display_name
		FROM events e
		JOIN class_groups g ON g.id = e.group_id
		JOIN users t ON t.id = e.trainer_id
		LEFT JOIN rooms rm ON rm.id = e.room_id
		LEFT JOIN users ot ON ot.id = e.original_trainer_id`+
		where+` ORDER BY e.date, e.start_time, e.id`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var details []persistence.EventDetail
	for rows.Next() {
		var d persistence.EventDetail
		var status, createdAt, updatedAt string
		var substitutedAt *string
		var isSubInt int
		err := rows.Scan(
			&d.ID, &d.Date, &d.StartTime, &d.EndTime, &status, &d.GroupID,
			&d.TrainerID, &d.RoomID, &d.SeriesID, &isSubInt,
			&d.OriginalTrainerID, &substitutedAt, &d.Description,
			&createdAt, &updatedAt,
			&d.GroupName, &d.TrainerName, &d.RoomName, &d.OriginalTrainerName)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		d.Status = persistence.EventStatus(status)
		d.IsSubstitution = isSubInt != 0
		if d.SubstitutedAt, err = parseTimePtr(substitutedAt); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *eventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func (r *eventRepository) DeleteEvents(ctx context.Context, filter persistence.EventFilter) (int64, error) {
	where, args := buildEventFilter(filter, "")
	result, err := r.exec.ExecContext(ctx, `DELETE FROM events`+where, args...)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return result.RowsAffected()
}

func (r *eventRepository) CompleteElapsed(ctx context.Context, day string, timeOfDay string, now time.Time) (int64, error) {
	result, err := r.exec.ExecContext(ctx, `
		UPDATE events SET status = ?, updated_at = ?
		WHERE status = ? AND (date < ? OR (date = ? AND end_time <= ?))`,
		string(persistence.EventCompleted), formatTime(now),
		string(persistence.EventScheduled), day, day, timeOfDay)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return result.RowsAffected()
}

// buildEventFilter renders the WHERE clause for an EventFilter. prefix
// qualifies column names when the query joins other tables.
func buildEventFilter(filter persistence.EventFilter, prefix string) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		conds = append(conds, prefix+cond)
		args = append(args, arg)
	}
	if filter.GroupID != nil {
		add("group_id = ?", *filter.GroupID)
	}
	if filter.TrainerID != nil {
		add("trainer_id = ?", *filter.TrainerID)
	}
	if filter.RoomID != nil {
		add("room_id = ?", *filter.RoomID)
	}
	if filter.SeriesID != nil {
		add("series_id = ?", *filter.SeriesID)
	}
	if filter.DateFrom != nil {
		add("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("date <= ?", *filter.DateTo)
	}
	if len(filter.Statuses) > 0 {
		conds = append(conds, fmt.Sprintf("%sstatus IN (%s)", prefix, placeholders(len(filter.Statuses))))
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var e persistence.Event
	var status, createdAt, updatedAt string
	var substitutedAt *string
	var isSubInt int
	err := row.Scan(
		&e.ID, &e.Date, &e.StartTime, &e.EndTime, &status, &e.GroupID,
		&e.TrainerID, &e.RoomID, &e.SeriesID, &isSubInt,
		&e.OriginalTrainerID, &substitutedAt, &e.Description,
		&createdAt, &updatedAt)
	if err != nil {
		return persistence.Event{}, err
	}
	e.Status = persistence.EventStatus(status)
	e.IsSubstitution = isSubInt != 0
	if e.SubstitutedAt, err = parseTimePtr(substitutedAt); err != nil {
		return persistence.Event{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Event{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Event{}, err
	}
	return e, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// requireRow converts a zero-row update or delete into ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
