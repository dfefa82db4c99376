package sqlite

import (
	"context"

	"github.com/example/studio-scheduler/internal/persistence"
)

type seriesRepository struct {
	exec   executor
	mapper *ErrorMapper
}

const seriesColumns = `id, group_id, trainer_id, room_id, weekdays, start_time,
	end_time, start_date, end_date, description, created_at, updated_at`

func (r *seriesRepository) CreateSeries(ctx context.Context, series persistence.Series) error {
	_, err := r.exec.ExecContext(ctx, `
		INSERT INTO series (`+seriesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		series.ID, series.GroupID, series.TrainerID, nullString(series.RoomID),
		encodeWeekdays(series.Weekdays), series.StartTime, series.EndTime,
		series.StartDate, nullString(series.EndDate), nullString(series.Description),
		formatTime(series.CreatedAt), formatTime(series.UpdatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *seriesRepository) GetSeries(ctx context.Context, id string) (persistence.Series, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if err != nil {
		return persistence.Series{}, r.mapper.MapError(err)
	}
	return series, nil
}

func (r *seriesRepository) UpdateSeries(ctx context.Context, series persistence.Series) error {
	result, err := r.exec.ExecContext(ctx, `
		UPDATE series SET
			group_id = ?, trainer_id = ?, room_id = ?, weekdays = ?,
			start_time = ?, end_time = ?, start_date = ?, end_date = ?,
			description = ?, updated_at = ?
		WHERE id = ?`,
		series.GroupID, series.TrainerID, nullString(series.RoomID),
		encodeWeekdays(series.Weekdays), series.StartTime, series.EndTime,
		series.StartDate, nullString(series.EndDate), nullString(series.Description),
		formatTime(series.UpdatedAt), series.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func (r *seriesRepository) DeleteSeries(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func (r *seriesRepository) ListSeriesForGroup(ctx context.Context, groupID string) ([]persistence.Series, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE group_id = ? ORDER BY start_date, id`, groupID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var list []persistence.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		list = append(list, series)
	}
	return list, rows.Err()
}

func (r *seriesRepository) DeleteSeriesForGroup(ctx context.Context, groupID string) (int64, error) {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM series WHERE group_id = ?`, groupID)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return result.RowsAffected()
}

func scanSeries(row rowScanner) (persistence.Series, error) {
	var s persistence.Series
	var weekdays, createdAt, updatedAt string
	err := row.Scan(
		&s.ID, &s.GroupID, &s.TrainerID, &s.RoomID, &weekdays,
		&s.StartTime, &s.EndTime, &s.StartDate, &s.EndDate, &s.Description,
		&createdAt, &updatedAt)
	if err != nil {
		return persistence.Series{}, err
	}
	if s.Weekdays, err = decodeWeekdays(weekdays); err != nil {
		return persistence.Series{}, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Series{}, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Series{}, err
	}
	return s, nil
}
