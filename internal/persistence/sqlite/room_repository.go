package sqlite

import (
	"context"

	"github.com/example/studio-scheduler/internal/persistence"
)

type roomRepository struct {
	exec   executor
	mapper *ErrorMapper
}

func (r *roomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	_, err := r.exec.ExecContext(ctx, `
		INSERT INTO rooms (id, name, location, capacity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Location, room.Capacity,
		formatTime(room.CreatedAt), formatTime(room.UpdatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *roomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

func (r *roomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.exec.ExecContext(ctx, `
		UPDATE rooms SET name = ?, location = ?, capacity = ?, updated_at = ?
		WHERE id = ?`,
		room.Name, room.Location, room.Capacity, formatTime(room.UpdatedAt), room.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func (r *roomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *roomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var rm persistence.Room
	var createdAt, updatedAt string
	err := row.Scan(&rm.ID, &rm.Name, &rm.Location, &rm.Capacity, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Room{}, err
	}
	if rm.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if rm.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return rm, nil
}
