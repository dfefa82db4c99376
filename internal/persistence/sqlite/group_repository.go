package sqlite

import (
	"context"

	"github.com/example/studio-scheduler/internal/persistence"
)

type groupRepository struct {
	exec   executor
	mapper *ErrorMapper
}

func (r *groupRepository) CreateGroup(ctx context.Context, group persistence.Group) error {
	_, err := r.exec.ExecContext(ctx, `
		INSERT INTO class_groups (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Name, nullString(group.Description),
		formatTime(group.CreatedAt), formatTime(group.UpdatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *groupRepository) GetGroup(ctx context.Context, id string) (persistence.Group, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM class_groups WHERE id = ?`, id)
	group, err := scanGroup(row)
	if err != nil {
		return persistence.Group{}, r.mapper.MapError(err)
	}
	return group, nil
}

func (r *groupRepository) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM class_groups ORDER BY name`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var groups []persistence.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (r *groupRepository) DeleteGroup(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM class_groups WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func scanGroup(row rowScanner) (persistence.Group, error) {
	var g persistence.Group
	var createdAt, updatedAt string
	err := row.Scan(&g.ID, &g.Name, &g.Description, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Group{}, err
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Group{}, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Group{}, err
	}
	return g, nil
}
