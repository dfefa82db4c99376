package sqlite

import (
	"context"

	"github.com/example/studio-scheduler/internal/persistence"
)

type userRepository struct {
	exec   executor
	mapper *ErrorMapper
}

const userColumns = `id, email, display_name, role, password_hash, disabled, created_at, updated_at`

func (r *userRepository) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := r.exec.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.DisplayName, string(user.Role),
		user.PasswordHash, boolToInt(user.Disabled),
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *userRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.exec.ExecContext(ctx, `
		UPDATE users SET email = ?, display_name = ?, role = ?, password_hash = ?,
			disabled = ?, updated_at = ?
		WHERE id = ?`,
		user.Email, user.DisplayName, string(user.Role), user.PasswordHash,
		boolToInt(user.Disabled), formatTime(user.UpdatedAt), user.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func (r *userRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY display_name, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRow(result)
}

func scanUser(row rowScanner) (persistence.User, error) {
	var u persistence.User
	var role, createdAt, updatedAt string
	var disabled int
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &u.PasswordHash,
		&disabled, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	u.Role = persistence.Role(role)
	u.Disabled = disabled != 0
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return u, nil
}
