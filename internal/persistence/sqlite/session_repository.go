package sqlite

import (
	"context"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

type sessionRepository struct {
	exec   executor
	mapper *ErrorMapper
}

const sessionColumns = `id, user_id, token, fingerprint, expires_at, created_at, updated_at, revoked_at`

func (r *sessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	_, err := r.exec.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Token, session.Fingerprint,
		formatTime(session.ExpiresAt), formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt), formatTimePtr(session.RevokedAt))
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

func (r *sessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := r.exec.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token)
	session, err := scanSession(row)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

func (r *sessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	result, err := r.exec.ExecContext(ctx, `
		UPDATE sessions SET expires_at = ?, updated_at = ?, revoked_at = ?
		WHERE token = ?`,
		formatTime(session.ExpiresAt), formatTime(session.UpdatedAt),
		formatTimePtr(session.RevokedAt), session.Token)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	if err := requireRow(result); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

func (r *sessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, err := r.GetSession(ctx, token)
	if err != nil {
		return persistence.Session{}, err
	}
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	return r.UpdateSession(ctx, session)
}

func (r *sessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.exec.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var s persistence.Session
	var expiresAt, createdAt, updatedAt string
	var revokedAt *string
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.Fingerprint,
		&expiresAt, &createdAt, &updatedAt, &revokedAt)
	if err != nil {
		return persistence.Session{}, err
	}
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, err
	}
	if s.RevokedAt, err = parseTimePtr(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return s, nil
}
