package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates authentication flows such as login and session validation.
type AuthService struct {
	store          persistence.Store
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(store persistence.Store, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		store:          store,
		verifyPassword: verify,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil || s.store == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	user, lookupErr := s.store.Users().GetUserByEmail(ctx, email)
	if lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = lookupErr
		return
	}

	if user.Disabled {
		err = ErrAccountDisabled
		return
	}

	if verifyErr := s.verifyPassword(user.PasswordHash, params.Password); verifyErr != nil {
		if errors.Is(verifyErr, ErrInvalidCredentials) {
			err = ErrInvalidCredentials
			return
		}
		err = verifyErr
		return
	}

	issuedAt := s.now()
	session := persistence.Session{
		ID:          s.idGenerator(),
		UserID:      user.ID,
		Token:       s.tokenGenerator(),
		Fingerprint: params.Fingerprint,
		ExpiresAt:   issuedAt.Add(s.sessionTTL),
		CreatedAt:   issuedAt,
		UpdatedAt:   issuedAt,
	}

	session, err = s.store.Sessions().CreateSession(ctx, session)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: user, Session: session}
	return
}

// ValidateSession resolves a bearer token to the authenticated principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.store == nil {
		return Principal{}, fmt.Errorf("auth service not configured")
	}
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.store.Sessions().GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	now := s.now()
	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(now) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.store.Users().GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if user.Disabled {
		return Principal{}, ErrAccountDisabled
	}

	return Principal{UserID: user.ID, Role: user.Role}, nil
}

// Logout revokes the session identified by token. Unknown tokens succeed so
// logout stays idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("auth service not configured")
	}
	if token == "" {
		return nil
	}

	logger := s.loggerWith(ctx, "Logout")

	_, err := s.store.Sessions().RevokeSession(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		logger.ErrorContext(ctx, "logout failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// CleanupExpiredSessions removes sessions whose expiry lies before now.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("auth service not configured")
	}
	return s.store.Sessions().DeleteExpiredSessions(ctx, s.now())
}
