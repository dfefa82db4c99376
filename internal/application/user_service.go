package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// PasswordHasher derives a storable hash from a plain text password.
type PasswordHasher func(password string) (string, error)

// UserService manages staff accounts.
type UserService struct {
	store        persistence.Store
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for user operations.
func NewUserService(store persistence.Store, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		store:        store,
		hashPassword: hashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func validateUserInput(input UserInput, requirePassword bool, vErr *ValidationError) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email address is malformed")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	switch input.Role {
	case persistence.RoleAdmin, persistence.RoleTrainer:
	default:
		vErr.add("role", "role must be admin or trainer")
	}
	if requirePassword && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
}

// CreateUser persists a new staff account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, principal Principal, input UserInput) (persistence.User, error) {
	if s == nil || s.store == nil {
		return persistence.User{}, fmt.Errorf("user service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateUserInput(input, true, vErr)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return persistence.User{}, err
	}

	createdAt := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	logger := s.loggerWith(ctx, "CreateUser", "user_id", user.ID)

	if err := s.store.Users().CreateUser(ctx, user); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.User{}, err
	}

	logger.InfoContext(ctx, "user created", "role", string(user.Role))
	return user, nil
}

// GetUser returns a single account.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (persistence.User, error) {
	if s == nil || s.store == nil {
		return persistence.User{}, fmt.Errorf("user service not configured")
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return persistence.User{}, ErrUnauthorized
	}
	user, err := s.store.Users().GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapRepoError(err)
	}
	return user, nil
}

// ListUsers returns every staff account ordered by display name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("user service not configured")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.store.Users().ListUsers(ctx)
}

// SetUserDisabled toggles an account's disabled flag. Disabled accounts
// cannot authenticate and fail session validation.
func (s *UserService) SetUserDisabled(ctx context.Context, principal Principal, userID string, disabled bool) (persistence.User, error) {
	if s == nil || s.store == nil {
		return persistence.User{}, fmt.Errorf("user service not configured")
	}
	if !principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	user, err := s.store.Users().GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapRepoError(err)
	}
	user.Disabled = disabled
	user.UpdatedAt = s.now()

	if err := s.store.Users().UpdateUser(ctx, user); err != nil {
		return persistence.User{}, mapRepoError(err)
	}
	return user, nil
}
