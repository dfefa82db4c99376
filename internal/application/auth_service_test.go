package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/testfixtures"
)

func newAuthHarness(t *testing.T, verify PasswordVerifier) (*AuthService, *testfixtures.MemStore, *testfixtures.Clock) {
	t.Helper()

	store := testfixtures.NewMemStore()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("session")
	tokens := testfixtures.NewIDGenerator("token")
	service := NewAuthService(store, verify, ids.NextFunc(), tokens.NextFunc(), clock.NowFunc(), time.Hour, nil)
	return service, store, clock
}

func acceptAnyPassword(hashedPassword, password string) error {
	if hashedPassword != password {
		return ErrInvalidCredentials
	}
	return nil
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		service, store, clock := newAuthHarness(t, acceptAnyPassword)
		store.Seed(testfixtures.NewUser(
			testfixtures.WithUserID("user-1"),
			testfixtures.WithUserPasswordHash("secret"),
		))

		result, err := service.Authenticate(context.Background(), AuthenticateParams{
			Email:    "User-1@Example.com",
			Password: "secret",
		})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.User.ID != "user-1" {
			t.Fatalf("unexpected user %s", result.User.ID)
		}
		if result.Session.Token == "" {
			t.Fatal("expected an issued token")
		}
		if !result.Session.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
			t.Fatalf("unexpected expiry %v", result.Session.ExpiresAt)
		}

		stored, err := store.Sessions().GetSession(context.Background(), result.Session.Token)
		if err != nil {
			t.Fatalf("expected session to be persisted: %v", err)
		}
		if stored.UserID != "user-1" {
			t.Fatalf("session user = %s", stored.UserID)
		}
	})

	t.Run("rejects unknown emails with the credentials sentinel", func(t *testing.T) {
		t.Parallel()

		service, _, _ := newAuthHarness(t, acceptAnyPassword)
		_, err := service.Authenticate(context.Background(), AuthenticateParams{Email: "ghost@example.com", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects wrong passwords", func(t *testing.T) {
		t.Parallel()

		service, store, _ := newAuthHarness(t, acceptAnyPassword)
		store.Seed(testfixtures.NewUser(testfixtures.WithUserID("user-1"), testfixtures.WithUserPasswordHash("secret")))

		_, err := service.Authenticate(context.Background(), AuthenticateParams{Email: "user-1@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects disabled accounts", func(t *testing.T) {
		t.Parallel()

		service, store, _ := newAuthHarness(t, acceptAnyPassword)
		store.Seed(testfixtures.NewUser(
			testfixtures.WithUserID("user-1"),
			testfixtures.WithUserPasswordHash("secret"),
			testfixtures.WithUserDisabled(),
		))

		_, err := service.Authenticate(context.Background(), AuthenticateParams{Email: "user-1@example.com", Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("rejects empty credentials without a lookup", func(t *testing.T) {
		t.Parallel()

		service, _, _ := newAuthHarness(t, acceptAnyPassword)
		if _, err := service.Authenticate(context.Background(), AuthenticateParams{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, service *AuthService) string {
		t.Helper()
		result, err := service.Authenticate(context.Background(), AuthenticateParams{Email: "user-1@example.com", Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		return result.Session.Token
	}

	t.Run("resolves a live session to its principal", func(t *testing.T) {
		t.Parallel()

		service, store, _ := newAuthHarness(t, acceptAnyPassword)
		store.Seed(testfixtures.NewUser(
			testfixtures.WithUserID("user-1"),
			testfixtures.WithUserPasswordHash("secret"),
			testfixtures.AsAdmin(),
		))
		token := login(t, service)

		principal, err := service.ValidateSession(context.Background(), token)
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.UserID != "user-1" || !principal.IsAdmin() {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("expired sessions are rejected", func(t *testing.T) {
		t.Parallel()

		service, store, clock := newAuthHarness(t, acceptAnyPassword)
		store.Seed(testfixtures.NewUser(testfixtures.WithUserID("user-1"), testfixtures.WithUserPasswordHash("secret")))
		token := login(t, service)

		clock.Advance(2 * time.Hour)
		if _, err := service.ValidateSession(context.Background(), token); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked sessions are rejected", func(t *testing.T) {
		t.Parallel()

		service, store, _ := newAuthHarness(t, acceptAnyPassword)
		store.Seed(testfixtures.NewUser(testfixtures.WithUserID("user-1"), testfixtures.WithUserPasswordHash("secret")))
		token := login(t, service)

		if err := service.Logout(context.Background(), token); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if _, err := service.ValidateSession(context.Background(), token); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("sessions of disabled accounts are rejected", func(t *testing.T) {
		t.Parallel()

		service, store, _ := newAuthHarness(t, acceptAnyPassword)
		user := testfixtures.NewUser(testfixtures.WithUserID("user-1"), testfixtures.WithUserPasswordHash("secret"))
		store.Seed(user)
		token := login(t, service)

		user.Disabled = true
		if err := store.Users().UpdateUser(context.Background(), user); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if _, err := service.ValidateSession(context.Background(), token); !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("unknown and empty tokens are unauthorized", func(t *testing.T) {
		t.Parallel()

		service, _, _ := newAuthHarness(t, acceptAnyPassword)
		if _, err := service.ValidateSession(context.Background(), "bogus"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := service.ValidateSession(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	t.Run("unknown tokens succeed", func(t *testing.T) {
		t.Parallel()

		service, _, _ := newAuthHarness(t, acceptAnyPassword)
		if err := service.Logout(context.Background(), "missing"); err != nil {
			t.Fatalf("expected idempotent logout, got %v", err)
		}
	})
}

func TestAuthService_CleanupExpiredSessions(t *testing.T) {
	t.Parallel()

	service, store, clock := newAuthHarness(t, acceptAnyPassword)
	now := clock.Now()
	store.Seed(
		persistence.Session{ID: "s-live", UserID: "user-1", Token: "live", ExpiresAt: now.Add(time.Hour)},
		persistence.Session{ID: "s-dead", UserID: "user-1", Token: "dead", ExpiresAt: now.Add(-time.Hour)},
	)

	if err := service.CleanupExpiredSessions(context.Background()); err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if _, err := store.Sessions().GetSession(context.Background(), "dead"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session to be removed, got %v", err)
	}
	if _, err := store.Sessions().GetSession(context.Background(), "live"); err != nil {
		t.Fatalf("expected live session to survive: %v", err)
	}
}
