package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
)

type stubValidator struct {
	validate func(ctx context.Context, token string) (application.Principal, error)
}

func (s *stubValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return s.validate(ctx, token)
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	principal := application.Principal{UserID: "user-1", Role: persistence.RoleTrainer}

	newProtected := func(validator SessionValidator, captured *application.Principal) http.Handler {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := PrincipalFromContext(r.Context()); ok && captured != nil {
				*captured = p
			}
			w.WriteHeader(http.StatusOK)
		})
		return RequireSession(validator, slog.New(slog.NewTextHandler(io.Discard, nil)))(next)
	}

	t.Run("accepts a bearer token and injects the principal", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{
			validate: func(ctx context.Context, token string) (application.Principal, error) {
				if token != "token-1" {
					t.Fatalf("token = %q, want token-1", token)
				}
				return principal, nil
			},
		}
		var got application.Principal
		handler := newProtected(validator, &got)

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		req.Header.Set("Authorization", "Bearer token-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got.UserID != "user-1" || got.Role != persistence.RoleTrainer {
			t.Fatalf("principal = %+v", got)
		}
	})

	t.Run("accepts the session cookie", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{
			validate: func(ctx context.Context, token string) (application.Principal, error) {
				if token != "cookie-token" {
					t.Fatalf("token = %q, want cookie-token", token)
				}
				return principal, nil
			},
		}
		handler := newProtected(validator, nil)

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("rejects requests without a token", func(t *testing.T) {
		t.Parallel()

		validator := &stubValidator{
			validate: func(ctx context.Context, token string) (application.Principal, error) {
				t.Fatal("validator must not be called without a token")
				return application.Principal{}, nil
			},
		}
		handler := newProtected(validator, nil)

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("distinguishes expiry, revocation, and invalid sessions", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name        string
			err         error
			wantStatus  int
			wantMessage string
		}{
			{"expired", application.ErrSessionExpired, http.StatusUnauthorized, "有効期限"},
			{"revoked", application.ErrSessionRevoked, http.StatusUnauthorized, "失効"},
			{"unknown token", application.ErrUnauthorized, http.StatusUnauthorized, "無効"},
			{"disabled account", application.ErrAccountDisabled, http.StatusUnauthorized, "無効"},
			{"storage failure", io.ErrUnexpectedEOF, http.StatusInternalServerError, "エラー"},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				validator := &stubValidator{
					validate: func(ctx context.Context, token string) (application.Principal, error) {
						return application.Principal{}, tc.err
					},
				}
				handler := newProtected(validator, nil)

				req := httptest.NewRequest(http.MethodGet, "/events", nil)
				req.Header.Set("Authorization", "Bearer token-1")
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				if rec.Code != tc.wantStatus {
					t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
				}
				if !strings.Contains(rec.Body.String(), tc.wantMessage) {
					t.Fatalf("body %q does not mention %q", rec.Body.String(), tc.wantMessage)
				}
			})
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("injects a request scoped logger", func(t *testing.T) {
		t.Parallel()

		var sawLogger bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawLogger = LoggerFromContext(r.Context()) != nil
			w.WriteHeader(http.StatusNoContent)
		})
		handler := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))(next)

		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if !sawLogger {
			t.Fatal("expected a logger in the request context")
		}
	})

	t.Run("logs request metadata with a sequence number", func(t *testing.T) {
		t.Parallel()

		var buf strings.Builder
		handler := RequestLogger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/substitutions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		output := buf.String()
		for _, want := range []string{"request_id=1", "method=POST", "path=/substitutions", "request started", "request completed"} {
			if !strings.Contains(output, want) {
				t.Fatalf("log output %q missing %q", output, want)
			}
		}
	})
}
