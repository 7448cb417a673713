package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/dreamjournal/internal/auth"
	"github.com/hitoshi/dreamjournal/internal/middleware"
	"github.com/hitoshi/dreamjournal/internal/model"
)

var testAuthConfig = AuthHandlerConfig{
	BaseURL:       "http://localhost:8080",
	SessionMaxAge: 86400,
}

func TestAuthHandler_Login_RedirectsToOAuthURL(t *testing.T) {
	svc := &mockAuthService{
		getLoginURLFn: func(state string) string {
			return "https://accounts.google.com/o/oauth2/auth?state=" + state
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}

	state := findCookie(resp, oauthStateCookie)
	if state == nil || state.Value == "" {
		t.Fatal("expected oauth_state cookie")
	}
	if !state.HttpOnly {
		t.Error("oauth_state cookie should be HttpOnly")
	}
	if location := resp.Header.Get("Location"); !strings.HasSuffix(location, "state="+state.Value) {
		t.Errorf("Location = %q, should carry the state %q", location, state.Value)
	}
}

func TestAuthHandler_Callback_Success_SetsCookieAndRedirects(t *testing.T) {
	var gotCode string
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			gotCode = code
			return &model.Session{
				ID:        "session-id-abc",
				UserID:    "user-id-123",
				ExpiresAt: time.Now().Add(24 * time.Hour),
			}, nil
		},
	}
	h := NewAuthHandler(svc, AuthHandlerConfig{BaseURL: "http://localhost:8080/", SessionMaxAge: 3600})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=test-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "test-state"})
	w := httptest.NewRecorder()

	h.Callback(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if location := resp.Header.Get("Location"); location != "http://localhost:8080/dashboard" {
		t.Errorf("Location = %q, want %q", location, "http://localhost:8080/dashboard")
	}
	if gotCode != "test-code" {
		t.Errorf("code = %q", gotCode)
	}

	sessionCookie := findCookie(resp, "session_id")
	if sessionCookie == nil {
		t.Fatal("expected session_id cookie to be set")
	}
	if sessionCookie.Value != "session-id-abc" {
		t.Errorf("session cookie value = %q, want %q", sessionCookie.Value, "session-id-abc")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if sessionCookie.MaxAge != 3600 {
		t.Errorf("session cookie MaxAge = %d, want 3600", sessionCookie.MaxAge)
	}
	if sessionCookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("session cookie SameSite = %v, want %v", sessionCookie.SameSite, http.SameSiteLaxMode)
	}
}

func TestAuthHandler_Callback_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		stateCookie  string
		callbackErr  error
		wantStatus   int
		wantLocation string
	}{
		{"missing code", "/auth/google/callback?state=s", "s", nil, http.StatusBadRequest, ""},
		{"state mismatch", "/auth/google/callback?code=c&state=wrong", "s", nil, http.StatusBadRequest, ""},
		{"missing state cookie", "/auth/google/callback?code=c&state=s", "", nil, http.StatusBadRequest, ""},
		{"consent denied", "/auth/google/callback?error=access_denied&state=s", "s", nil,
			http.StatusSeeOther, "http://localhost:8080/login?error=denied"},
		{"unverified email", "/auth/google/callback?code=c&state=s", "s", fmt.Errorf("exchange: %w", auth.ErrEmailNotVerified),
			http.StatusSeeOther, "http://localhost:8080/login?error=unverified"},
		{"service error", "/auth/google/callback?code=c&state=s", "s", errors.New("auth failed"),
			http.StatusSeeOther, "http://localhost:8080/login?error=failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
					if tt.callbackErr != nil {
						return nil, tt.callbackErr
					}
					t.Fatal("HandleCallback should not be called")
					return nil, nil
				},
			}
			h := NewAuthHandler(svc, testAuthConfig)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.stateCookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tt.stateCookie})
			}
			w := httptest.NewRecorder()

			h.Callback(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if got := resp.Header.Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			if findCookie(resp, middleware.SessionCookieName) != nil {
				t.Error("session cookie must not be issued")
			}
		})
	}
}

func TestAuthHandler_Logout_ClearsCookieAndRedirects(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return errors.New("db down")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-to-logout"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loggedOut != "session-to-logout" {
		t.Errorf("logged out session = %q", loggedOut)
	}

	// ログアウト失敗してもCookieはクリアされること
	sessionCookie := findCookie(resp, "session_id")
	if sessionCookie == nil {
		t.Fatal("expected session_id cookie to be cleared")
	}
	if sessionCookie.MaxAge != -1 {
		t.Errorf("session cookie MaxAge = %d, want -1 (delete)", sessionCookie.MaxAge)
	}
}

func TestAuthHandler_Logout_NoSession_StillRedirects(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			t.Fatal("Logout should not be called without a session cookie")
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Result().StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusSeeOther)
	}
}

func TestAuthHandler_Refresh_ExtendsCookie(t *testing.T) {
	expires := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, sessionID string) (*model.Session, error) {
			return &model.Session{ID: sessionID, UserID: "user-1", ExpiresAt: expires}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "session-1"})
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]time.Time
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !body["expires_at"].Equal(expires) {
		t.Errorf("expires_at = %v, want %v", body["expires_at"], expires)
	}
	if c := findCookie(resp, "session_id"); c == nil || c.MaxAge != testAuthConfig.SessionMaxAge {
		t.Errorf("session cookie = %+v, want MaxAge %d", c, testAuthConfig.SessionMaxAge)
	}
}

func TestAuthHandler_Refresh_ExpiredSession_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig)

	for _, withCookie := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		if withCookie {
			req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired"})
		}
		w := httptest.NewRecorder()

		h.Refresh(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("withCookie=%v: status = %d, want %d", withCookie, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}

func TestAuthHandler_Me_Authenticated_ReturnsProfileJSON(t *testing.T) {
	name := "Night Owl"
	svc := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.Profile, error) {
			return &model.Profile{ID: "user-id-me", Email: "me@example.com", DisplayName: &name}, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session"})
	w := httptest.NewRecorder()

	h.Me(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.ID != "user-id-me" || body.DisplayName == nil || *body.DisplayName != name {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Me_Unauthenticated_Returns401(t *testing.T) {
	svc := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.Profile, error) {
			return nil, errors.New("session not found or expired")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig)

	for _, withCookie := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if withCookie {
			req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired"})
		}
		w := httptest.NewRecorder()

		h.Me(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("withCookie=%v: status = %d, want %d", withCookie, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}
}
