package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/dreamjournal/internal/journal"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/session"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	refreshFn        func(ctx context.Context, sessionID string) (*model.Session, error)
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.Profile, error)
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) Refresh(ctx context.Context, sessionID string) (*model.Session, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.Profile, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockJournalService struct {
	submitFn func(ctx context.Context, identity *session.Identity, dreamText string, emotions []string) (*journal.Submission, error)
	listFn   func(ctx context.Context, identity *session.Identity) ([]journal.Entry, error)
	deleteFn func(ctx context.Context, identity *session.Identity, dreamID string) error

	submitIdentities []*session.Identity
	deleteCalls      []string
}

func (m *mockJournalService) Submit(ctx context.Context, identity *session.Identity, dreamText string, emotions []string) (*journal.Submission, error) {
	m.submitIdentities = append(m.submitIdentities, identity)
	if m.submitFn != nil {
		return m.submitFn(ctx, identity, dreamText, emotions)
	}
	return &journal.Submission{Persistence: journal.PersistSkipped}, nil
}

func (m *mockJournalService) List(ctx context.Context, identity *session.Identity) ([]journal.Entry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, identity)
	}
	return nil, nil
}

func (m *mockJournalService) Delete(ctx context.Context, identity *session.Identity, dreamID string) error {
	m.deleteCalls = append(m.deleteCalls, dreamID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identity, dreamID)
	}
	return nil
}

type mockProfileService struct {
	getFn    func(ctx context.Context, userID string) (*model.Profile, error)
	updateFn func(ctx context.Context, userID, displayName string) (*model.Profile, error)
}

func (m *mockProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, model.NewProfileNotFoundError()
}

func (m *mockProfileService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*model.Profile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, displayName)
	}
	return &model.Profile{ID: userID, DisplayName: &displayName}, nil
}

// withIdentity はリクエストに認証済みIdentityを付与する。
func withIdentity(req *http.Request, userID string) *http.Request {
	return req.WithContext(session.NewContext(req.Context(), &session.Identity{
		UserID:    userID,
		SessionID: "session-" + userID,
	}))
}

// findCookie はレスポンスから指定名のCookieを探す。
func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
