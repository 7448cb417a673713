// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/repository"
	"github.com/hitoshi/dreamjournal/internal/session"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
	Provider       string // "google" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// EventPublisher はセッションイベントの配信先。
type EventPublisher interface {
	Publish(e session.Event)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	events      EventPublisher
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	events EventPublisher,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		events:      events,
		config:      config,
		now:         time.Now,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 未登録ユーザーの場合はprofilesレコードとidentitiesレコードを同時に自動作成する。
// 発行に成功するとSignedInイベントを配信する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	existing, err := s.profileRepo.FindByIdentity(ctx, userInfo.Provider, userInfo.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by identity: %w", err)
	}

	var userID string

	if existing != nil {
		userID = existing.ID
		slog.Info("existing user logged in",
			slog.String("user_id", userID),
			slog.String("provider", userInfo.Provider),
		)
	} else {
		now := s.now()
		profile := &model.Profile{
			ID:          uuid.New().String(),
			Email:       userInfo.Email,
			DisplayName: optionalString(userInfo.Name),
			AvatarURL:   optionalString(userInfo.AvatarURL),
			CreatedAt:   now,
		}
		newIdentity := &model.Identity{
			ID:             uuid.New().String(),
			ProfileID:      profile.ID,
			Provider:       userInfo.Provider,
			ProviderUserID: userInfo.ProviderUserID,
			CreatedAt:      now,
		}

		if err := s.profileRepo.CreateWithIdentity(ctx, profile, newIdentity); err != nil {
			return nil, fmt.Errorf("failed to create profile and identity: %w", err)
		}

		userID = profile.ID
		slog.Info("new user created",
			slog.String("user_id", userID),
			slog.String("provider", userInfo.Provider),
		)
	}

	sess, err := s.createSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.publish(session.SignedIn, sess.UserID, sess.ID)
	return sess, nil
}

// Logout はセッションを破棄し、SignedOutイベントを配信する。
// 既に失効しているセッションの場合はイベントを配信しない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if sess != nil {
		s.publish(session.SignedOut, sess.UserID, sess.ID)
	}
	return nil
}

// Refresh はセッションの有効期限を延長し、TokenRefreshedイベントを配信する。
// セッションが存在しないか期限切れの場合はnilを返す。
func (s *Service) Refresh(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	expiresAt := s.now().Add(s.maxAge())
	ok, err := s.sessionRepo.ExtendExpiry(ctx, sessionID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to extend session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	sess.ExpiresAt = expiresAt

	s.publish(session.TokenRefreshed, sess.UserID, sess.ID)
	return sess, nil
}

// GetCurrentUser はセッションから現在のユーザーのプロフィールを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.Profile, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	profile, err := s.profileRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile not found")
	}

	return profile, nil
}

// ResolveIdentity はセッションIDからリクエストスコープのIdentityを解決する。
// セッションが無効な場合はnilを返す。
func (s *Service) ResolveIdentity(ctx context.Context, sessionID string) (*session.Identity, error) {
	sess, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	profile, err := s.profileRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, nil
	}

	id := &session.Identity{
		UserID:    profile.ID,
		SessionID: sess.ID,
		Email:     profile.Email,
	}
	if profile.DisplayName != nil {
		id.DisplayName = *profile.DisplayName
	}
	return id, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	sess := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(s.maxAge()),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

func (s *Service) maxAge() time.Duration {
	return time.Duration(s.config.SessionMaxAge) * time.Second
}

func (s *Service) publish(t session.EventType, userID, sessionID string) {
	if s.events == nil {
		return
	}
	s.events.Publish(session.Event{
		Type:       t,
		UserID:     userID,
		SessionID:  sessionID,
		OccurredAt: s.now(),
	})
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
