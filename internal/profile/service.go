// Package profile はプロフィール管理のドメインロジックを提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/repository"
)

// MaxDisplayNameLength は表示名の最大文字数。
const MaxDisplayNameLength = 100

// Service はプロフィール管理のサービス層。
type Service struct {
	repo repository.ProfileRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ProfileRepository) *Service {
	return &Service{repo: repo}
}

// Get は指定ユーザーのプロフィールを取得する。
func (s *Service) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError()
	}
	return p, nil
}

// UpdateDisplayName は表示名を更新する。
// 前後の空白は除去し、空文字列の場合は表示名を削除する。
func (s *Service) UpdateDisplayName(ctx context.Context, userID, displayName string) (*model.Profile, error) {
	name := strings.TrimSpace(displayName)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return nil, model.NewInvalidProfileError(fmt.Sprintf("display name must be at most %d characters", MaxDisplayNameLength))
	}
	if strings.ContainsAny(name, "\r\n\t") {
		return nil, model.NewInvalidProfileError("display name must be a single line")
	}

	var value *string
	if name != "" {
		value = &name
	}

	p, err := s.repo.UpdateDisplayName(ctx, userID, value)
	if err != nil {
		return nil, fmt.Errorf("表示名の更新に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError()
	}

	slog.Info("display name updated", slog.String("user_id", userID))
	return p, nil
}
