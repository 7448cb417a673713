// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/dreamjournal/internal/model"
)

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// FindByIdentity は外部IdPのユーザーIDに紐付くプロフィールを取得する。
	// 紐付けが存在しない場合はnilを返す。
	FindByIdentity(ctx context.Context, provider, providerUserID string) (*model.Profile, error)

	// CreateWithIdentity はプロフィールとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, profile *model.Profile, identity *model.Identity) error

	// UpdateDisplayName は表示名を更新する。nilの場合は表示名を削除する。
	// 更新対象が存在しない場合はnilを返す。
	UpdateDisplayName(ctx context.Context, id string, displayName *string) (*model.Profile, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// ExtendExpiry は有効なセッションの有効期限を更新する。
	// 対象が存在しないか期限切れの場合はfalseを返す。
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) (bool, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// DreamRepository は夢エントリの永続化インターフェース。
// すべての操作は所有者のユーザーIDでスコープされる。
type DreamRepository interface {
	// Create は夢エントリを作成し、採番されたIDと作成日時をdreamに設定する。
	Create(ctx context.Context, dream *model.Dream) error

	// ListByUserID はユーザーの夢エントリを作成日時の降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Dream, error)

	// Delete は所有者が一致する夢エントリを削除する。
	// 削除対象が存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}
