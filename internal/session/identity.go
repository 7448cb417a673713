// Package session はリクエストスコープの認証済みアイデンティティと
// セッションイベントの通知を提供する。
package session

import "context"

// Identity は認証済みユーザーを表す。
// リクエストのcontextにのみ保持し、グローバルには保持しない。
type Identity struct {
	UserID      string
	SessionID   string
	Email       string
	DisplayName string
}

type contextKey struct{}

// NewContext はIdentityを格納したcontextを返す。
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext はcontextからIdentityを取得する。
// 未認証のリクエストではfalseを返す。
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// UserIDFromContext はcontextからユーザーIDを取得する。未認証の場合は空文字列を返す。
func UserIDFromContext(ctx context.Context) string {
	if id, ok := FromContext(ctx); ok {
		return id.UserID
	}
	return ""
}
