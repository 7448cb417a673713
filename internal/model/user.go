// Package model はドメインモデルを定義する。
package model

import "time"

// Profile はサービス利用ユーザーのプロフィールを表す。
// profilesテーブルの1行に対応する。
type Profile struct {
	ID          string
	CreatedAt   time.Time
	Email       string
	DisplayName *string
	AvatarURL   *string
}

// Identity は外部IdPとの紐付け情報を表す。
type Identity struct {
	ID             string
	ProfileID      string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
