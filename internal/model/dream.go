// Package model はドメインモデルを定義する。
package model

import "time"

// Dream は夢日記の1エントリを表す。
// IDとCreatedAtはストア側で採番される。
// Analysisは解析成功後にのみ設定され、以後更新されない。
type Dream struct {
	ID           string
	CreatedAt    time.Time
	UserID       string
	DreamContent string
	Emotions     []string
	Analysis     *string
}
