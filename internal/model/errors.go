// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, dream, analysis, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidDream    = "INVALID_DREAM"
	ErrCodeNoEmotions      = "NO_EMOTIONS"
	ErrCodeUnknownEmotion  = "UNKNOWN_EMOTION"
	ErrCodeDreamNotFound   = "DREAM_NOT_FOUND"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInvalidProfile  = "INVALID_PROFILE"
	ErrCodeProfileNotFound = "PROFILE_NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeAnalysisFailed  = "ANALYSIS_FAILED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewInvalidDreamError は夢の本文が空の場合のエラーを生成する。
func NewInvalidDreamError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDream,
		Message:  "Please describe your dream.",
		Category: "validation",
		Action:   "Enter a description of your dream before submitting.",
	}
}

// NewNoEmotionsError は感情が1つも選択されていない場合のエラーを生成する。
func NewNoEmotionsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoEmotions,
		Message:  "Please select at least one emotion.",
		Category: "validation",
		Action:   "Choose the emotions you felt during the dream.",
	}
}

// NewUnknownEmotionError は定義外の感情ラベルが指定された場合のエラーを生成する。
func NewUnknownEmotionError(label string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownEmotion,
		Message:  fmt.Sprintf("Unknown emotion: %s", label),
		Category: "validation",
		Action:   "Choose emotions from the provided list.",
	}
}

// NewDreamNotFoundError は夢エントリが見つからない場合のエラーを生成する。
func NewDreamNotFoundError(dreamID string) *APIError {
	return &APIError{
		Code:     ErrCodeDreamNotFound,
		Message:  fmt.Sprintf("Dream not found: %s", dreamID),
		Category: "dream",
		Action:   "Reload your journal and try again.",
	}
}

// NewInvalidRequestError はリクエストボディの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Failed to parse request body.",
		Category: "validation",
		Action:   "Send a valid JSON request body.",
	}
}

// NewInvalidProfileError はプロフィール更新内容が不正な場合のエラーを生成する。
func NewInvalidProfileError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProfile,
		Message:  fmt.Sprintf("Invalid profile: %s", reason),
		Category: "validation",
		Action:   "Check the display name and try again.",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "Profile not found.",
		Category: "auth",
		Action:   "Sign in again.",
	}
}

// NewUnauthorizedError は認証が必要なエンドポイントに未認証でアクセスした場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required.",
		Category: "auth",
		Action:   "Sign in to use your dream journal.",
	}
}

// NewInternalError は内部エラーの統一レスポンスを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
