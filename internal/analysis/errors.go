package analysis

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind は解析失敗の分類を表す。
type ErrorKind string

const (
	// KindTransport はネットワーク到達不能、タイムアウトなど通信レベルの失敗。
	KindTransport ErrorKind = "transport"
	// KindRateLimited はプロバイダーのクォータ超過・レート制限。
	KindRateLimited ErrorKind = "rate_limited"
	// KindContentBlocked は安全性フィルタによる拒否。
	KindContentBlocked ErrorKind = "content_blocked"
	// KindMalformedResponse は応答にテキストが含まれない等、解釈できない応答。
	KindMalformedResponse ErrorKind = "malformed_response"
	// KindProvider はその他のプロバイダー側エラー。
	KindProvider ErrorKind = "provider"
)

// userMessage はすべての解析失敗で利用者に表示する文言。
const userMessage = "Failed to analyze dream"

// AnalysisError は補完プロバイダー呼び出しの失敗を表す。
// Error() は利用者向けの一般的な文言のみを返し、詳細はErrに保持する。
type AnalysisError struct {
	Kind       ErrorKind
	StatusCode int // プロバイダーが返したHTTPステータス。不明な場合は0
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *AnalysisError) Error() string {
	return userMessage
}

// Unwrap は原因となったエラーを返す。
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Detail はログ出力用の詳細メッセージを返す。
func (e *AnalysisError) Detail() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Retryable は利用者が再試行することで成功し得る失敗かどうかを返す。
// 安全性フィルタによる拒否と不正な応答は同じ入力では再試行しても成功しない。
func (e *AnalysisError) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindRateLimited:
		return true
	case KindProvider:
		return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// newError はAnalysisErrorを生成する。
func newError(kind ErrorKind, statusCode int, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, StatusCode: statusCode, Err: err}
}

// kindForStatus はプロバイダーのHTTPステータスから失敗分類を決定する。
func kindForStatus(statusCode int) ErrorKind {
	if statusCode == http.StatusTooManyRequests {
		return KindRateLimited
	}
	return KindProvider
}

// AsAnalysisError はerrがAnalysisErrorを含む場合にそれを返す。
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
