package analysis

import (
	"context"
	"errors"
	"net"
)

// CompletionProvider はプロンプトからテキスト補完を取得するインターフェース。
// 失敗時は*AnalysisErrorを返す。
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// classifyTransport はSDK固有のエラーに該当しない通信レベルの失敗を判定する。
func classifyTransport(err error) (*AnalysisError, bool) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(KindTransport, 0, err), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(KindTransport, 0, err), true
	}
	return nil, false
}
