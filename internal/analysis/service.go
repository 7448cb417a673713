// Package analysis は夢解析の依頼と補完プロバイダーの呼び出しを提供する。
package analysis

import (
	"context"
	"time"

	"github.com/hitoshi/dreamjournal/internal/metrics"
)

// outcomeSuccess は解析成功時にメトリクスへ記録する結果ラベル。
const outcomeSuccess = "success"

// Service は夢解析リクエストを処理するサービス。
type Service struct {
	provider  CompletionProvider
	recorder  metrics.AnalysisRecorder
	wordLimit int
	timeout   time.Duration
	now       func() time.Time
}

// Option はServiceの任意設定。
type Option func(*Service)

// WithTimeout はプロバイダー呼び出し1回あたりのタイムアウトを設定する。
// 0以下の場合は呼び出し元のcontextのみに従う。
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// NewService は新しいServiceを生成する。
// recorderがnilの場合は何も記録しない。
func NewService(provider CompletionProvider, recorder metrics.AnalysisRecorder, wordLimit int, opts ...Option) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	s := &Service{
		provider:  provider,
		recorder:  recorder,
		wordLimit: wordLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestAnalysis はプロンプトを組み立ててプロバイダーを1回だけ呼び出し、
// 補完テキストを加工せずに返す。
// 失敗時は常に*AnalysisErrorを返す。
func (s *Service) RequestAnalysis(ctx context.Context, dreamText string, emotions []string) (string, error) {
	prompt := BuildPrompt(dreamText, emotions, s.wordLimit)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	text, err := s.provider.Complete(ctx, prompt)
	elapsed := s.now().Sub(start)

	if err != nil {
		ae, ok := AsAnalysisError(err)
		if !ok {
			ae = newError(KindProvider, 0, err)
		}
		s.recorder.RecordAnalysis(string(ae.Kind), elapsed)
		return "", ae
	}

	s.recorder.RecordAnalysis(outcomeSuccess, elapsed)
	return text, nil
}
