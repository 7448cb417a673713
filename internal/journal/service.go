// Package journal は夢日記の記録・一覧・削除のユースケースを提供する。
//
// 解析の依頼と表示用整形を行ったうえで、ログイン中であれば結果を保存する。
// 保存はベストエフォートで、失敗しても解析結果はそのまま利用者に返す。
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/dreamjournal/internal/metrics"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/repository"
	"github.com/hitoshi/dreamjournal/internal/session"
	"github.com/hitoshi/dreamjournal/internal/textnorm"
)

// Analyzer は夢の解析を依頼するインターフェース。
type Analyzer interface {
	RequestAnalysis(ctx context.Context, dreamText string, emotions []string) (string, error)
}

// PersistOutcome は解析結果の保存結果を表す。
type PersistOutcome string

const (
	// PersistSkipped は未ログインのため保存しなかったことを表す。
	PersistSkipped PersistOutcome = "skipped"
	// PersistSaved は保存に成功したことを表す。
	PersistSaved PersistOutcome = "saved"
	// PersistFailed は保存に失敗したことを表す。利用者には表示しない。
	PersistFailed PersistOutcome = "failed"
)

// Submission は夢の送信結果。
type Submission struct {
	Analysis    string             // プロバイダーから返された生テキスト
	Sections    []textnorm.Section // 表示用に整形したセクション
	Emotions    []string           // 重複を除いた選択順の感情ラベル
	Persistence PersistOutcome
	Dream       *model.Dream // 保存に成功した場合のみ設定される
}

// Entry は夢日記の1件と表示用セクションの組。
type Entry struct {
	Dream    *model.Dream
	Sections []textnorm.Section
}

// Service は夢日記のユースケースを提供する。
type Service struct {
	analyzer Analyzer
	repo     repository.DreamRepository
	recorder metrics.PersistenceRecorder
	logger   *slog.Logger
}

// NewService は新しいServiceを生成する。
// recorderやloggerがnilの場合はそれぞれ何も記録しない実装とデフォルトロガーを使う。
func NewService(analyzer Analyzer, repo repository.DreamRepository, recorder metrics.PersistenceRecorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		analyzer: analyzer,
		repo:     repo,
		recorder: recorder,
		logger:   logger,
	}
}

// Validate は送信内容を検証し、本文と重複を除いた感情ラベルを返す。
// 空判定は前後の空白を除いて行うが、本文はそのまま返す。
func Validate(dreamText string, emotions []string) (string, []string, error) {
	if strings.TrimSpace(dreamText) == "" {
		return "", nil, model.NewInvalidDreamError()
	}
	if len(emotions) == 0 {
		return "", nil, model.NewNoEmotionsError()
	}
	for _, e := range emotions {
		if !model.IsValidEmotion(e) {
			return "", nil, model.NewUnknownEmotionError(e)
		}
	}
	return dreamText, model.DedupeEmotions(emotions), nil
}

// Submit は夢を解析し、identityがあれば結果を保存する。
// 入力が不正な場合はプロバイダーを呼び出さずに*model.APIErrorを返す。
// 解析に失敗した場合は*analysis.AnalysisErrorを返す。
func (s *Service) Submit(ctx context.Context, identity *session.Identity, dreamText string, emotions []string) (*Submission, error) {
	text, labels, err := Validate(dreamText, emotions)
	if err != nil {
		return nil, err
	}

	raw, err := s.analyzer.RequestAnalysis(ctx, text, labels)
	if err != nil {
		return nil, err
	}

	sub := &Submission{
		Analysis:    raw,
		Sections:    textnorm.Normalize(raw),
		Emotions:    labels,
		Persistence: PersistSkipped,
	}

	if identity == nil {
		return sub, nil
	}

	dream := &model.Dream{
		UserID:       identity.UserID,
		DreamContent: text,
		Emotions:     labels,
		Analysis:     &raw,
	}
	if err := s.repo.Create(ctx, dream); err != nil {
		s.recorder.RecordDreamSaveFailure()
		s.logger.ErrorContext(ctx, "failed to save dream",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		sub.Persistence = PersistFailed
		return sub, nil
	}

	s.recorder.RecordDreamSaved()
	s.logger.InfoContext(ctx, "dream saved",
		slog.String("user_id", identity.UserID),
		slog.String("dream_id", dream.ID),
	)
	sub.Persistence = PersistSaved
	sub.Dream = dream
	return sub, nil
}

// List はidentityの夢日記を新しい順に返す。
func (s *Service) List(ctx context.Context, identity *session.Identity) ([]Entry, error) {
	if identity == nil {
		return nil, model.NewUnauthorizedError()
	}

	dreams, err := s.repo.ListByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("夢日記の取得に失敗しました: %w", err)
	}

	entries := make([]Entry, 0, len(dreams))
	for _, d := range dreams {
		e := Entry{Dream: d}
		if d.Analysis != nil {
			e.Sections = textnorm.Normalize(*d.Analysis)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Delete はidentityが所有する夢日記を1件削除する。
// 形式が不正なIDや他ユーザーのエントリは存在しないものとして扱う。
func (s *Service) Delete(ctx context.Context, identity *session.Identity, dreamID string) error {
	if identity == nil {
		return model.NewUnauthorizedError()
	}
	if _, err := uuid.Parse(dreamID); err != nil {
		return model.NewDreamNotFoundError(dreamID)
	}

	deleted, err := s.repo.Delete(ctx, identity.UserID, dreamID)
	if err != nil {
		return fmt.Errorf("夢日記の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewDreamNotFoundError(dreamID)
	}

	s.recorder.RecordDreamDeleted()
	s.logger.InfoContext(ctx, "dream deleted",
		slog.String("user_id", identity.UserID),
		slog.String("dream_id", dreamID),
	)
	return nil
}
