package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/dreamjournal/internal/journal"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/session"
	"github.com/hitoshi/dreamjournal/internal/textnorm"
)

// JournalServiceInterface は夢日記関連ハンドラーが必要とするサービスインターフェース。
type JournalServiceInterface interface {
	// Submit は夢を解析し、identityがあれば保存する。
	Submit(ctx context.Context, identity *session.Identity, dreamText string, emotions []string) (*journal.Submission, error)
	// List はidentityの夢日記を新しい順に返す。
	List(ctx context.Context, identity *session.Identity) ([]journal.Entry, error)
	// Delete はidentityが所有する夢日記を1件削除する。
	Delete(ctx context.Context, identity *session.Identity, dreamID string) error
}

// AnalyzeHandler は夢解析APIのHTTPハンドラー。
type AnalyzeHandler struct {
	service JournalServiceInterface
}

// NewAnalyzeHandler はAnalyzeHandlerを生成する。
func NewAnalyzeHandler(service JournalServiceInterface) *AnalyzeHandler {
	return &AnalyzeHandler{service: service}
}

// analyzeRequest は夢解析リクエストのボディ。
type analyzeRequest struct {
	Dream    string   `json:"dream"`
	Emotions []string `json:"emotions"`
}

// analyzeResponse は夢解析のAPIレスポンス。
type analyzeResponse struct {
	Analysis string             `json:"analysis"`
	Sections []textnorm.Section `json:"sections"`
}

// Analyze は夢を解析して結果を返す。保存は行わない。
// POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if userID := session.UserIDFromContext(r.Context()); userID != "" {
		slog.InfoContext(r.Context(), "analysis requested", slog.String("user_id", userID))
	}

	sub, err := h.service.Submit(r.Context(), nil, req.Dream, req.Emotions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Analysis: sub.Analysis,
		Sections: sub.Sections,
	})
}

// ListEmotions は選択可能な感情ラベルを表示順で返す。
// GET /api/emotions
func ListEmotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.Emotion{
		"emotions": model.AllEmotions(),
	})
}
