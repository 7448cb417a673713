package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dreamjournal/internal/journal"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/session"
	"github.com/hitoshi/dreamjournal/internal/textnorm"
)

// DreamHandler は夢日記APIのHTTPハンドラー。
type DreamHandler struct {
	service JournalServiceInterface
}

// NewDreamHandler はDreamHandlerを生成する。
func NewDreamHandler(service JournalServiceInterface) *DreamHandler {
	return &DreamHandler{service: service}
}

// dreamResponse は夢日記1件のAPIレスポンス。
type dreamResponse struct {
	ID           string             `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	DreamContent string             `json:"dream_content"`
	Emotions     []string           `json:"emotions"`
	Analysis     *string            `json:"analysis"`
	Sections     []textnorm.Section `json:"sections,omitempty"`
}

// createDreamResponse は夢の記録APIのレスポンス。
// 保存に失敗した場合もanalysisは返し、dreamはnullになる。
type createDreamResponse struct {
	Analysis    string                 `json:"analysis"`
	Sections    []textnorm.Section     `json:"sections"`
	Persistence journal.PersistOutcome `json:"persistence"`
	Dream       *dreamResponse         `json:"dream"`
}

// ListDreams はログインユーザーの夢日記を新しい順に返す。
// GET /api/dreams
func (h *DreamHandler) ListDreams(w http.ResponseWriter, r *http.Request) {
	identity, _ := session.FromContext(r.Context())

	entries, err := h.service.List(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	dreams := make([]dreamResponse, 0, len(entries))
	for _, e := range entries {
		dreams = append(dreams, toDreamResponse(e.Dream, e.Sections))
	}
	writeJSON(w, http.StatusOK, map[string][]dreamResponse{"dreams": dreams})
}

// CreateDream は夢を解析し、結果を夢日記に保存する。
// POST /api/dreams
func (h *DreamHandler) CreateDream(w http.ResponseWriter, r *http.Request) {
	identity, _ := session.FromContext(r.Context())

	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.service.Submit(r.Context(), identity, req.Dream, req.Emotions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := createDreamResponse{
		Analysis:    sub.Analysis,
		Sections:    sub.Sections,
		Persistence: sub.Persistence,
	}
	status := http.StatusOK
	if sub.Dream != nil {
		d := toDreamResponse(sub.Dream, sub.Sections)
		resp.Dream = &d
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// DeleteDream は夢日記を1件削除する。
// DELETE /api/dreams/{id}
func (h *DreamHandler) DeleteDream(w http.ResponseWriter, r *http.Request) {
	identity, _ := session.FromContext(r.Context())

	if err := h.service.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportDreams は夢日記をプレーンテキストでダウンロードさせる。
// GET /api/dreams/export
func (h *DreamHandler) ExportDreams(w http.ResponseWriter, r *http.Request) {
	identity, _ := session.FromContext(r.Context())

	entries, err := h.service.List(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dream-journal.txt"`)
	w.Write([]byte(journal.ExportText(entries)))
}

func toDreamResponse(d *model.Dream, sections []textnorm.Section) dreamResponse {
	return dreamResponse{
		ID:           d.ID,
		CreatedAt:    d.CreatedAt,
		DreamContent: d.DreamContent,
		Emotions:     d.Emotions,
		Analysis:     d.Analysis,
		Sections:     sections,
	}
}
