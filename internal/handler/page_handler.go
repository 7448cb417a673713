package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dreamjournal/internal/analysis"
	"github.com/hitoshi/dreamjournal/internal/journal"
	"github.com/hitoshi/dreamjournal/internal/middleware"
	"github.com/hitoshi/dreamjournal/internal/model"
	"github.com/hitoshi/dreamjournal/internal/session"
	"github.com/hitoshi/dreamjournal/internal/web"
)

// 画面に表示する固定メッセージ。
const (
	msgAnalysisFailed = "Failed to analyze dream. Please try again."
	msgLoadFailed     = "Failed to load your dreams."
	msgDeleteFailed   = "Failed to delete dream."
	msgSaved          = "Saved to your journal."
	msgDeleted        = "Dream deleted."
)

// PageRenderer はHTMLページを描画するインターフェース。*web.Renderer が満たす。
type PageRenderer interface {
	Render(w io.Writer, name string, page *web.Page) error
}

// PageHandler はHTMLページのHTTPハンドラー。
type PageHandler struct {
	service  JournalServiceInterface
	renderer PageRenderer
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(service JournalServiceInterface, renderer PageRenderer) *PageHandler {
	return &PageHandler{service: service, renderer: renderer}
}

// newPage はリクエスト共通の表示データを生成する。
func newPage(r *http.Request, title string) *web.Page {
	identity, _ := session.FromContext(r.Context())
	return &web.Page{
		Title:     title,
		Identity:  identity,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Emotions:  model.AllEmotions(),
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *web.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, name, page); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
	}
}

// Index は解析フォームを表示する。
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageIndex, newPage(r, "Analyze"))
}

// Analyze はフォームから送信された夢を解析し、結果を表示する。
// ログイン中であれば結果を夢日記に保存する。
// POST /analyze
func (h *PageHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	page := newPage(r, "Analyze")

	if err := r.ParseForm(); err != nil {
		page.Error = model.NewInvalidRequestError().Message
		h.render(w, r, http.StatusBadRequest, web.PageIndex, page)
		return
	}

	page.Dream = r.PostFormValue("dream")
	emotions := r.PostForm["emotions"]
	page.Selected = make(map[string]bool, len(emotions))
	for _, e := range emotions {
		page.Selected[e] = true
	}

	sub, err := h.service.Submit(r.Context(), page.Identity, page.Dream, emotions)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			page.Error = apiErr.Message
			h.render(w, r, middleware.StatusForAPIError(apiErr), web.PageIndex, page)
			return
		}
		if aErr, ok := analysis.AsAnalysisError(err); ok {
			slog.ErrorContext(r.Context(), "dream analysis failed",
				slog.String("kind", string(aErr.Kind)),
				slog.String("error", aErr.Detail()),
			)
		} else {
			slog.ErrorContext(r.Context(), "dream submission failed", slog.String("error", err.Error()))
		}
		page.Error = msgAnalysisFailed
		h.render(w, r, http.StatusInternalServerError, web.PageIndex, page)
		return
	}

	page.Sections = sub.Sections
	if sub.Persistence == journal.PersistSaved {
		page.Notice = msgSaved
	}
	h.render(w, r, http.StatusOK, web.PageIndex, page)
}

// Dashboard は夢日記の一覧を表示する。未ログインの場合はログインページへリダイレクトする。
// GET /dashboard
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := newPage(r, "My Dream Journal")
	if !page.SignedIn() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	entries, err := h.service.List(r.Context(), page.Identity)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list dreams", slog.String("error", err.Error()))
		page.Journal = journal.NewJournal(nil)
		page.Error = msgLoadFailed
		h.render(w, r, http.StatusInternalServerError, web.PageDashboard, page)
		return
	}

	page.Journal = journal.NewJournal(entries)
	h.render(w, r, http.StatusOK, web.PageDashboard, page)
}

// DeleteDream は夢日記を1件削除し、削除したエントリを除いた一覧を表示する。
// POST /dashboard/dreams/{id}/delete
func (h *PageHandler) DeleteDream(w http.ResponseWriter, r *http.Request) {
	page := newPage(r, "My Dream Journal")
	if !page.SignedIn() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	entries, err := h.service.List(r.Context(), page.Identity)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list dreams", slog.String("error", err.Error()))
		page.Journal = journal.NewJournal(nil)
		page.Error = msgLoadFailed
		h.render(w, r, http.StatusInternalServerError, web.PageDashboard, page)
		return
	}
	page.Journal = journal.NewJournal(entries)

	dreamID := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), page.Identity, dreamID); err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			slog.ErrorContext(r.Context(), "failed to delete dream",
				slog.String("dream_id", dreamID),
				slog.String("error", err.Error()),
			)
		}
		page.Error = msgDeleteFailed
		h.render(w, r, http.StatusOK, web.PageDashboard, page)
		return
	}

	page.Journal.Remove(dreamID)
	page.Notice = msgDeleted
	h.render(w, r, http.StatusOK, web.PageDashboard, page)
}

var loginErrorMessages = map[string]string{
	loginErrorDenied:     "Sign-in was cancelled. Continue with Google to save your dreams.",
	loginErrorUnverified: "Your Google account email is not verified.",
	loginErrorFailed:     "We could not sign you in. Please try again.",
}

// Login はサインインページを表示する。ログイン済みの場合は夢日記ページへリダイレクトする。
// GET /login?error=denied|unverified|failed
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	page := newPage(r, "Sign in")
	if page.SignedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	page.Error = loginErrorMessages[r.URL.Query().Get("error")]
	h.render(w, r, http.StatusOK, web.PageLogin, page)
}
