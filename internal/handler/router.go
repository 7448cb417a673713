package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/dreamjournal/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string // カンマ区切りで複数指定可
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Events      EventSubscriber

	// 夢日記
	JournalService JournalServiceInterface
	Renderer       PageRenderer

	// プロフィール
	ProfileService ProfileServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Metrics → Session → Logging → Recovery → SecurityHeaders → CORS → (RequireSession) → CSRF
//
// Sessionは全ルートに適用し、未認証のリクエストも通す。
// 認証必須のルートのみRequireSessionで401を返す。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewSessionMiddleware(deps.IdentityResolver))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.CORSAllowedOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(strings.Split(deps.CORSAllowedOrigin, ",")...))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	eventsHandler := NewEventsHandler(deps.Events)
	analyzeHandler := NewAnalyzeHandler(deps.JournalService)
	dreamHandler := NewDreamHandler(deps.JournalService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	pageHandler := NewPageHandler(deps.JournalService, deps.Renderer)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// CSRFトークン取得（自身でCookieを発行するためCSRFミドルウェアの外に置く）
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// 解析API（状態を変更しないためCSRF検証の対象外）
	r.Get("/api/emotions", ListEmotions)
	r.Post("/api/analyze", analyzeHandler.Analyze)

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// HTMLページ（未ログイン時のリダイレクトはハンドラーが行う）
		r.Get("/", pageHandler.Index)
		r.Post("/analyze", pageHandler.Analyze)
		r.Get("/login", pageHandler.Login)
		r.Get("/dashboard", pageHandler.Dashboard)
		r.Post("/dashboard/dreams/{id}/delete", pageHandler.DeleteDream)

		// 認証ルート（OAuthフロー）
		r.Route("/auth", func(r chi.Router) {
			r.Get("/google/login", authHandler.Login)
			r.Get("/google/callback", authHandler.Callback)
			r.Post("/logout", authHandler.Logout)
			r.Post("/refresh", authHandler.Refresh)
			r.Get("/me", authHandler.Me)
			r.With(middleware.RequireSession).Get("/events", eventsHandler.Stream)
		})
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: RequireSession → CSRF
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Route("/api/dreams", func(r chi.Router) {
			r.Get("/", dreamHandler.ListDreams)
			r.Post("/", dreamHandler.CreateDream)
			r.Get("/export", dreamHandler.ExportDreams)
			r.Delete("/{id}", dreamHandler.DeleteDream)
		})

		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Patch("/", profileHandler.UpdateProfile)
		})
	})

	return r
}
