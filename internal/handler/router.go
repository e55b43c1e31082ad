package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/holical/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	UserFinder  UserFinder

	// 祝日
	HolidayService HolidayServiceInterface
	Importer       ImporterInterface
	DefaultCountry string

	// メトリクス
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General)
//
// 登録・トークン発行・ヘルスチェック・メトリクスは認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.UserFinder)
	holidayHandler := NewHolidayHandler(deps.HolidayService)
	importHandler := NewImportHandler(deps.Importer, deps.DefaultCountry)

	// --- 認証不要のルート ---

	r.Post("/register", authHandler.Register)
	r.Post("/token", authHandler.Token)

	r.Get("/health", healthCheck)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.UserResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/users/me/", authHandler.Me)

		// 祝日管理
		r.Route("/holidays", func(r chi.Router) {
			// POST /holidays/import - 外部プロバイダーからの取り込み（インポート専用レート制限を追加）
			r.With(deps.RateLimiter.ImportMiddleware()).Post("/import", importHandler.ImportHolidays)

			r.Post("/", holidayHandler.CreateHoliday)
			r.Get("/", holidayHandler.ListHolidays)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", holidayHandler.GetHoliday)
				r.Put("/", holidayHandler.UpdateHoliday)
				r.Delete("/", holidayHandler.DeleteHoliday)
			})
		})

		// 全削除（管理者のみ）
		r.Delete("/api/holidays/clear", holidayHandler.ClearHolidays)
	})

	return r
}

// healthCheck はヘルスチェックエンドポイント。
// GET /health
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
