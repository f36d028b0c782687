package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/locallens/internal/metrics"
	"github.com/hitoshi/locallens/internal/middleware"
)

// HealthChecker はヘルスチェックのためのデータベース疎通確認インターフェース。
type HealthChecker interface {
	// Ping はデータベースへの疎通を確認する。
	Ping(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string

	// サービス
	ArticleService ArticleServiceInterface
	GeocodeService GeocodeServiceInterface
	NewsProvider   NewsProviderInterface

	// 運用系
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector // nil可
	Gatherer      prometheus.Gatherer      // nilの場合/metricsを公開しない

	// Web UI（nilの場合はAPIのみ公開）
	Web http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))

	// 未定義メソッドは統一フォーマットの405で応答
	r.MethodNotAllowed(MethodNotAllowed)

	articleHandler := NewArticleHandler(deps.ArticleService, deps.Metrics)
	locationHandler := NewLocationHandler(deps.GeocodeService, deps.Logger, deps.Metrics)
	newsHandler := NewNewsHandler(deps.NewsProvider, deps.Logger, deps.Metrics)

	// 保存記事API
	r.Route("/articles", func(r chi.Router) {
		r.Post("/", articleHandler.SaveArticle)
		r.Get("/", articleHandler.ListArticles)
		r.Delete("/", articleHandler.DeleteArticle)
	})

	// 位置情報・ニュース中継API
	r.Route("/api", func(r chi.Router) {
		r.Get("/location/reverse", locationHandler.ReverseCity)
		r.Get("/location/geocode", locationHandler.Geocode)
		r.Get("/news", newsHandler.SearchNews)
	})

	// ヘルスチェック
	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	// Prometheusスクレイプ
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// Web UI
	if deps.Web != nil {
		r.Handle("/", deps.Web)
		r.Handle("/static/*", deps.Web)
	}

	return r
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := checker.Ping(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(healthResponse{Status: "unavailable"})
			return
		}

		json.NewEncoder(w).Encode(healthResponse{Status: "ok"})
	}
}
