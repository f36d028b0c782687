// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/locallens/internal/article"
	"github.com/hitoshi/locallens/internal/cache"
	"github.com/hitoshi/locallens/internal/config"
	"github.com/hitoshi/locallens/internal/database"
	"github.com/hitoshi/locallens/internal/geocode"
	"github.com/hitoshi/locallens/internal/handler"
	"github.com/hitoshi/locallens/internal/logger"
	"github.com/hitoshi/locallens/internal/metrics"
	"github.com/hitoshi/locallens/internal/news"
	"github.com/hitoshi/locallens/internal/repository"
	"github.com/hitoshi/locallens/internal/security"
	"github.com/hitoshi/locallens/internal/web"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, "info")

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	client, err := database.Connect(cfg.MongoURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			slog.Error("database disconnect failed", slog.String("error", err.Error()))
		}
	}()

	health := database.NewHealth(client)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach database: %w", err)
		}
	}

	slog.Info("database connection established")

	db := client.Database(cfg.MongoDatabase)

	// 2. インデックスの作成（マイグレーションの代わりに起動時に冪等に適用する）
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := database.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("failed to ensure indexes: %w", err)
		}
	}

	// 3. リポジトリとサービスの初期化
	articleRepo := repository.NewMongoArticleRepo(db)
	articleService := article.NewArticleService(articleRepo)

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 設定で上書きされた上流エンドポイントが内部ネットワークを
	// 指していないか、クライアント生成前に検証する
	if err := validateUpstreamURLs(cfg, ssrfGuard); err != nil {
		return fmt.Errorf("invalid upstream endpoint: %w", err)
	}

	// 5. 上流クライアントの初期化
	geocoder := newGeocoder(cfg)
	newsProvider := newNewsProvider(cfg, ssrfGuard, sanitizer)

	// 6. キャッシュ層（REDIS_ADDRが設定されている場合のみ）
	geocoder, newsProvider = wrapWithCache(cfg, geocoder, newsProvider)

	// 7. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 8. Web UIの初期化
	webHandler, err := web.NewHandler()
	if err != nil {
		return fmt.Errorf("failed to build web handler: %w", err)
	}

	// 9. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,

		ArticleService: articleService,
		GeocodeService: geocoder,
		NewsProvider:   newsProvider,

		HealthChecker: health,
		Metrics:       collector,
		Gatherer:      registry,

		Web: webHandler,
	})

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// validateUpstreamURLs は設定された上流エンドポイントURLを起動時に検証する。
// デフォルト値は公開エンドポイントだが、環境変数で内部ネットワークを指す
// URLに上書きされた場合はここで起動を拒否する。
func validateUpstreamURLs(cfg *config.Config, guard security.SSRFGuardService) error {
	if err := guard.ValidateURL(cfg.GeocoderBaseURL); err != nil {
		return fmt.Errorf("GEOCODER_BASE_URL: %w", err)
	}
	if cfg.GNewsAPIKey != "" {
		if err := guard.ValidateURL(cfg.GNewsBaseURL); err != nil {
			return fmt.Errorf("GNEWS_BASE_URL: %w", err)
		}
		return nil
	}
	if err := guard.ValidateURL(cfg.NewsRSSBaseURL); err != nil {
		return fmt.Errorf("NEWS_RSS_BASE_URL: %w", err)
	}
	return nil
}

// newGeocoder はNominatimクライアントを生成する。
func newGeocoder(cfg *config.Config) geocode.Service {
	return geocode.NewClient(
		&http.Client{Timeout: cfg.UpstreamTimeout},
		slog.Default(),
		geocode.ClientConfig{
			BaseURL:         cfg.GeocoderBaseURL,
			UserAgent:       cfg.GeocoderUserAgent,
			RateLimit:       cfg.GeocoderRateLimit,
			MaxResponseSize: cfg.UpstreamMaxSize,
		},
	)
}

// newNewsProvider はニュースプロバイダを生成する。
// GNEWS_API_KEYが設定されていればGNews API、なければGoogle News RSS
// フォールバックを使用する。RSSフィードの取得はSSRF防止付きクライアントで行う。
func newNewsProvider(cfg *config.Config, ssrfGuard security.SSRFGuardService, sanitizer security.TextSanitizerService) news.Provider {
	if cfg.GNewsAPIKey != "" {
		slog.Info("news provider: gnews api")
		return news.NewGNewsClient(
			&http.Client{Timeout: cfg.UpstreamTimeout},
			slog.Default(),
			sanitizer,
			news.GNewsConfig{
				BaseURL:         cfg.GNewsBaseURL,
				APIKey:          cfg.GNewsAPIKey,
				Language:        cfg.NewsLanguage,
				MaxArticles:     cfg.NewsMaxArticles,
				MaxResponseSize: cfg.UpstreamMaxSize,
			},
		)
	}

	slog.Info("news provider: google news rss fallback")
	return news.NewRSSProvider(
		ssrfGuard.NewSafeClient(cfg.UpstreamTimeout),
		slog.Default(),
		sanitizer,
		news.RSSConfig{
			BaseURL:         cfg.NewsRSSBaseURL,
			Language:        cfg.NewsLanguage,
			MaxArticles:     cfg.NewsMaxArticles,
			MaxResponseSize: cfg.UpstreamMaxSize,
		},
	)
}

// wrapWithCache はRedisが設定されている場合に上流クライアントを
// リードスルーキャッシュでラップする。
func wrapWithCache(cfg *config.Config, geocoder geocode.Service, provider news.Provider) (geocode.Service, news.Provider) {
	if cfg.RedisAddr == "" {
		return geocoder, provider
	}

	store := cache.NewRedisStore(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword))
	slog.Info("upstream cache enabled",
		slog.String("redis_addr", cfg.RedisAddr),
		slog.Duration("news_ttl", cfg.NewsCacheTTL),
		slog.Duration("geocode_ttl", cfg.GeocodeCacheTTL),
	)

	return cache.NewCachedGeocoder(geocoder, store, cfg.GeocodeCacheTTL, slog.Default()),
		cache.NewCachedNewsProvider(provider, store, cfg.NewsCacheTTL, slog.Default())
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
