package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/locallens/internal/model"
	"github.com/hitoshi/locallens/internal/security"
)

// RSSConfig はRSSProviderの設定。
type RSSConfig struct {
	BaseURL         string // 例: https://news.google.com/rss
	Language        string
	MaxArticles     int
	MaxResponseSize int64 // レスポンスボディの読み取り上限（バイト）。0なら5MiB
}

// RSSProvider はGoogle News RSS検索フィードを使うニュースプロバイダ。
// GNEWS_API_KEYが未設定のデプロイで使用されるキー不要のフォールバック。
// フィード取得はSSRF防止機能付きHTTPクライアントを経由する。
type RSSProvider struct {
	httpClient  *http.Client
	parser      *gofeed.Parser
	logger      *slog.Logger
	sanitizer   security.TextSanitizerService
	cfg         RSSConfig
	maxBodySize int64
}

// NewRSSProvider はRSSProviderの新しいインスタンスを生成する。
// httpClientにはSSRFGuardService.NewSafeClientで生成したクライアントを渡すこと。
func NewRSSProvider(httpClient *http.Client, logger *slog.Logger, sanitizer security.TextSanitizerService, cfg RSSConfig) *RSSProvider {
	maxBodySize := cfg.MaxResponseSize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxResponseSize
	}
	return &RSSProvider{
		httpClient:  httpClient,
		parser:      gofeed.NewParser(),
		logger:      logger,
		sanitizer:   sanitizer,
		cfg:         cfg,
		maxBodySize: maxBodySize,
	}
}

// Search は都市名で最近のニュース記事を検索する。
func (p *RSSProvider) Search(ctx context.Context, city string) ([]model.NewsArticle, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("hl", p.cfg.Language)

	feedURL := p.cfg.BaseURL + "/search?" + q.Encode()

	body, err := p.fetch(ctx, feedURL)
	if err != nil {
		p.logger.Error("ニュースRSSフィードの取得に失敗しました",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ニュースRSSフィードの取得に失敗しました: %w", err)
	}

	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		p.logger.Error("ニュースRSSフィードのパースに失敗しました",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ニュースRSSフィードのパースに失敗しました: %w", err)
	}

	limit := p.cfg.MaxArticles
	if limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	articles := make([]model.NewsArticle, 0, limit)
	for _, item := range feed.Items[:limit] {
		title, source := splitTitleAndSource(item.Title)
		articles = append(articles, model.NewsArticle{
			Title:       p.sanitizer.Sanitize(title),
			Description: p.sanitizer.Sanitize(item.Description),
			URL:         item.Link,
			Source:      p.sanitizer.Sanitize(source),
			PublishedAt: item.PublishedParsed,
		})
	}

	return articles, nil
}

// fetch はフィードURLにGETリクエストを送り、ボディを返す。
func (p *RSSProvider) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("フィードの取得がステータス %d を返しました", resp.StatusCode)
	}

	// 巨大レスポンスによるメモリ枯渇を防ぐため読み取り量を制限する
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, nil
}

// splitTitleAndSource はGoogle News形式のタイトル「見出し - 媒体名」を分解する。
// 区切りが見つからない場合は媒体名を空にしてタイトル全体を返す。
// 見出し自体にハイフンが含まれることがあるため、最後の区切りで分割する。
func splitTitleAndSource(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx < 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+len(" - "):])
}

// compile-time interface check
var _ Provider = (*RSSProvider)(nil)
