package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/locallens/internal/model"
	"github.com/hitoshi/locallens/internal/security"
)

// GNewsConfig はGNewsClientの設定。
type GNewsConfig struct {
	BaseURL         string // 例: https://gnews.io/api/v4
	APIKey          string
	Language        string
	MaxArticles     int
	MaxResponseSize int64 // レスポンスボディの読み取り上限（バイト）。0なら5MiB
}

// GNewsClient はGNews v4 検索APIのクライアント。
type GNewsClient struct {
	httpClient  *http.Client
	logger      *slog.Logger
	sanitizer   security.TextSanitizerService
	cfg         GNewsConfig
	maxBodySize int64
}

// NewGNewsClient はGNewsClientの新しいインスタンスを生成する。
func NewGNewsClient(httpClient *http.Client, logger *slog.Logger, sanitizer security.TextSanitizerService, cfg GNewsConfig) *GNewsClient {
	maxBodySize := cfg.MaxResponseSize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxResponseSize
	}
	return &GNewsClient{
		httpClient:  httpClient,
		logger:      logger,
		sanitizer:   sanitizer,
		cfg:         cfg,
		maxBodySize: maxBodySize,
	}
}

// gnewsResponse は/searchのレスポンス。
type gnewsResponse struct {
	Articles []gnewsArticle `json:"articles"`
}

// gnewsArticle はGNewsの記事要素。
type gnewsArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Search は都市名で最近のニュース記事を検索する。
func (c *GNewsClient) Search(ctx context.Context, city string) ([]model.NewsArticle, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("token", c.cfg.APIKey)
	q.Set("lang", c.cfg.Language)
	q.Set("max", strconv.Itoa(c.cfg.MaxArticles))

	reqURL := c.cfg.BaseURL + "/search?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("GNews APIの呼び出しに失敗しました",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("GNews APIがエラーステータスを返しました",
			slog.String("city", city),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("GNews APIがステータス %d を返しました", resp.StatusCode)
	}

	// 巨大レスポンスによるメモリ枯渇を防ぐため読み取り量を制限する
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result gnewsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("GNewsレスポンスのパースに失敗しました: %w", err)
	}

	articles := make([]model.NewsArticle, 0, len(result.Articles))
	for _, a := range result.Articles {
		articles = append(articles, model.NewsArticle{
			Title:       c.sanitizer.Sanitize(a.Title),
			Description: c.sanitizer.Sanitize(a.Description),
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}

	return articles, nil
}

// compile-time interface check
var _ Provider = (*GNewsClient)(nil)
