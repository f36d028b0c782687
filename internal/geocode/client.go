// Package geocode はジオコーディング機能を提供する。
// 逆ジオコーディング（座標→都市名）と住所検索（住所→座標）の2操作を持つ。
// デフォルトの上流はOpenStreetMap Nominatimで、利用ポリシーに従い
// リクエストレートを制限する（デフォルト1 req/sec）。
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/hitoshi/locallens/internal/model"
)

// fallbackCity は都市名を抽出できなかった場合に使う検索語。
// ニュース検索のクエリとしてそのまま使用される。
const fallbackCity = "local"

// defaultMaxResponseSize は上流レスポンスの読み取り上限（5MiB）。
// MaxResponseSize未指定時に適用される。
const defaultMaxResponseSize = 5 * 1024 * 1024

// Service はジオコーディング機能のインターフェース。
// キャッシュデコレータとハンドラーの両方がこのインターフェースを介して利用する。
type Service interface {
	// ReverseCity は座標から都市名を解決する。
	// 都市名を抽出できない場合は"local"を返す（エラーではない）。
	ReverseCity(ctx context.Context, lat, lng float64) (string, error)

	// Geocode は住所文字列を座標に解決する。
	// 該当する地点が見つからない場合はnilを返す（エラーではない）。
	Geocode(ctx context.Context, address string) (*model.GeocodeResult, error)
}

// ClientConfig はClientの設定。
type ClientConfig struct {
	BaseURL         string  // 上流エンドポイント（例: https://nominatim.openstreetmap.org）
	UserAgent       string  // Nominatimの利用ポリシーで必須
	RateLimit       float64 // req/sec
	MaxResponseSize int64   // レスポンスボディの読み取り上限（バイト）。0なら5MiB
}

// Client はNominatim互換ジオコーディングAPIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	baseURL     string // テスト用にエンドポイントを差し替え可能
	userAgent   string
	maxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg ClientConfig) *Client {
	maxBodySize := cfg.MaxResponseSize
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxResponseSize
	}
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		maxBodySize: maxBodySize,
	}
}

// reverseResponse は/reverseのレスポンス。
type reverseResponse struct {
	Address addressDetails `json:"address"`
}

// searchResult は/searchのレスポンス要素。latとlonは文字列で返される。
type searchResult struct {
	Lat     string         `json:"lat"`
	Lon     string         `json:"lon"`
	Address addressDetails `json:"address"`
}

// addressDetails は住所構成要素。都市名の抽出に使う。
type addressDetails struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
}

// cityName は住所構成要素から都市相当の名前を抽出する。
// locality（city→town→village→municipality→county）の順で探し、
// どれも無ければfallbackCityを返す。
func (a addressDetails) cityName() string {
	for _, name := range []string{a.City, a.Town, a.Village, a.Municipality, a.County} {
		if name != "" {
			return name
		}
	}
	return fallbackCity
}

// ReverseCity は座標から都市名を解決する。
func (c *Client) ReverseCity(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "jsonv2")

	body, err := c.get(ctx, "/reverse", q)
	if err != nil {
		return "", err
	}

	var result reverseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("逆ジオコーディングレスポンスのパースに失敗しました: %w", err)
	}

	return result.Address.cityName(), nil
}

// Geocode は住所文字列を座標に解決する。見つからない場合はnilを返す。
func (c *Client) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	body, err := c.get(ctx, "/search", q)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("住所検索レスポンスのパースに失敗しました: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("緯度のパースに失敗しました: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("経度のパースに失敗しました: %w", err)
	}

	return &model.GeocodeResult{
		Lat:  lat,
		Lng:  lng,
		City: results[0].Address.cityName(),
	}, nil
}

// get はレート制限を待ってから上流にGETリクエストを送り、ボディを返す。
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	// Nominatimの利用ポリシー遵守: 上流へのリクエストレートを制限する
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限待機中にキャンセルされました: %w", err)
	}

	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ジオコーディングAPIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("ジオコーディングAPIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("ジオコーディングAPIがステータス %d を返しました", resp.StatusCode)
	}

	// 巨大レスポンスによるメモリ枯渇を防ぐため読み取り量を制限する
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, nil
}

// compile-time interface check
var _ Service = (*Client)(nil)
