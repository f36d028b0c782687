package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/locallens/internal/geocode"
	"github.com/hitoshi/locallens/internal/model"
	"github.com/hitoshi/locallens/internal/news"
)

// CachedGeocoder はジオコーディング結果をキャッシュするgeocode.Serviceのデコレータ。
// キャッシュ層の障害は致命的エラーとせず、ログに記録して上流へフォールスルーする。
type CachedGeocoder struct {
	next   geocode.Service
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedGeocoder はCachedGeocoderを生成する。
func NewCachedGeocoder(next geocode.Service, store Store, ttl time.Duration, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// ReverseCity は座標から都市名を取得する。キャッシュヒット時は上流を呼ばない。
func (g *CachedGeocoder) ReverseCity(ctx context.Context, lat, lng float64) (string, error) {
	key := reverseGeocodeKey(lat, lng)

	var cached string
	hit, err := g.store.GetJSON(ctx, key, &cached)
	if err != nil {
		g.logger.Warn("ジオコーディングキャッシュの参照に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if hit {
		return cached, nil
	}

	city, err := g.next.ReverseCity(ctx, lat, lng)
	if err != nil {
		return "", err
	}

	if err := g.store.SetJSON(ctx, key, city, g.ttl); err != nil {
		g.logger.Warn("ジオコーディングキャッシュの保存に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return city, nil
}

// Geocode は住所から座標を検索する。結果なし(nil)はキャッシュしない。
func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	key := forwardGeocodeKey(address)

	var cached model.GeocodeResult
	hit, err := g.store.GetJSON(ctx, key, &cached)
	if err != nil {
		g.logger.Warn("ジオコーディングキャッシュの参照に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if hit {
		return &cached, nil
	}

	result, err := g.next.Geocode(ctx, address)
	if err != nil || result == nil {
		return result, err
	}

	if err := g.store.SetJSON(ctx, key, result, g.ttl); err != nil {
		g.logger.Warn("ジオコーディングキャッシュの保存に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return result, nil
}

// CachedNewsProvider はニュース検索結果をキャッシュするnews.Providerのデコレータ。
type CachedNewsProvider struct {
	next   news.Provider
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedNewsProvider はCachedNewsProviderを生成する。
func NewCachedNewsProvider(next news.Provider, store Store, ttl time.Duration, logger *slog.Logger) *CachedNewsProvider {
	return &CachedNewsProvider{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Search は都市名でニュース記事を検索する。空の結果もキャッシュして
// 記事のない都市への連続アクセスで上流を叩かないようにする。
func (p *CachedNewsProvider) Search(ctx context.Context, city string) ([]model.NewsArticle, error) {
	key := newsKey(city)

	var cached []model.NewsArticle
	hit, err := p.store.GetJSON(ctx, key, &cached)
	if err != nil {
		p.logger.Warn("ニュースキャッシュの参照に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if hit {
		return cached, nil
	}

	articles, err := p.next.Search(ctx, city)
	if err != nil {
		return nil, err
	}

	if err := p.store.SetJSON(ctx, key, articles, p.ttl); err != nil {
		p.logger.Warn("ニュースキャッシュの保存に失敗しました",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return articles, nil
}

// compile-time interface checks
var (
	_ geocode.Service = (*CachedGeocoder)(nil)
	_ news.Provider   = (*CachedNewsProvider)(nil)
)
