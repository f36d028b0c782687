// Package cache は上流API応答のリードスルーキャッシュを提供する。
// REDIS_ADDRが設定されたデプロイでのみ有効になり、未設定時は
// デコレータを挟まずに上流クライアントを直接使う。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store はJSON値のキャッシュ操作のインターフェース。
type Store interface {
	// GetJSON はキーの値をdestにデコードする。キーが存在しない場合は
	// (false, nil)を返す。
	GetJSON(ctx context.Context, key string, dest any) (bool, error)

	// SetJSON は値をJSONエンコードしてTTL付きで保存する。
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
}

// NewRedisClient は設定からRedisクライアントを生成する。
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// RedisStore はRedisを使用したStoreの実装。
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore はRedisStoreを生成する。
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// GetJSON はキーの値をdestにデコードする。
func (s *RedisStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("キャッシュの取得に失敗しました: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("キャッシュ値のパースに失敗しました: %w", err)
	}
	return true, nil
}

// SetJSON は値をJSONエンコードしてTTL付きで保存する。
func (s *RedisStore) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("キャッシュ値のエンコードに失敗しました: %w", err)
	}
	if err := s.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}

// --- キー構築 ---

// reverseGeocodeKey は逆ジオコーディング結果のキャッシュキーを構築する。
// 座標は小数4桁（約11m）に丸めて近傍の座標でキャッシュヒットさせる。
func reverseGeocodeKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:rev:%s:%s",
		strconv.FormatFloat(lat, 'f', 4, 64),
		strconv.FormatFloat(lng, 'f', 4, 64),
	)
}

// forwardGeocodeKey は住所検索結果のキャッシュキーを構築する。
func forwardGeocodeKey(address string) string {
	return "geocode:fwd:" + strings.ToLower(strings.TrimSpace(address))
}

// newsKey は都市別ニュース結果のキャッシュキーを構築する。
func newsKey(city string) string {
	return "news:city:" + strings.ToLower(strings.TrimSpace(city))
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
