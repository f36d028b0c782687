// Package news はニュースプロバイダ連携機能を提供する。
// GNews APIクライアントと、APIキー不要のRSSフォールバックの2実装を持つ。
package news

import (
	"context"

	"github.com/hitoshi/locallens/internal/model"
)

// defaultMaxResponseSize は上流レスポンスの読み取り上限（5MiB）。
// MaxResponseSize未指定時に適用される。
const defaultMaxResponseSize = 5 * 1024 * 1024

// Provider はニュース検索機能のインターフェース。
// キャッシュデコレータとハンドラーの両方がこのインターフェースを介して利用する。
type Provider interface {
	// Search は都市名で最近のニュース記事を検索する。
	// 該当記事がない場合は空のスライスを返す（エラーではない）。
	// 返される記事のTitleとDescriptionはサニタイズ済みのプレーンテキスト。
	Search(ctx context.Context, city string) ([]model.NewsArticle, error)
}
