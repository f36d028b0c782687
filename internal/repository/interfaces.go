// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/locallens/internal/model"
)

// ArticleRepository は保存記事データの永続化インターフェース。
// すべての操作はuserIdでスコープされ、1回の呼び出しにつき1回のストア操作のみを行う。
type ArticleRepository interface {
	// Insert は保存記事を1件作成する。IDは呼び出し側で生成済みであること。
	// 重複排除は行わない。同一内容でも呼び出しごとに別レコードが作成される。
	Insert(ctx context.Context, article *model.SavedArticle) error

	// ListByUserID は指定ユーザーの保存記事をsavedAt降順（新しい順）で返す。
	// 保存記事が存在しない場合は空のスライスを返す（エラーではない）。
	ListByUserID(ctx context.Context, userID string) ([]model.SavedArticle, error)

	// DeleteByIDAndUserID はidとuserIdの両方に一致するレコードを1件削除する。
	// 削除できた場合はtrueを返す。一致するレコードがない場合（idが存在しない、
	// または所有者が異なる場合）はfalseを返し、エラーにはしない。
	DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error)
}
