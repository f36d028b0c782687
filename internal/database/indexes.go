package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SavedArticlesCollection は保存記事コレクションの名前。
const SavedArticlesCollection = "saved_articles"

// EnsureIndexes は起動時に必要なインデックスを作成する。
// saved_articlesのuserId+savedAt複合インデックスは一覧取得
// （userIdで絞り込み、savedAt降順）のためのもので、機能要件ではなく性能最適化。
// 既に存在する場合は何もしない（CreateOneは冪等）。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(SavedArticlesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "savedAt", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create saved_articles index: %w", err)
	}
	return nil
}
