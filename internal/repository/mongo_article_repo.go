package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/hitoshi/locallens/internal/database"
	"github.com/hitoshi/locallens/internal/model"
)

// MongoArticleRepo はMongoDBを使用した保存記事リポジトリ。
type MongoArticleRepo struct {
	collection *mongo.Collection
}

// NewMongoArticleRepo はMongoArticleRepoを生成する。
func NewMongoArticleRepo(db *mongo.Database) *MongoArticleRepo {
	return &MongoArticleRepo{
		collection: db.Collection(database.SavedArticlesCollection),
	}
}

// Insert は保存記事を1件作成する。
func (r *MongoArticleRepo) Insert(ctx context.Context, article *model.SavedArticle) error {
	_, err := r.collection.InsertOne(ctx, article)
	if err != nil {
		return fmt.Errorf("保存記事の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID は指定ユーザーの保存記事をsavedAt降順で返す。
func (r *MongoArticleRepo) ListByUserID(ctx context.Context, userID string) ([]model.SavedArticle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "savedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("保存記事一覧の取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	// 0件でもnilではなく空スライスを返す（JSONでnullにしないため）
	articles := []model.SavedArticle{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("保存記事一覧の読み取りに失敗しました: %w", err)
	}

	return articles, nil
}

// DeleteByIDAndUserID はidとuserIdの両方に一致するレコードを1件削除する。
func (r *MongoArticleRepo) DeleteByIDAndUserID(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return false, fmt.Errorf("保存記事の削除に失敗しました: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// compile-time interface check
var _ ArticleRepository = (*MongoArticleRepo)(nil)
