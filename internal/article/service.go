// Package article は保存記事の永続化・取得機能を提供する。
// Save/List/Deleteの3操作がこのサービスの全インターフェースで、更新操作は存在しない。
package article

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/hitoshi/locallens/internal/model"
	"github.com/hitoshi/locallens/internal/repository"
)

// ArticleService は保存記事のサービス。
// すべての操作はuserIdでスコープされる。userIdはクライアント生成の不透明な
// トークンであり、アカウントシステムに対する検証は行わない。
type ArticleService struct {
	repo repository.ArticleRepository
	now  func() time.Time // テストで固定時刻を注入するため差し替え可能
}

// NewArticleService はArticleServiceの新しいインスタンスを生成する。
func NewArticleService(repo repository.ArticleRepository) *ArticleService {
	return &ArticleService{
		repo: repo,
		now:  time.Now,
	}
}

// SaveInput は記事保存の入力。
// title/url/sourceは上流記事からそのままコピーされた値で、正規化は行わない。
type SaveInput struct {
	UserID   string `validate:"required"`
	Title    string `validate:"required"`
	URL      string `validate:"required"`
	Source   string `validate:"required"`
	Location *model.Coordinates
}

var validate = validator.New()

// fieldJSONNames はバリデーションエラーをAPIのフィールド名で報告するための対応表。
var fieldJSONNames = map[string]string{
	"UserID": "userId",
	"Title":  "title",
	"URL":    "url",
	"Source": "source",
}

// Save は保存記事を1件作成し、作成されたレコードを返す。
// userId/title/url/sourceのいずれかが空の場合はValidationErrorを返す。
// IDはUUIDv4でサーバー側生成、savedAtもサーバー側の現在時刻（UTC）を設定する。
// 重複排除は行わない。同一入力で2回呼ぶと2件の別レコードが作成される。
func (s *ArticleService) Save(ctx context.Context, in SaveInput) (*model.SavedArticle, error) {
	if err := validate.Struct(in); err != nil {
		var missing []string
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				name := fieldJSONNames[fe.Field()]
				if name == "" {
					name = fe.Field()
				}
				missing = append(missing, name)
			}
		}
		return nil, model.NewValidationError("必須フィールドが不足しています: " + strings.Join(missing, ", "))
	}

	article := &model.SavedArticle{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		Title:    in.Title,
		URL:      in.URL,
		Source:   in.Source,
		Location: in.Location,
		SavedAt:  s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, article); err != nil {
		return nil, err
	}

	return article, nil
}

// List は指定ユーザーの保存記事をsavedAt降順（新しい順）で返す。
// userIdが空の場合はValidationErrorを返す。
// 保存記事が0件の場合は空スライスを返す（エラーではない）。
func (s *ArticleService) List(ctx context.Context, userID string) ([]model.SavedArticle, error) {
	if userID == "" {
		return nil, model.NewValidationError("userIdを指定してください")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// Delete はidとuserIdの両方に一致する保存記事を1件削除する。
// 一致するレコードがない場合（idが存在しない、既に削除済み、または所有者が
// 異なる場合）はArticleNotFoundErrorを返す。同一引数での2回目の呼び出しは
// 必ずNotFoundになる（存在しないことによる冪等性）。
func (s *ArticleService) Delete(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return model.NewValidationError("idとuserIdの両方を指定してください")
	}

	deleted, err := s.repo.DeleteByIDAndUserID(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewArticleNotFoundError(id)
	}
	return nil
}
